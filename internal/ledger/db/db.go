package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ms-ledger/internal/models"
	"ms-ledger/internal/utils"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetTicketByID(ctx context.Context, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("ticket_id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// InsertCheckIn records the check-in and an audit row in one transaction. The
// ticket_id primary key plus ON CONFLICT DO NOTHING makes the insert the
// at-most-once gate: zero rows affected means a record already existed and it
// was left untouched.
func (d *DB) InsertCheckIn(ctx context.Context, record models.CheckInRecord) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewInsert().
			Model(&record).
			On("CONFLICT DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return models.ErrAlreadyCheckedIn
		}

		audit := models.CheckInAudit{
			ID:         utils.AuditID(),
			TicketID:   record.TicketID,
			EventID:    record.EventID,
			Action:     models.AuditActionCheckedIn,
			OperatorID: record.CheckedInBy,
			OccurredAt: record.CheckedInAt,
		}
		_, err = tx.NewInsert().Model(&audit).Exec(ctx)
		return err
	})
}

// DeleteCheckIn removes the live record, leaving audit history in place.
func (d *DB) DeleteCheckIn(ctx context.Context, ticketID, eventID, operatorID string) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*models.CheckInRecord)(nil)).
			Where("ticket_id = ?", ticketID).
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return models.ErrNotCheckedIn
		}

		audit := models.CheckInAudit{
			ID:         utils.AuditID(),
			TicketID:   ticketID,
			EventID:    eventID,
			Action:     models.AuditActionUndone,
			OperatorID: operatorID,
			OccurredAt: time.Now().UTC(),
		}
		_, err = tx.NewInsert().Model(&audit).Exec(ctx)
		return err
	})
}

func (d *DB) GetCheckIn(ctx context.Context, ticketID string) (*models.CheckInRecord, error) {
	var record models.CheckInRecord
	err := d.Bun.NewSelect().
		Model(&record).
		Where("ticket_id = ?", ticketID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotCheckedIn
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetEventProgress reads total issued and checked-in from one transaction so
// the two counts are a consistent snapshot.
func (d *DB) GetEventProgress(ctx context.Context, eventID string) (*models.EventProgress, error) {
	var progress models.EventProgress
	progress.EventID = eventID

	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Event)(nil)).
			Where("id = ?", eventID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return models.ErrUnknownEvent
		}

		err = tx.NewSelect().
			Model((*models.TierSeat)(nil)).
			ColumnExpr("COALESCE(SUM(sold), 0)").
			Where("event_id = ?", eventID).
			Scan(ctx, &progress.Total)
		if err != nil {
			return err
		}

		checkedIn, err := tx.NewSelect().
			Model((*models.CheckInRecord)(nil)).
			Where("event_id = ?", eventID).
			Count(ctx)
		if err != nil {
			return err
		}
		progress.CheckedIn = checkedIn
		progress.Pending = progress.Total - progress.CheckedIn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (d *DB) ListAuditTrail(ctx context.Context, ticketID string) ([]models.CheckInAudit, error) {
	var trail []models.CheckInAudit
	err := d.Bun.NewSelect().
		Model(&trail).
		Where("ticket_id = ?", ticketID).
		Order("occurred_at").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return trail, nil
}
