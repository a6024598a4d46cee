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

// IssueTicket runs the capacity check-and-increment and ticket insert as one
// transaction. The guarded update is the only place sold moves: zero rows
// affected means the precondition failed and nothing was mutated.
func (d *DB) IssueTicket(ctx context.Context, eventID, tier string, holder models.HolderInfo) (*models.Ticket, error) {
	var ticket models.Ticket

	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.TierSeat)(nil)).
			Set("sold = sold + 1").
			Where("event_id = ?", eventID).
			Where("tier = ?", tier).
			Where("sold < capacity").
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return d.classifyIssueFailure(ctx, tx, eventID, tier)
		}

		// Read back the row this transaction just moved; sold doubles as the
		// per-tier ticket sequence and price is the snapshot.
		var seat models.TierSeat
		err = tx.NewSelect().
			Model(&seat).
			Where("event_id = ?", eventID).
			Where("tier = ?", tier).
			Limit(1).
			Scan(ctx)
		if err != nil {
			return err
		}

		ticket = models.Ticket{
			TicketID:        utils.TicketID(eventID, tier, seat.Sold),
			EventID:         eventID,
			Tier:            tier,
			HolderName:      holder.Name,
			HolderEmail:     holder.Email,
			PriceAtPurchase: seat.Price,
			IssuedAt:        time.Now().UTC(),
		}

		_, err = tx.NewInsert().Model(&ticket).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// classifyIssueFailure distinguishes a full tier from a bad lookup once the
// guarded update matched nothing.
func (d *DB) classifyIssueFailure(ctx context.Context, tx bun.Tx, eventID, tier string) error {
	tierExists, err := tx.NewSelect().
		Model((*models.TierSeat)(nil)).
		Where("event_id = ?", eventID).
		Where("tier = ?", tier).
		Exists(ctx)
	if err != nil {
		return err
	}
	if tierExists {
		return models.ErrCapacityExceeded
	}

	eventExists, err := tx.NewSelect().
		Model((*models.Event)(nil)).
		Where("id = ?", eventID).
		Exists(ctx)
	if err != nil {
		return err
	}
	if !eventExists {
		return models.ErrUnknownEvent
	}
	return models.ErrUnknownTier
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

func (d *DB) SetTicketQR(ctx context.Context, ticketID string, qrCode []byte) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("qr_code = ?", qrCode).
		Where("ticket_id = ?", ticketID).
		Exec(ctx)
	return err
}

func (d *DB) ListTicketsByEvent(ctx context.Context, eventID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("event_id = ?", eventID).
		Order("issued_at").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (d *DB) ListTicketsByHolder(ctx context.Context, email string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("holder_email = ?", email).
		Order("issued_at").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}
