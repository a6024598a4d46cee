package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"ms-ledger/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Relation("Tiers").
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUnknownEvent
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Relation("Tiers").
		Order("start_date").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) GetTier(ctx context.Context, eventID, tier string) (*models.TierSeat, error) {
	exists, err := d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		Where("id = ?", eventID).
		Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.ErrUnknownEvent
	}

	var seat models.TierSeat
	err = d.Bun.NewSelect().
		Model(&seat).
		Where("event_id = ?", eventID).
		Where("tier = ?", tier).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUnknownTier
	}
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

// CreateEvent inserts the event and its tier rows in one transaction.
func (d *DB) CreateEvent(ctx context.Context, event models.Event, tiers []models.TierSeat) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&event).Exec(ctx); err != nil {
			return err
		}
		if len(tiers) > 0 {
			if _, err := tx.NewInsert().Model(&tiers).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *DB) UpdateTierPrice(ctx context.Context, eventID, tier string, price float64) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.TierSeat)(nil)).
		Set("price = ?", price).
		Where("event_id = ?", eventID).
		Where("tier = ?", tier).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrUnknownTier
	}
	return nil
}

func (d *DB) CountTicketsForEvent(ctx context.Context, eventID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("event_id = ?", eventID).
		Count(ctx)
}

// DeleteEvent removes the event and its tiers. Callers must verify no tickets
// were issued first.
func (d *DB) DeleteEvent(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.TierSeat)(nil)).
			Where("event_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().
			Model((*models.Event)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return models.ErrUnknownEvent
		}
		return nil
	})
}
