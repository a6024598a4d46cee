package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-ledger/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.Event)(nil),
		(*models.TierSeat)(nil),
		(*models.Ticket)(nil),
	} {
		require.NoError(t, bunDB.ResetModel(ctx, model))
	}

	return &DB{Bun: bunDB}
}

func sampleEvent(id string) (models.Event, []models.TierSeat) {
	event := models.Event{
		ID:        id,
		Name:      "Summer Fest",
		Venue:     "Riverside Park",
		StartDate: time.Date(2026, 7, 10, 18, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 7, 10, 23, 0, 0, 0, time.UTC),
		CreatedAt: time.Now().UTC(),
	}
	tiers := []models.TierSeat{
		{EventID: id, Tier: "vip", Capacity: 50, Price: 250},
		{EventID: id, Tier: "standard", Capacity: 300, Price: 90},
	}
	return event, tiers
}

func TestCreateAndGetEventWithTiers(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	event, tiers := sampleEvent("evt_summer")
	require.NoError(t, d.CreateEvent(ctx, event, tiers))

	got, err := d.GetEvent(ctx, "evt_summer")
	require.NoError(t, err)
	assert.Equal(t, "Summer Fest", got.Name)
	require.Len(t, got.Tiers, 2)

	byName := make(map[string]models.TierSeat)
	for _, tier := range got.Tiers {
		byName[tier.Tier] = tier
	}
	assert.Equal(t, 50, byName["vip"].Capacity)
	assert.Equal(t, 90.0, byName["standard"].Price)
}

func TestGetEventUnknown(t *testing.T) {
	d := setupTestDB(t)

	_, err := d.GetEvent(context.Background(), "evt_missing")
	assert.ErrorIs(t, err, models.ErrUnknownEvent)
}

func TestGetTierDistinguishesFailures(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	event, tiers := sampleEvent("evt_summer")
	require.NoError(t, d.CreateEvent(ctx, event, tiers))

	seat, err := d.GetTier(ctx, "evt_summer", "vip")
	require.NoError(t, err)
	assert.Equal(t, 50, seat.Capacity)
	assert.Equal(t, 50, seat.Available())

	_, err = d.GetTier(ctx, "evt_summer", "balcony")
	assert.ErrorIs(t, err, models.ErrUnknownTier)

	_, err = d.GetTier(ctx, "evt_missing", "vip")
	assert.ErrorIs(t, err, models.ErrUnknownEvent)
}

func TestUpdateTierPrice(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	event, tiers := sampleEvent("evt_summer")
	require.NoError(t, d.CreateEvent(ctx, event, tiers))

	require.NoError(t, d.UpdateTierPrice(ctx, "evt_summer", "vip", 275))

	seat, err := d.GetTier(ctx, "evt_summer", "vip")
	require.NoError(t, err)
	assert.Equal(t, 275.0, seat.Price)

	err = d.UpdateTierPrice(ctx, "evt_summer", "balcony", 10)
	assert.ErrorIs(t, err, models.ErrUnknownTier)
}

func TestDeleteEventRemovesTiers(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	event, tiers := sampleEvent("evt_summer")
	require.NoError(t, d.CreateEvent(ctx, event, tiers))

	count, err := d.CountTicketsForEvent(ctx, "evt_summer")
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, d.DeleteEvent(ctx, "evt_summer"))

	_, err = d.GetEvent(ctx, "evt_summer")
	assert.ErrorIs(t, err, models.ErrUnknownEvent)

	remaining, err := d.Bun.NewSelect().
		Model((*models.TierSeat)(nil)).
		Where("event_id = ?", "evt_summer").
		Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, remaining)
}
