package catalog_test

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

	"ms-ledger/internal/catalog"
	catalogdb "ms-ledger/internal/catalog/db"
	"ms-ledger/internal/models"
)

func setupService(t *testing.T) (*catalog.CatalogService, *bun.DB) {
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

	return catalog.NewCatalogService(&catalogdb.DB{Bun: bunDB}), bunDB
}

func validInput() catalog.CreateEventInput {
	return catalog.CreateEventInput{
		Name:      "Summer Fest",
		Venue:     "Riverside Park",
		StartDate: time.Date(2026, 7, 10, 18, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 7, 10, 23, 0, 0, 0, time.UTC),
		Tiers: map[string]catalog.TierIn{
			"vip":      {Capacity: 50, Price: 250},
			"standard": {Capacity: 300, Price: 90},
		},
	}
}

func TestCreateEventRoundTrip(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, validInput())
	require.NoError(t, err)
	require.NotEmpty(t, event.ID)

	capacity, err := svc.GetTierCapacity(ctx, event.ID, "vip")
	require.NoError(t, err)
	assert.Equal(t, 50, capacity)

	available, err := svc.GetAvailableSeats(ctx, event.ID, "standard")
	require.NoError(t, err)
	assert.Equal(t, 300, available)

	events, err := svc.ListEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestCreateEventValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	in := validInput()
	in.Name = ""
	_, err := svc.CreateEvent(ctx, in)
	assert.Error(t, err)

	in = validInput()
	in.Tiers = nil
	_, err = svc.CreateEvent(ctx, in)
	assert.Error(t, err)

	in = validInput()
	in.Tiers["vip"] = catalog.TierIn{Capacity: -1, Price: 250}
	_, err = svc.CreateEvent(ctx, in)
	assert.Error(t, err)
}

func TestUpdateTierPriceLeavesCapacityAlone(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, svc.UpdateTierPrice(ctx, event.ID, "vip", 275))

	assert.Error(t, svc.UpdateTierPrice(ctx, event.ID, "vip", -5))

	capacity, err := svc.GetTierCapacity(ctx, event.ID, "vip")
	require.NoError(t, err)
	assert.Equal(t, 50, capacity)
}

func TestDeleteEventGuardedByIssuedTickets(t *testing.T) {
	svc, bunDB := setupService(t)
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, validInput())
	require.NoError(t, err)

	ticket := &models.Ticket{
		TicketID: "TKT-" + event.ID + "-VIP-000001",
		EventID:  event.ID,
		Tier:     "vip",
		IssuedAt: time.Now().UTC(),
	}
	_, err = bunDB.NewInsert().Model(ticket).Exec(ctx)
	require.NoError(t, err)

	err = svc.DeleteEvent(ctx, event.ID)
	assert.ErrorIs(t, err, models.ErrEventHasTickets)

	// Still listed; nothing was deleted.
	_, err = svc.GetEvent(ctx, event.ID)
	require.NoError(t, err)

	_, err = bunDB.NewDelete().Model(ticket).WherePK().Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEvent(ctx, event.ID))
	_, err = svc.GetEvent(ctx, event.ID)
	assert.ErrorIs(t, err, models.ErrUnknownEvent)
}
