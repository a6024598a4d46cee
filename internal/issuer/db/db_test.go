package db

import (
	"context"
	"database/sql"
	"testing"

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

func seedEvent(t *testing.T, d *DB, eventID string, tiers []models.TierSeat) {
	t.Helper()
	ctx := context.Background()

	event := &models.Event{ID: eventID, Name: "Test Event", Venue: "Main Hall"}
	_, err := d.Bun.NewInsert().Model(event).Exec(ctx)
	require.NoError(t, err)

	for i := range tiers {
		tiers[i].EventID = eventID
	}
	_, err = d.Bun.NewInsert().Model(&tiers).Exec(ctx)
	require.NoError(t, err)
}

func TestIssueTicketSequentialIDsAndCapacity(t *testing.T) {
	d := setupTestDB(t)
	seedEvent(t, d, "evt_abc", []models.TierSeat{
		{Tier: "vip", Capacity: 2, Price: 250},
	})
	ctx := context.Background()

	t1, err := d.IssueTicket(ctx, "evt_abc", "vip", models.HolderInfo{Name: "A", Email: "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "TKT-evt_abc-VIP-000001", t1.TicketID)
	assert.Equal(t, 250.0, t1.PriceAtPurchase)

	t2, err := d.IssueTicket(ctx, "evt_abc", "vip", models.HolderInfo{Name: "B", Email: "b@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "TKT-evt_abc-VIP-000002", t2.TicketID)

	_, err = d.IssueTicket(ctx, "evt_abc", "vip", models.HolderInfo{Name: "C", Email: "c@example.com"})
	assert.ErrorIs(t, err, models.ErrCapacityExceeded)

	// The failed attempt must not have consumed a seat or left a ticket behind.
	var seat models.TierSeat
	err = d.Bun.NewSelect().Model(&seat).
		Where("event_id = ?", "evt_abc").
		Where("tier = ?", "vip").
		Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, seat.Sold)

	tickets, err := d.ListTicketsByEvent(ctx, "evt_abc")
	require.NoError(t, err)
	assert.Len(t, tickets, 2)
}

func TestIssueTicketClassifiesLookupFailures(t *testing.T) {
	d := setupTestDB(t)
	seedEvent(t, d, "evt_abc", []models.TierSeat{
		{Tier: "vip", Capacity: 5, Price: 250},
	})
	ctx := context.Background()

	_, err := d.IssueTicket(ctx, "evt_abc", "balcony", models.HolderInfo{})
	assert.ErrorIs(t, err, models.ErrUnknownTier)

	_, err = d.IssueTicket(ctx, "evt_missing", "vip", models.HolderInfo{})
	assert.ErrorIs(t, err, models.ErrUnknownEvent)
}

func TestGetTicketByID(t *testing.T) {
	d := setupTestDB(t)
	seedEvent(t, d, "evt_abc", []models.TierSeat{
		{Tier: "standard", Capacity: 10, Price: 90},
	})
	ctx := context.Background()

	issued, err := d.IssueTicket(ctx, "evt_abc", "standard", models.HolderInfo{Email: "a@example.com"})
	require.NoError(t, err)

	got, err := d.GetTicketByID(ctx, issued.TicketID)
	require.NoError(t, err)
	assert.Equal(t, issued.TicketID, got.TicketID)
	assert.Equal(t, "a@example.com", got.HolderEmail)

	_, err = d.GetTicketByID(ctx, "TKT-UNKNOWN")
	assert.ErrorIs(t, err, models.ErrTicketNotFound)
}

func TestSetTicketQR(t *testing.T) {
	d := setupTestDB(t)
	seedEvent(t, d, "evt_abc", []models.TierSeat{
		{Tier: "standard", Capacity: 10, Price: 90},
	})
	ctx := context.Background()

	issued, err := d.IssueTicket(ctx, "evt_abc", "standard", models.HolderInfo{})
	require.NoError(t, err)

	require.NoError(t, d.SetTicketQR(ctx, issued.TicketID, []byte{0x89, 0x50, 0x4E, 0x47}))

	got, err := d.GetTicketByID(ctx, issued.TicketID)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 0x50, 0x4E, 0x47}, got.QRCode)
}
