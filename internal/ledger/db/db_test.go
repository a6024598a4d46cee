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
		(*models.CheckInRecord)(nil),
		(*models.CheckInAudit)(nil),
	} {
		require.NoError(t, bunDB.ResetModel(ctx, model))
	}

	return &DB{Bun: bunDB}
}

func seedTicket(t *testing.T, d *DB, eventID, ticketID string) {
	t.Helper()
	ctx := context.Background()

	event := &models.Event{ID: eventID, Name: "Test Event"}
	_, err := d.Bun.NewInsert().Model(event).Exec(ctx)
	require.NoError(t, err)

	seat := &models.TierSeat{EventID: eventID, Tier: "standard", Capacity: 10, Sold: 1, Price: 90}
	_, err = d.Bun.NewInsert().Model(seat).Exec(ctx)
	require.NoError(t, err)

	ticket := &models.Ticket{
		TicketID: ticketID,
		EventID:  eventID,
		Tier:     "standard",
		IssuedAt: time.Now().UTC(),
	}
	_, err = d.Bun.NewInsert().Model(ticket).Exec(ctx)
	require.NoError(t, err)
}

func record(ticketID, eventID, operator string) models.CheckInRecord {
	return models.CheckInRecord{
		TicketID:    ticketID,
		EventID:     eventID,
		CheckedInAt: time.Now().UTC(),
		CheckedInBy: operator,
	}
}

func TestInsertCheckInIsAtMostOnce(t *testing.T) {
	d := setupTestDB(t)
	seedTicket(t, d, "evt_abc", "TKT-evt_abc-STANDARD-000001")
	ctx := context.Background()

	first := record("TKT-evt_abc-STANDARD-000001", "evt_abc", "gate-1")
	require.NoError(t, d.InsertCheckIn(ctx, first))

	// A second scan, even by a different operator, must not touch the record.
	second := record("TKT-evt_abc-STANDARD-000001", "evt_abc", "gate-2")
	err := d.InsertCheckIn(ctx, second)
	assert.ErrorIs(t, err, models.ErrAlreadyCheckedIn)

	got, err := d.GetCheckIn(ctx, "TKT-evt_abc-STANDARD-000001")
	require.NoError(t, err)
	assert.Equal(t, "gate-1", got.CheckedInBy)

	// Only the successful scan leaves an audit row.
	trail, err := d.ListAuditTrail(ctx, "TKT-evt_abc-STANDARD-000001")
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, models.AuditActionCheckedIn, trail[0].Action)
}

func TestDeleteCheckInRequiresRecord(t *testing.T) {
	d := setupTestDB(t)
	seedTicket(t, d, "evt_abc", "TKT-evt_abc-STANDARD-000001")
	ctx := context.Background()

	err := d.DeleteCheckIn(ctx, "TKT-evt_abc-STANDARD-000001", "evt_abc", "gate-1")
	assert.ErrorIs(t, err, models.ErrNotCheckedIn)
}

func TestUndoRoundTripPreservesAudit(t *testing.T) {
	d := setupTestDB(t)
	seedTicket(t, d, "evt_abc", "TKT-evt_abc-STANDARD-000001")
	ctx := context.Background()
	ticketID := "TKT-evt_abc-STANDARD-000001"

	require.NoError(t, d.InsertCheckIn(ctx, record(ticketID, "evt_abc", "gate-1")))
	require.NoError(t, d.DeleteCheckIn(ctx, ticketID, "evt_abc", "supervisor-1"))

	_, err := d.GetCheckIn(ctx, ticketID)
	assert.ErrorIs(t, err, models.ErrNotCheckedIn)

	// After undo the ticket is scannable again.
	require.NoError(t, d.InsertCheckIn(ctx, record(ticketID, "evt_abc", "gate-2")))

	trail, err := d.ListAuditTrail(ctx, ticketID)
	require.NoError(t, err)
	require.Len(t, trail, 3)
	assert.Equal(t, models.AuditActionCheckedIn, trail[0].Action)
	assert.Equal(t, models.AuditActionUndone, trail[1].Action)
	assert.Equal(t, "supervisor-1", trail[1].OperatorID)
	assert.Equal(t, models.AuditActionCheckedIn, trail[2].Action)
}

func TestGetEventProgressCountsStayConsistent(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	event := &models.Event{ID: "evt_abc", Name: "Test Event"}
	_, err := d.Bun.NewInsert().Model(event).Exec(ctx)
	require.NoError(t, err)

	seats := []models.TierSeat{
		{EventID: "evt_abc", Tier: "vip", Capacity: 5, Sold: 2, Price: 250},
		{EventID: "evt_abc", Tier: "standard", Capacity: 10, Sold: 3, Price: 90},
	}
	_, err = d.Bun.NewInsert().Model(&seats).Exec(ctx)
	require.NoError(t, err)

	for _, id := range []string{"TKT-evt_abc-VIP-000001", "TKT-evt_abc-VIP-000002"} {
		ticket := &models.Ticket{TicketID: id, EventID: "evt_abc", Tier: "vip", IssuedAt: time.Now().UTC()}
		_, err = d.Bun.NewInsert().Model(ticket).Exec(ctx)
		require.NoError(t, err)
	}

	require.NoError(t, d.InsertCheckIn(ctx, record("TKT-evt_abc-VIP-000001", "evt_abc", "gate-1")))

	progress, err := d.GetEventProgress(ctx, "evt_abc")
	require.NoError(t, err)
	assert.Equal(t, 5, progress.Total)
	assert.Equal(t, 1, progress.CheckedIn)
	assert.Equal(t, 4, progress.Pending)
	assert.Equal(t, progress.Total, progress.CheckedIn+progress.Pending)
}

func TestGetEventProgressUnknownEvent(t *testing.T) {
	d := setupTestDB(t)

	_, err := d.GetEventProgress(context.Background(), "evt_missing")
	assert.ErrorIs(t, err, models.ErrUnknownEvent)
}
