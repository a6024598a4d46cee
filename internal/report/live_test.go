package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-ledger/internal/models"
)

const issuedTopic = "ticketly.ticket.issued"

func issuedMessage(t *testing.T, eventID string) []byte {
	t.Helper()
	payload, err := json.Marshal(models.TicketIssuedEvent{
		TicketID: "TKT-" + eventID + "-VIP-000001",
		EventID:  eventID,
		Tier:     "vip",
		Price:    250,
		IssuedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return payload
}

func checkInMessage(t *testing.T, eventID, action string) []byte {
	t.Helper()
	payload, err := json.Marshal(models.CheckInEvent{
		TicketID:   "TKT-" + eventID + "-VIP-000001",
		EventID:    eventID,
		OperatorID: "gate-1",
		Action:     action,
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return payload
}

func TestHandleCountsIssuedAndCheckIns(t *testing.T) {
	tracker := NewLiveTracker(issuedTopic)

	tracker.Handle(issuedTopic, nil, issuedMessage(t, "evt_a"))
	tracker.Handle(issuedTopic, nil, issuedMessage(t, "evt_a"))
	tracker.Handle("ticketly.checkin.recorded", nil, checkInMessage(t, "evt_a", models.AuditActionCheckedIn))

	snap := tracker.Snapshot("evt_a")
	assert.Equal(t, 2, snap.Issued)
	assert.Equal(t, 1, snap.CheckedIn)

	// Events are tracked independently.
	other := tracker.Snapshot("evt_b")
	assert.Zero(t, other.Issued)
	assert.Zero(t, other.CheckedIn)
}

func TestHandleUndoDecrements(t *testing.T) {
	tracker := NewLiveTracker(issuedTopic)

	tracker.Handle("ticketly.checkin.recorded", nil, checkInMessage(t, "evt_a", models.AuditActionCheckedIn))
	tracker.Handle("ticketly.checkin.reversed", nil, checkInMessage(t, "evt_a", models.AuditActionUndone))

	assert.Zero(t, tracker.Snapshot("evt_a").CheckedIn)

	// An undo arriving before any recorded scan never goes negative.
	tracker.Handle("ticketly.checkin.reversed", nil, checkInMessage(t, "evt_a", models.AuditActionUndone))
	assert.Zero(t, tracker.Snapshot("evt_a").CheckedIn)
}

func TestHandleDropsMalformedMessages(t *testing.T) {
	tracker := NewLiveTracker(issuedTopic)

	tracker.Handle(issuedTopic, nil, []byte("not json"))
	tracker.Handle(issuedTopic, nil, []byte(`{"tier":"vip"}`))
	tracker.Handle("ticketly.checkin.recorded", nil, []byte("{"))

	assert.Zero(t, tracker.Snapshot("evt_a").Issued)
}

func TestSeedOverridesCounters(t *testing.T) {
	tracker := NewLiveTracker(issuedTopic)

	tracker.Handle(issuedTopic, nil, issuedMessage(t, "evt_a"))
	tracker.Seed("evt_a", 40, 12)

	snap := tracker.Snapshot("evt_a")
	assert.Equal(t, 40, snap.Issued)
	assert.Equal(t, 12, snap.CheckedIn)

	// Live traffic keeps counting from the seeded baseline.
	tracker.Handle(issuedTopic, nil, issuedMessage(t, "evt_a"))
	assert.Equal(t, 41, tracker.Snapshot("evt_a").Issued)
}
