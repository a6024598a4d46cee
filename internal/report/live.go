package report

import (
	"encoding/json"
	"sync"

	"ms-ledger/internal/models"
)

// LiveTracker keeps advisory in-memory counters per event, fed by the ledger's
// Kafka topics. The database aggregates stay authoritative; this exists so the
// dashboard can poll cheaply between full report loads.
type LiveTracker struct {
	issuedTopic string

	mu     sync.RWMutex
	events map[string]*LiveCounters
}

type LiveCounters struct {
	EventID   string `json:"event_id"`
	Issued    int    `json:"issued"`
	CheckedIn int    `json:"checked_in"`
}

func NewLiveTracker(issuedTopic string) *LiveTracker {
	return &LiveTracker{issuedTopic: issuedTopic, events: make(map[string]*LiveCounters)}
}

// Handle is the kafka consumer callback. Messages it cannot parse are dropped;
// the counters are advisory and self-correct on the next full report load.
func (t *LiveTracker) Handle(topic string, key, value []byte) {
	switch {
	case topic == t.issuedTopic:
		var event models.TicketIssuedEvent
		if err := json.Unmarshal(value, &event); err != nil || event.EventID == "" {
			return
		}
		t.mu.Lock()
		t.counters(event.EventID).Issued++
		t.mu.Unlock()
	default:
		var event models.CheckInEvent
		if err := json.Unmarshal(value, &event); err != nil || event.EventID == "" {
			return
		}
		t.mu.Lock()
		c := t.counters(event.EventID)
		if event.Action == models.AuditActionCheckedIn {
			c.CheckedIn++
		} else if event.Action == models.AuditActionUndone && c.CheckedIn > 0 {
			c.CheckedIn--
		}
		t.mu.Unlock()
	}
}

// Snapshot returns a copy of the counters for one event.
func (t *LiveTracker) Snapshot(eventID string) LiveCounters {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if c, ok := t.events[eventID]; ok {
		return *c
	}
	return LiveCounters{EventID: eventID}
}

// Seed primes the tracker from authoritative counts at startup.
func (t *LiveTracker) Seed(eventID string, issued, checkedIn int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events[eventID] = &LiveCounters{EventID: eventID, Issued: issued, CheckedIn: checkedIn}
}

func (t *LiveTracker) counters(eventID string) *LiveCounters {
	c, ok := t.events[eventID]
	if !ok {
		c = &LiveCounters{EventID: eventID}
		t.events[eventID] = c
	}
	return c
}
