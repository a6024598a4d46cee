package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CheckInRecord marks a redeemed ticket. The ticket_id primary key is what
// enforces at-most-one live record per ticket.
type CheckInRecord struct {
	bun.BaseModel `bun:"table:check_ins"`

	TicketID    string    `bun:"ticket_id,pk" json:"ticket_id"`
	EventID     string    `bun:"event_id,notnull" json:"event_id"`
	CheckedInAt time.Time `bun:"checked_in_at,notnull" json:"checked_in_at"`
	CheckedInBy string    `bun:"checked_in_by,notnull" json:"checked_in_by"`
}

// CheckInAudit is the append-only trail of check-in and undo actions. Undo
// deletes the live record but never touches audit rows.
type CheckInAudit struct {
	bun.BaseModel `bun:"table:check_in_audit"`

	ID         string    `bun:"id,pk" json:"id"`
	TicketID   string    `bun:"ticket_id,notnull" json:"ticket_id"`
	EventID    string    `bun:"event_id,notnull" json:"event_id"`
	Action     string    `bun:"action,notnull" json:"action"` // checked_in, undone
	OperatorID string    `bun:"operator_id,notnull" json:"operator_id"`
	OccurredAt time.Time `bun:"occurred_at,notnull" json:"occurred_at"`
}

const (
	AuditActionCheckedIn = "checked_in"
	AuditActionUndone    = "undone"
)

// EventProgress is the dashboard summary for one event. Pending is derived so
// CheckedIn + Pending == Total always holds.
type EventProgress struct {
	EventID   string `json:"event_id"`
	Total     int    `json:"total"`
	CheckedIn int    `json:"checked_in"`
	Pending   int    `json:"pending"`
}
