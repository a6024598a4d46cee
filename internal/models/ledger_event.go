package models

import (
	"errors"
	"time"
)

// TicketIssuedEvent is published on ticketly.ticket.issued after the issuing
// transaction commits.
type TicketIssuedEvent struct {
	TicketID string    `json:"ticket_id"`
	EventID  string    `json:"event_id"`
	Tier     string    `json:"tier"`
	Price    float64   `json:"price"`
	IssuedAt time.Time `json:"issued_at"`
}

// CheckInEvent is published on ticketly.checkin.recorded and
// ticketly.checkin.reversed.
type CheckInEvent struct {
	TicketID   string    `json:"ticket_id"`
	EventID    string    `json:"event_id"`
	OperatorID string    `json:"operator_id"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewCheckInEvent(ticketID, eventID, operatorID, action string) (*CheckInEvent, error) {
	if ticketID == "" || eventID == "" {
		return nil, errors.New("ticket_id and event_id are required")
	}
	if action != AuditActionCheckedIn && action != AuditActionUndone {
		return nil, errors.New("invalid check-in action: " + action)
	}
	return &CheckInEvent{
		TicketID:   ticketID,
		EventID:    eventID,
		OperatorID: operatorID,
		Action:     action,
		OccurredAt: time.Now().UTC(),
	}, nil
}
