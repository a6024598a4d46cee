package ledger

import (
	"context"
	"fmt"
	"time"

	"ms-ledger/internal/config"
	"ms-ledger/internal/logger"
	"ms-ledger/internal/models"
)

type LedgerDBLayer interface {
	GetTicketByID(ctx context.Context, id string) (*models.Ticket, error)
	InsertCheckIn(ctx context.Context, record models.CheckInRecord) error
	DeleteCheckIn(ctx context.Context, ticketID, eventID, operatorID string) error
	GetCheckIn(ctx context.Context, ticketID string) (*models.CheckInRecord, error)
	GetEventProgress(ctx context.Context, eventID string) (*models.EventProgress, error)
	ListAuditTrail(ctx context.Context, ticketID string) ([]models.CheckInAudit, error)
}

type TicketLocker interface {
	Acquire(ctx context.Context, ticketID, operatorID string) (bool, error)
	Release(ctx context.Context, ticketID, operatorID string) error
}

type KafkaPublisher interface {
	PublishCheckIn(topic string, event models.CheckInEvent) error
}

// LedgerService enforces at-most-once check-in per ticket and serves the live
// progress counters.
type LedgerService struct {
	DB     LedgerDBLayer
	Locks  TicketLocker
	Kafka  KafkaPublisher
	Topics config.TopicConfig
	Logger *logger.Logger
}

func NewLedgerService(db LedgerDBLayer, locks TicketLocker, kafka KafkaPublisher, topics config.TopicConfig, log *logger.Logger) *LedgerService {
	return &LedgerService{DB: db, Locks: locks, Kafka: kafka, Topics: topics, Logger: log}
}

// CheckIn records the first scan of a ticket. A duplicate scan returns
// ErrAlreadyCheckedIn without touching the existing record; contention on the
// per-ticket lock returns ErrBusy, which scanners retry with backoff.
func (s *LedgerService) CheckIn(ctx context.Context, ticketID, operatorID string) (*models.CheckInRecord, error) {
	if s.Locks != nil {
		acquired, err := s.Locks.Acquire(ctx, ticketID, operatorID)
		if err != nil {
			return nil, fmt.Errorf("check-in lock error: %w", err)
		}
		if !acquired {
			return nil, models.ErrBusy
		}
		defer func() {
			if err := s.Locks.Release(context.Background(), ticketID, operatorID); err != nil {
				s.Logger.Warn("CHECKIN", fmt.Sprintf("Failed to release lock for %s: %v", ticketID, err))
			}
		}()
	}

	ticket, err := s.DB.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	record := models.CheckInRecord{
		TicketID:    ticket.TicketID,
		EventID:     ticket.EventID,
		CheckedInAt: time.Now().UTC(),
		CheckedInBy: operatorID,
	}

	if err := s.DB.InsertCheckIn(ctx, record); err != nil {
		return nil, err
	}

	s.Logger.LogCheckIn("RECORD", ticketID, operatorID)
	s.publish(s.Topics.CheckInRecorded, ticket, operatorID, models.AuditActionCheckedIn)

	return &record, nil
}

// UndoCheckIn reverses a check-in, returning the ticket to the issued state.
// Audit rows survive the undo.
func (s *LedgerService) UndoCheckIn(ctx context.Context, ticketID, operatorID string) error {
	ticket, err := s.DB.GetTicketByID(ctx, ticketID)
	if err != nil {
		return err
	}

	if err := s.DB.DeleteCheckIn(ctx, ticketID, ticket.EventID, operatorID); err != nil {
		return err
	}

	s.Logger.LogCheckIn("UNDO", ticketID, operatorID)
	s.publish(s.Topics.CheckInReversed, ticket, operatorID, models.AuditActionUndone)

	return nil
}

// GetEventProgress returns {total, checkedIn, pending} for the event;
// checkedIn + pending == total by construction.
func (s *LedgerService) GetEventProgress(ctx context.Context, eventID string) (*models.EventProgress, error) {
	return s.DB.GetEventProgress(ctx, eventID)
}

func (s *LedgerService) GetCheckIn(ctx context.Context, ticketID string) (*models.CheckInRecord, error) {
	if _, err := s.DB.GetTicketByID(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.DB.GetCheckIn(ctx, ticketID)
}

func (s *LedgerService) ListAuditTrail(ctx context.Context, ticketID string) ([]models.CheckInAudit, error) {
	if _, err := s.DB.GetTicketByID(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.DB.ListAuditTrail(ctx, ticketID)
}

func (s *LedgerService) publish(topic string, ticket *models.Ticket, operatorID, action string) {
	if s.Kafka == nil {
		return
	}
	event, err := models.NewCheckInEvent(ticket.TicketID, ticket.EventID, operatorID, action)
	if err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to build check-in event: %v", err))
		return
	}
	if err := s.Kafka.PublishCheckIn(topic, *event); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish check-in event: %v", err))
	}
}
