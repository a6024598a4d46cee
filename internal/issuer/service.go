package issuer

import (
	"context"
	"fmt"

	"ms-ledger/internal/config"
	"ms-ledger/internal/issuer/qr"
	"ms-ledger/internal/logger"
	"ms-ledger/internal/models"
)

type IssuerDBLayer interface {
	IssueTicket(ctx context.Context, eventID, tier string, holder models.HolderInfo) (*models.Ticket, error)
	GetTicketByID(ctx context.Context, id string) (*models.Ticket, error)
	SetTicketQR(ctx context.Context, ticketID string, qrCode []byte) error
	ListTicketsByEvent(ctx context.Context, eventID string) ([]models.Ticket, error)
	ListTicketsByHolder(ctx context.Context, email string) ([]models.Ticket, error)
}

type KafkaPublisher interface {
	PublishTicketIssued(topic string, event models.TicketIssuedEvent) error
}

type IssuerService struct {
	DB     IssuerDBLayer
	Kafka  KafkaPublisher
	QR     *qr.QRGenerator
	Topics config.TopicConfig
	Logger *logger.Logger
}

func NewIssuerService(db IssuerDBLayer, kafka KafkaPublisher, qrGen *qr.QRGenerator, topics config.TopicConfig, log *logger.Logger) *IssuerService {
	return &IssuerService{DB: db, Kafka: kafka, QR: qrGen, Topics: topics, Logger: log}
}

// IssueTicket allocates one seat of the tier and persists the ticket. The
// capacity check and increment happen atomically in the db layer, so
// concurrent purchases can never oversell.
func (s *IssuerService) IssueTicket(ctx context.Context, eventID, tier string, holder models.HolderInfo) (*models.Ticket, error) {
	ticket, err := s.DB.IssueTicket(ctx, eventID, tier, holder)
	if err != nil {
		return nil, err
	}

	s.Logger.LogTicket("ISSUE", ticket.TicketID, fmt.Sprintf("tier %s of event %s for %s", tier, eventID, holder.Email))

	// The stored QR image is a convenience copy; the payload is deterministic
	// and can be regenerated from the ticket at any time.
	if png, qrErr := s.QR.GenerateImage(*ticket); qrErr != nil {
		s.Logger.Warn("TICKET", fmt.Sprintf("QR generation failed for %s: %v", ticket.TicketID, qrErr))
	} else if qrErr = s.DB.SetTicketQR(ctx, ticket.TicketID, png); qrErr != nil {
		s.Logger.Warn("TICKET", fmt.Sprintf("Failed to store QR for %s: %v", ticket.TicketID, qrErr))
	} else {
		ticket.QRCode = png
	}

	if s.Kafka != nil {
		event := models.TicketIssuedEvent{
			TicketID: ticket.TicketID,
			EventID:  ticket.EventID,
			Tier:     ticket.Tier,
			Price:    ticket.PriceAtPurchase,
			IssuedAt: ticket.IssuedAt,
		}
		if err := s.Kafka.PublishTicketIssued(s.Topics.TicketIssued, event); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish ticket issued event: %v", err))
		}
	}

	return ticket, nil
}

// GenerateQRPayload returns the encrypted string a booking UI embeds in the
// downloadable QR code.
func (s *IssuerService) GenerateQRPayload(ticket models.Ticket) (string, error) {
	payload, err := s.QR.EncodePayload(ticket)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR payload: %w", err)
	}
	return payload, nil
}

func (s *IssuerService) GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	return s.DB.GetTicketByID(ctx, ticketID)
}

// TicketQRImage renders the ticket's QR code, regenerating it when the stored
// copy is missing.
func (s *IssuerService) TicketQRImage(ctx context.Context, ticketID string) ([]byte, error) {
	ticket, err := s.DB.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if len(ticket.QRCode) > 0 {
		return ticket.QRCode, nil
	}
	return s.QR.GenerateImage(*ticket)
}

func (s *IssuerService) ListTicketsByEvent(ctx context.Context, eventID string) ([]models.Ticket, error) {
	return s.DB.ListTicketsByEvent(ctx, eventID)
}

func (s *IssuerService) ListTicketsByHolder(ctx context.Context, email string) ([]models.Ticket, error) {
	return s.DB.ListTicketsByHolder(ctx, email)
}
