package catalog

import (
	"context"
	"fmt"
	"time"

	"ms-ledger/internal/models"
	"ms-ledger/internal/utils"
)

type CatalogDBLayer interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	GetTier(ctx context.Context, eventID, tier string) (*models.TierSeat, error)
	CreateEvent(ctx context.Context, event models.Event, tiers []models.TierSeat) error
	UpdateTierPrice(ctx context.Context, eventID, tier string, price float64) error
	CountTicketsForEvent(ctx context.Context, eventID string) (int, error)
	DeleteEvent(ctx context.Context, id string) error
}

// CatalogService is the source of truth for event tier capacities and prices.
// It never mutates sold counters; only the issuer does that.
type CatalogService struct {
	DB CatalogDBLayer
}

func NewCatalogService(db CatalogDBLayer) *CatalogService {
	return &CatalogService{DB: db}
}

type CreateEventInput struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Venue       string            `json:"venue"`
	StartDate   time.Time         `json:"start_date"`
	EndDate     time.Time         `json:"end_date"`
	Tiers       map[string]TierIn `json:"tiers"`
}

type TierIn struct {
	Capacity int     `json:"capacity"`
	Price    float64 `json:"price"`
}

func (s *CatalogService) CreateEvent(ctx context.Context, in CreateEventInput) (*models.Event, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("event name is required")
	}
	if len(in.Tiers) == 0 {
		return nil, fmt.Errorf("at least one tier is required")
	}
	for name, tier := range in.Tiers {
		if tier.Capacity < 0 {
			return nil, fmt.Errorf("tier %s has negative capacity", name)
		}
		if tier.Price < 0 {
			return nil, fmt.Errorf("tier %s has negative price", name)
		}
	}

	event := models.Event{
		ID:          utils.EventID(),
		Name:        in.Name,
		Description: in.Description,
		Venue:       in.Venue,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		CreatedAt:   time.Now().UTC(),
	}

	tiers := make([]models.TierSeat, 0, len(in.Tiers))
	for name, tier := range in.Tiers {
		tiers = append(tiers, models.TierSeat{
			EventID:  event.ID,
			Tier:     name,
			Capacity: tier.Capacity,
			Price:    tier.Price,
		})
	}

	if err := s.DB.CreateEvent(ctx, event, tiers); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	event.Tiers = tiers
	return &event, nil
}

func (s *CatalogService) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	return s.DB.GetEvent(ctx, eventID)
}

func (s *CatalogService) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.DB.ListEvents(ctx)
}

func (s *CatalogService) GetTierCapacity(ctx context.Context, eventID, tier string) (int, error) {
	seat, err := s.DB.GetTier(ctx, eventID, tier)
	if err != nil {
		return 0, err
	}
	return seat.Capacity, nil
}

// GetAvailableSeats returns capacity minus sold. Never negative: sold is only
// moved by the issuer's guarded update.
func (s *CatalogService) GetAvailableSeats(ctx context.Context, eventID, tier string) (int, error) {
	seat, err := s.DB.GetTier(ctx, eventID, tier)
	if err != nil {
		return 0, err
	}
	return seat.Available(), nil
}

// UpdateTierPrice changes the price for future issuance only; already-issued
// tickets keep their snapshot.
func (s *CatalogService) UpdateTierPrice(ctx context.Context, eventID, tier string, price float64) error {
	if price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	return s.DB.UpdateTierPrice(ctx, eventID, tier, price)
}

func (s *CatalogService) DeleteEvent(ctx context.Context, eventID string) error {
	count, err := s.DB.CountTicketsForEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to count tickets: %w", err)
	}
	if count > 0 {
		return models.ErrEventHasTickets
	}
	return s.DB.DeleteEvent(ctx, eventID)
}
