package report

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"ms-ledger/internal/models"
)

// Service handles read-only reporting queries for the dashboard.
type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// TierBreakdown contains capacity usage for a single tier of an event.
type TierBreakdown struct {
	Tier      string  `json:"tier"`
	Capacity  int     `json:"capacity"`
	Sold      int     `json:"sold"`
	Available int     `json:"available"`
	Price     float64 `json:"price"`
	Revenue   float64 `json:"revenue"`
}

// EventReport aggregates one event's issuance and check-in state.
type EventReport struct {
	EventID   string          `json:"event_id"`
	Name      string          `json:"name"`
	Total     int             `json:"total"`
	CheckedIn int             `json:"checked_in"`
	Pending   int             `json:"pending"`
	Tiers     []TierBreakdown `json:"tiers"`
}

// DailyIssuance contains issuance counts for a single day.
type DailyIssuance struct {
	Date   string `json:"date"`
	Issued int    `json:"issued"`
}

// GetEventReport builds the dashboard summary for one event.
func (s *Service) GetEventReport(ctx context.Context, eventID string) (*EventReport, error) {
	var event models.Event
	err := s.db.NewSelect().
		Model(&event).
		Where("id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, models.ErrUnknownEvent
	}

	var seats []models.TierSeat
	err = s.db.NewSelect().
		Model(&seats).
		Where("event_id = ?", eventID).
		Order("tier").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	report := EventReport{
		EventID: eventID,
		Name:    event.Name,
	}
	for _, seat := range seats {
		var revenue float64
		err = s.db.NewSelect().
			Model((*models.Ticket)(nil)).
			ColumnExpr("COALESCE(SUM(price_at_purchase), 0)").
			Where("event_id = ?", eventID).
			Where("tier = ?", seat.Tier).
			Scan(ctx, &revenue)
		if err != nil {
			return nil, err
		}

		report.Total += seat.Sold
		report.Tiers = append(report.Tiers, TierBreakdown{
			Tier:      seat.Tier,
			Capacity:  seat.Capacity,
			Sold:      seat.Sold,
			Available: seat.Available(),
			Price:     seat.Price,
			Revenue:   revenue,
		})
	}

	checkedIn, err := s.db.NewSelect().
		Model((*models.CheckInRecord)(nil)).
		Where("event_id = ?", eventID).
		Count(ctx)
	if err != nil {
		return nil, err
	}
	report.CheckedIn = checkedIn
	report.Pending = report.Total - checkedIn

	return &report, nil
}

// ListEventReports returns the summary for every event, newest first.
func (s *Service) ListEventReports(ctx context.Context) ([]EventReport, error) {
	var events []models.Event
	err := s.db.NewSelect().
		Model(&events).
		Order("start_date DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	reports := make([]EventReport, 0, len(events))
	for _, event := range events {
		report, err := s.GetEventReport(ctx, event.ID)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

// GetDailyIssuance returns per-day issued-ticket counts for an event over the
// trailing window.
func (s *Service) GetDailyIssuance(ctx context.Context, eventID string, days int) ([]DailyIssuance, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	var tickets []models.Ticket
	err := s.db.NewSelect().
		Model(&tickets).
		Column("issued_at").
		Where("event_id = ?", eventID).
		Where("issued_at >= ?", since).
		Order("issued_at").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]int)
	var order []string
	for _, ticket := range tickets {
		day := ticket.IssuedAt.UTC().Format("2006-01-02")
		if _, seen := byDay[day]; !seen {
			order = append(order, day)
		}
		byDay[day]++
	}

	daily := make([]DailyIssuance, 0, len(order))
	for _, day := range order {
		daily = append(daily, DailyIssuance{Date: day, Issued: byDay[day]})
	}
	return daily, nil
}
