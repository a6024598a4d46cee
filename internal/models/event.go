package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          string    `bun:"id,pk" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Description string    `bun:"description" json:"description,omitempty"`
	Venue       string    `bun:"venue" json:"venue,omitempty"`
	StartDate   time.Time `bun:"start_date,notnull" json:"start_date"`
	EndDate     time.Time `bun:"end_date,notnull" json:"end_date"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`

	Tiers []TierSeat `bun:"rel:has-many,join:id=event_id" json:"tiers,omitempty"`
}

// TierSeat is one seat tier of an event. Sold never exceeds Capacity and is
// only incremented by the issuer's guarded update.
type TierSeat struct {
	bun.BaseModel `bun:"table:tier_seats"`

	EventID  string  `bun:"event_id,pk" json:"event_id"`
	Tier     string  `bun:"tier,pk" json:"tier"`
	Capacity int     `bun:"capacity,notnull" json:"capacity"`
	Sold     int     `bun:"sold,notnull,default:0" json:"sold"`
	Price    float64 `bun:"price,notnull" json:"price"`
}

func (t *TierSeat) Available() int {
	return t.Capacity - t.Sold
}
