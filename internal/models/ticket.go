package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	TicketID        string    `bun:"ticket_id,pk" json:"ticket_id"`
	EventID         string    `bun:"event_id,notnull" json:"event_id"`
	Tier            string    `bun:"tier,notnull" json:"tier"`
	HolderName      string    `bun:"holder_name" json:"holder_name"`
	HolderEmail     string    `bun:"holder_email" json:"holder_email"`
	PriceAtPurchase float64   `bun:"price_at_purchase" json:"price_at_purchase"`
	QRCode          []byte    `bun:"qr_code" json:"-"`
	IssuedAt        time.Time `bun:"issued_at,notnull" json:"issued_at"`
}

// HolderInfo is the purchaser identity captured at issuance. Immutable on the
// ticket afterwards.
type HolderInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
