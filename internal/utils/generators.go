package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TicketID builds the deterministic ticket identifier for the seq-th ticket
// of an event tier. Uniqueness comes from the (event, tier, seq) triple, where
// seq is the post-increment sold counter taken inside the issuing transaction.
// No random suffix, so no birthday-bound collisions at any scale.
func TicketID(eventID, tier string, seq int) string {
	return fmt.Sprintf("TKT-%s-%s-%06d", eventID, strings.ToUpper(tier), seq)
}

// AuditID identifies one append-only audit row.
func AuditID() string {
	return "aud_" + uuid.New().String()
}

// EventID generates an identifier for a newly created event.
func EventID() string {
	return "evt_" + uuid.New().String()
}
