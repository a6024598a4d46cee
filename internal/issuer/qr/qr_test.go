package qr_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-ledger/internal/issuer/qr"
	"ms-ledger/internal/models"
)

func sampleTicket() models.Ticket {
	return models.Ticket{
		TicketID:        "TKT-evt1-VIP-000001",
		EventID:         "evt1",
		Tier:            "vip",
		HolderName:      "Alice Wonderland",
		HolderEmail:     "alice@example.com",
		PriceAtPurchase: 250.0,
		IssuedAt:        time.Now().UTC().Truncate(time.Second),
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	gen := qr.NewQRGenerator("test-secret-key")
	ticket := sampleTicket()

	encoded, err := gen.EncodePayload(ticket)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	payload, err := gen.DecodePayload(encoded)
	require.NoError(t, err)

	assert.Equal(t, ticket.TicketID, payload.TicketID)
	assert.Equal(t, ticket.EventID, payload.EventID)
	assert.Equal(t, ticket.Tier, payload.Tier)
	assert.True(t, ticket.IssuedAt.Equal(payload.IssuedAt))
}

func TestDecodeWithWrongSecret(t *testing.T) {
	gen := qr.NewQRGenerator("test-secret-key")
	other := qr.NewQRGenerator("another-secret")

	encoded, err := gen.EncodePayload(sampleTicket())
	require.NoError(t, err)

	_, err = other.DecodePayload(encoded)
	assert.Error(t, err, "decoding with the wrong secret must fail")
}

func TestDecodeGarbage(t *testing.T) {
	gen := qr.NewQRGenerator("test-secret-key")

	_, err := gen.DecodePayload("not-a-valid-payload")
	assert.Error(t, err)

	_, err = gen.DecodePayload("")
	assert.Error(t, err)
}

func TestGenerateImage(t *testing.T) {
	gen := qr.NewQRGenerator("test-secret-key")

	png, err := gen.GenerateImage(sampleTicket())
	require.NoError(t, err)
	assert.NotEmpty(t, png)

	// PNG magic bytes
	require.Greater(t, len(png), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
