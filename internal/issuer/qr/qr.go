package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/skip2/go-qrcode"

	"ms-ledger/internal/models"
)

// Payload is what a scanned code decodes to. It carries enough for the ledger
// to resolve the ticket offline, without a network round trip.
type Payload struct {
	TicketID string    `json:"ticket_id"`
	EventID  string    `json:"event_id"`
	Tier     string    `json:"tier"`
	IssuedAt time.Time `json:"issued_at"`
}

type QRGenerator struct {
	secret []byte
}

func NewQRGenerator(secret string) *QRGenerator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &QRGenerator{secret: hashed[:]}
}

// EncodePayload returns the encrypted, base64 string embedded in the QR code.
func (q *QRGenerator) EncodePayload(ticket models.Ticket) (string, error) {
	payload := Payload{
		TicketID: ticket.TicketID,
		EventID:  ticket.EventID,
		Tier:     ticket.Tier,
		IssuedAt: ticket.IssuedAt,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	return encryptAES(data, q.secret)
}

// GenerateImage renders the encoded payload as a PNG.
func (q *QRGenerator) GenerateImage(ticket models.Ticket) ([]byte, error) {
	encoded, err := q.EncodePayload(ticket)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(encoded, qrcode.Medium, 256)
}

// DecodePayload reverses EncodePayload for scanner submissions.
func (q *QRGenerator) DecodePayload(encoded string) (*Payload, error) {
	data, err := decryptAES(encoded, q.secret)
	if err != nil {
		return nil, err
	}

	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.TicketID == "" {
		return nil, errors.New("payload missing ticket_id")
	}
	return &payload, nil
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

func decryptAES(encoded string, key []byte) ([]byte, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, errors.New("ciphertext too short")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	iv := ciphertext[:aes.BlockSize]
	data := make([]byte, len(ciphertext)-aes.BlockSize)

	stream := cipher.NewCFBDecrypter(block, iv)
	stream.XORKeyStream(data, ciphertext[aes.BlockSize:])

	return data, nil
}
