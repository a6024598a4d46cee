package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ms-ledger/internal/models"
)

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.Hash{},
	}
	return &Producer{Writer: writer}
}

// Publish writes a raw message to the given topic, keyed for partition
// affinity so events for one ticket stay ordered.
func (p *Producer) Publish(topic, key string, value []byte) error {
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

// PublishTicketIssued streams the issuance event after the transaction commits.
func (p *Producer) PublishTicketIssued(topic string, event models.TicketIssuedEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	fmt.Printf("Publishing to Kafka [%s]: %s\n", topic, string(msgBytes))

	return p.Publish(topic, event.TicketID, msgBytes)
}

// PublishCheckIn streams a recorded or reversed check-in.
func (p *Producer) PublishCheckIn(topic string, event models.CheckInEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	fmt.Printf("Publishing to Kafka [%s]: %s\n", topic, string(msgBytes))

	return p.Publish(topic, event.TicketID, msgBytes)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
