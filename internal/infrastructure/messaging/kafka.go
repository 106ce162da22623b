// Package messaging delivers outbox events to Kafka.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"garageflow/internal/infrastructure/storage/postgres"
	"garageflow/pkg/logger"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Envelope is the JSON value written to the topic.
type Envelope struct {
	ID            string          `json:"id"`
	GarageID      string          `json:"garageId"`
	AggregateType string          `json:"aggregateType"`
	AggregateID   string          `json:"aggregateId"`
	EventType     string          `json:"eventType"`
	OccurredAt    time.Time       `json:"occurredAt"`
	Payload       json.RawMessage `json:"payload"`
}

// KafkaPublisher implements postgres.OutboxHandler. Messages are keyed by
// aggregate so events of one document stay ordered within a partition.
type KafkaPublisher struct {
	w     MessageWriter
	topic string
}

var _ postgres.OutboxHandler = (*KafkaPublisher)(nil)

// NewWriter builds a synchronous writer; the relay needs the delivery result
// before it marks a row published.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

// NewKafkaPublisher creates a publisher writing to topic.
func NewKafkaPublisher(w MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{w: w, topic: topic}
}

// Handle writes one outbox message.
func (p *KafkaPublisher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	value, err := json.Marshal(Envelope{
		ID:            msg.ID.String(),
		GarageID:      msg.GarageID.String(),
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID.String(),
		EventType:     msg.EventType,
		OccurredAt:    msg.CreatedAt,
		Payload:       json.RawMessage(msg.Payload),
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	err = p.w.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(msg.AggregateID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(msg.EventType)},
			{Key: "garage_id", Value: []byte(msg.GarageID.String())},
		},
	})
	if err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() {
	if err := p.w.Close(); err != nil {
		logger.Error(context.Background(), "close kafka writer", "error", err)
	}
}

// LogHandler logs messages instead of delivering them. Used when no broker is
// configured.
type LogHandler struct{}

// Handle implements postgres.OutboxHandler.
func (LogHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	logger.Info(ctx, "outbox event",
		"event_type", msg.EventType,
		"aggregate_type", msg.AggregateType,
		"aggregate_id", msg.AggregateID,
		"garage_id", msg.GarageID)
	return nil
}
