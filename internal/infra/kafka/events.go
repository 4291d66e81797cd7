package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Paige668/memory-coach/internal/core/domain"
	"github.com/Paige668/memory-coach/internal/core/port"
	"github.com/Paige668/memory-coach/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType string, userID int64, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    strconv.FormatInt(userID, 10),
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishPinIssued publishes memora.pin.issued events.
func (p *EventPublisher) PublishPinIssued(ctx context.Context, event domain.PinIssuedEvent) error {
	payload := struct {
		UserID      int64          `json:"user_id"`
		MaskedEmail string         `json:"masked_email"`
		IssuedAt    time.Time      `json:"issued_at"`
		ExpiresAt   time.Time      `json:"expires_at"`
		NewUser     bool           `json:"new_user"`
		Metadata    map[string]any `json:"metadata,omitempty"`
	}{
		UserID:      event.UserID,
		MaskedEmail: event.MaskedEmail,
		IssuedAt:    event.IssuedAt.UTC(),
		ExpiresAt:   event.ExpiresAt.UTC(),
		NewUser:     event.NewUser,
		Metadata:    event.Metadata,
	}

	return p.publish(ctx, event.EventID, "memora.pin.issued", event.UserID, event.IssuedAt, payload)
}

// PublishReminderDelivered publishes memora.reminder.delivered events.
func (p *EventPublisher) PublishReminderDelivered(ctx context.Context, event domain.ReminderDeliveredEvent) error {
	payload := struct {
		ReminderID  int64          `json:"reminder_id"`
		UserID      int64          `json:"user_id"`
		Title       string         `json:"title"`
		Channels    []string       `json:"channels"`
		DeliveredAt time.Time      `json:"delivered_at"`
		NextRunAt   *time.Time     `json:"next_run_at,omitempty"`
		Metadata    map[string]any `json:"metadata,omitempty"`
	}{
		ReminderID:  event.ReminderID,
		UserID:      event.UserID,
		Title:       event.Title,
		Channels:    event.Channels,
		DeliveredAt: event.DeliveredAt.UTC(),
		NextRunAt:   event.NextRunAt,
		Metadata:    event.Metadata,
	}

	return p.publish(ctx, event.EventID, "memora.reminder.delivered", event.UserID, event.DeliveredAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
