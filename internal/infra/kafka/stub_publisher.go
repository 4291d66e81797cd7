package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Paige668/memory-coach/internal/core/domain"
	"github.com/Paige668/memory-coach/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType string, userID int64, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.Int64("user_id", userID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishPinIssued logs memora.pin.issued events.
func (p *StubPublisher) PublishPinIssued(_ context.Context, event domain.PinIssuedEvent) error {
	payload := map[string]any{
		"user_id":      event.UserID,
		"masked_email": event.MaskedEmail,
		"issued_at":    event.IssuedAt,
		"expires_at":   event.ExpiresAt,
		"new_user":     event.NewUser,
		"metadata":     event.Metadata,
	}
	p.logEvent("memora.pin.issued", event.UserID, event.IssuedAt, payload)
	return nil
}

// PublishReminderDelivered logs memora.reminder.delivered events.
func (p *StubPublisher) PublishReminderDelivered(_ context.Context, event domain.ReminderDeliveredEvent) error {
	payload := map[string]any{
		"reminder_id":  event.ReminderID,
		"user_id":      event.UserID,
		"title":        event.Title,
		"channels":     event.Channels,
		"delivered_at": event.DeliveredAt,
		"next_run_at":  event.NextRunAt,
		"metadata":     event.Metadata,
	}
	p.logEvent("memora.reminder.delivered", event.UserID, event.DeliveredAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
