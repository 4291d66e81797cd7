package port

import (
	"context"

	"github.com/Paige668/memory-coach/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishPinIssued(ctx context.Context, event domain.PinIssuedEvent) error
	PublishReminderDelivered(ctx context.Context, event domain.ReminderDeliveredEvent) error
}
