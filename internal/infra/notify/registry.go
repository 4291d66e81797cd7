package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Paige668/memory-coach/internal/core/port"
)

// ChannelSender delivers a rendered message to one recipient on one channel.
type ChannelSender interface {
	Send(ctx context.Context, recipient string, msg port.Message) error
}

// Registry routes messages to the sender registered for a channel. Channels
// without a sender (device-local ones like "alarm") are logged and skipped so
// a reminder configured for them never fails delivery.
type Registry struct {
	senders map[string]ChannelSender
	logger  *zap.Logger
}

// NewRegistry constructs an empty channel registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		senders: make(map[string]ChannelSender),
		logger:  logger,
	}
}

// Register binds a sender to a channel name, replacing any prior binding.
func (r *Registry) Register(channel string, sender ChannelSender) {
	r.senders[channel] = sender
}

// Send delivers the message over the named channel.
func (r *Registry) Send(ctx context.Context, channel, recipient string, msg port.Message) error {
	sender, ok := r.senders[channel]
	if !ok {
		r.logger.Debug("no sender registered for channel, skipping",
			zap.String("channel", channel),
		)
		return nil
	}

	if err := sender.Send(ctx, recipient, msg); err != nil {
		return fmt.Errorf("channel %s: %w", channel, err)
	}

	return nil
}

var _ port.Notifier = (*Registry)(nil)
