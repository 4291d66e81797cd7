package port

import "context"

// Message is a rendered notification ready for delivery.
type Message struct {
	Subject string
	Body    string
}

// Notifier delivers a message to a recipient over a named channel. Channel
// identifiers are free-form strings interpreted by the implementation
// ("email", "telegram", ...). Delivery failures are returned synchronously;
// nothing here retries.
type Notifier interface {
	Send(ctx context.Context, channel, recipient string, msg Message) error
}
