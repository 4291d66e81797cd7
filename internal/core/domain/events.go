package domain

import "time"

// PinIssuedEvent represents the payload for memora.pin.issued messages.
type PinIssuedEvent struct {
	EventID     string
	UserID      int64
	MaskedEmail string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	NewUser     bool
	Metadata    map[string]any
}

// ReminderDeliveredEvent represents the payload for memora.reminder.delivered messages.
type ReminderDeliveredEvent struct {
	EventID     string
	ReminderID  int64
	UserID      int64
	Title       string
	Channels    []string
	DeliveredAt time.Time
	NextRunAt   *time.Time
	Metadata    map[string]any
}
