package usecase

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidOrExpiredPin indicates the presented login code cannot be accepted.
	// The same error covers unknown users, missing codes, mismatches and expiry so
	// the response does not reveal which condition failed.
	ErrInvalidOrExpiredPin = errors.New("invalid or expired pin")
	// ErrNoSavedPin indicates the user has no quick-login credential stored.
	ErrNoSavedPin = errors.New("no saved pin")
	// ErrInvalidSavedPin indicates the quick-login credential does not match.
	ErrInvalidSavedPin = errors.New("invalid saved pin")
	// ErrNoCaregiverAddress indicates the user has no caregiver email to send a reset code to.
	ErrNoCaregiverAddress = errors.New("no caregiver address on file")
	// ErrCodeExpired indicates there is no live reset code for the user.
	ErrCodeExpired = errors.New("reset code expired")
	// ErrInvalidCode indicates the supplied reset code does not match the pending one.
	ErrInvalidCode = errors.New("invalid reset code")
	// ErrDeliveryFailed indicates the notification could not be delivered after
	// state was already committed.
	ErrDeliveryFailed = errors.New("notification delivery failed")
	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrReminderNotFound covers both missing reminders and reminders owned by
	// another user, so existence never leaks across accounts.
	ErrReminderNotFound = errors.New("reminder not found")
	// ErrInvalidInput indicates a reminder payload failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidChannels indicates the reminder channel list is missing or malformed.
	ErrInvalidChannels = errors.New("invalid channels")
)

// RateLimitExceededError signals that an operation was rejected by a sliding window limit.
type RateLimitExceededError struct {
	Scope      string
	RetryAfter time.Duration
}

func (e *RateLimitExceededError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded for %s, retry after %s", e.Scope, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded for %s", e.Scope)
}
