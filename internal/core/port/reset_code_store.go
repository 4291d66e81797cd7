package port

import (
	"context"
	"time"
)

// ResetCode is a pending caregiver reset challenge for a single user.
type ResetCode struct {
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ResetCodeStore keeps at most one pending reset code per user, bounded by a
// TTL. Store overwrites any prior entry; Delete enforces single use.
type ResetCodeStore interface {
	Store(ctx context.Context, userID int64, code string, ttl time.Duration) error
	// Fetch returns repository.ErrNotFound when no live entry exists.
	Fetch(ctx context.Context, userID int64) (*ResetCode, error)
	Delete(ctx context.Context, userID int64) error
}
