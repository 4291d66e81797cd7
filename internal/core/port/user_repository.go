package port

import (
	"context"
	"time"

	"github.com/Paige668/memory-coach/internal/core/domain"
)

// UserRepository exposes persistence behavior for users.
type UserRepository interface {
	// Create inserts a user row. When a row with the same email already
	// exists (concurrent first-time PIN requests), the existing row is
	// returned instead; the unique constraint on email guards the race.
	Create(ctx context.Context, user domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// StorePin records a freshly issued primary PIN challenge.
	StorePin(ctx context.Context, id int64, pinHash string, sentAt, expiresAt time.Time) error
	// SetPin stores a primary PIN hash with no expiry and resets the
	// failure counter. Used by in-session change and caregiver reset.
	SetPin(ctx context.Context, id int64, pinHash string) error
	// ConsumePin clears the primary PIN fields and resets the failure
	// counter, but only while the stored hash still equals expectedHash.
	// Returns false when another verification consumed the PIN first.
	ConsumePin(ctx context.Context, id int64, expectedHash string) (bool, error)

	IncrementPinFailed(ctx context.Context, id int64) (int, error)
	ResetPinFailed(ctx context.Context, id int64) error

	// SetSavedPin stores the quick-login credential and sets the remember flag.
	SetSavedPin(ctx context.Context, id int64, savedPinHash string) error
	// ClearSavedPin drops the quick-login credential and the remember flag together.
	ClearSavedPin(ctx context.Context, id int64) error

	UpdateProfile(ctx context.Context, user domain.User) error
}
