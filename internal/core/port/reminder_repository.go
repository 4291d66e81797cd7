package port

import (
	"context"
	"time"

	"github.com/Paige668/memory-coach/internal/core/domain"
)

// ReminderRepository exposes persistence behavior for reminders.
// All single-row operations are scoped to the owning user; rows belonging to
// another user surface as repository.ErrNotFound.
type ReminderRepository interface {
	Create(ctx context.Context, reminder domain.Reminder) (*domain.Reminder, error)
	GetByID(ctx context.Context, id, userID int64) (*domain.Reminder, error)
	Update(ctx context.Context, reminder domain.Reminder) error
	Delete(ctx context.Context, id, userID int64) error
	ListByUser(ctx context.Context, userID int64) ([]domain.Reminder, error)
	// ListDue returns active reminders whose next run time is at or before
	// the reference instant, ordered oldest first.
	ListDue(ctx context.Context, reference time.Time, limit int) ([]domain.Reminder, error)
}
