package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Paige668/memory-coach/internal/core/port"
	"github.com/Paige668/memory-coach/internal/infra/security"
	"github.com/Paige668/memory-coach/internal/repository"
)

// needsResetThreshold is the failure count at which the caller is nudged
// toward the caregiver reset flow. A hint, not a lockout.
const needsResetThreshold = 3

// PinCheck is the outcome of verifying the current PIN in session.
type PinCheck struct {
	OK         bool
	NeedsReset bool
}

// PinManagementService handles in-session PIN changes and checks.
type PinManagementService struct {
	users  port.UserRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewPinManagementService constructs a PinManagementService.
func NewPinManagementService(users port.UserRepository, log *zap.Logger) *PinManagementService {
	return &PinManagementService{
		users:  users,
		logger: log,
		now:    time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *PinManagementService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// SetPin stores a new primary PIN for the user. The credential is a direct
// set: no expiry, failure counter back to zero.
func (s *PinManagementService) SetPin(ctx context.Context, userID int64, newPin string) error {
	if err := security.ValidatePinFormat(newPin); err != nil {
		return err
	}

	hash, err := security.HashPin(newPin)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}

	if err := s.users.SetPin(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("set pin: %w", err)
	}

	s.logger.Info("pin updated", zap.Int64("user_id", userID))

	return nil
}

// VerifyCurrentPin checks the supplied PIN against the stored primary hash.
// Mismatches bump the failure counter; NeedsReset turns on once the counter
// reaches the threshold.
func (s *PinManagementService) VerifyCurrentPin(ctx context.Context, userID int64, pin string) (*PinCheck, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !user.PinOutstanding() {
		count, err := s.users.IncrementPinFailed(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("increment pin failed counter: %w", err)
		}
		return &PinCheck{OK: false, NeedsReset: count >= needsResetThreshold}, nil
	}

	match, err := security.VerifyPin(pin, *user.PinHash)
	if err != nil {
		return nil, fmt.Errorf("verify pin: %w", err)
	}

	if !match {
		count, err := s.users.IncrementPinFailed(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("increment pin failed counter: %w", err)
		}
		return &PinCheck{OK: false, NeedsReset: count >= needsResetThreshold}, nil
	}

	if err := s.users.ResetPinFailed(ctx, userID); err != nil {
		return nil, fmt.Errorf("reset pin failed counter: %w", err)
	}

	return &PinCheck{OK: true}, nil
}
