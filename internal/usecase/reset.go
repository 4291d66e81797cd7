package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Paige668/memory-coach/internal/core/port"
	"github.com/Paige668/memory-coach/internal/infra/config"
	"github.com/Paige668/memory-coach/internal/infra/logger"
	"github.com/Paige668/memory-coach/internal/infra/security"
	"github.com/Paige668/memory-coach/internal/repository"
)

const defaultResetCodeTTL = 10 * time.Minute

// ResetService runs the caregiver-assisted PIN reset flow. The code goes to
// the caregiver address, never to the user, so a user who forgot their PIN
// needs their caregiver in the loop.
type ResetService struct {
	cfg      *config.AppConfig
	users    port.UserRepository
	codes    port.ResetCodeStore
	notifier port.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewResetService constructs a ResetService.
func NewResetService(cfg *config.AppConfig, users port.UserRepository, codes port.ResetCodeStore, notifier port.Notifier, log *zap.Logger) *ResetService {
	return &ResetService{
		cfg:      cfg,
		users:    users,
		codes:    codes,
		notifier: notifier,
		logger:   log,
		now:      time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *ResetService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// RequestReset generates a reset code, stores it with a TTL (replacing any
// pending one) and mails it to the caregiver.
func (s *ResetService) RequestReset(ctx context.Context, userID int64) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if user.CaregiverEmail == nil || *user.CaregiverEmail == "" {
		return ErrNoCaregiverAddress
	}

	code, err := security.GeneratePinCode()
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}

	ttl := s.resetCodeTTL()
	if err := s.codes.Store(ctx, userID, code, ttl); err != nil {
		return fmt.Errorf("store reset code: %w", err)
	}

	msg := port.Message{
		Subject: resetMessageSubject,
		Body:    fmt.Sprintf("A PIN reset was requested. The reset code is %s. It expires in %d minutes.", code, int(ttl.Minutes())),
	}
	if err := s.notifier.Send(ctx, notificationChannel, *user.CaregiverEmail, msg); err != nil {
		s.logger.Error("reset code delivery failed",
			zap.Int64("user_id", userID),
			zap.String("caregiver", logger.MaskEmail(*user.CaregiverEmail)),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	s.logger.Info("reset code sent",
		zap.Int64("user_id", userID),
		zap.String("caregiver", logger.MaskEmail(*user.CaregiverEmail)),
	)

	return nil
}

// ConfirmReset validates the caregiver code and sets the new primary PIN.
// The pending entry is deleted on success; a code is good for one reset.
func (s *ResetService) ConfirmReset(ctx context.Context, userID int64, code, newPin string) error {
	now := s.now().UTC()

	entry, err := s.codes.Fetch(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCodeExpired
		}
		return fmt.Errorf("fetch reset code: %w", err)
	}

	if now.After(entry.ExpiresAt) {
		return ErrCodeExpired
	}

	if subtle.ConstantTimeCompare([]byte(entry.Code), []byte(code)) != 1 {
		return ErrInvalidCode
	}

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

	if err := s.codes.Delete(ctx, userID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("delete reset code failed", zap.Int64("user_id", userID), zap.Error(err))
	}

	s.logger.Info("pin reset confirmed", zap.Int64("user_id", userID))

	return nil
}

func (s *ResetService) resetCodeTTL() time.Duration {
	if s.cfg != nil && s.cfg.Pin.ResetCodeTTL > 0 {
		return s.cfg.Pin.ResetCodeTTL
	}
	return defaultResetCodeTTL
}
