package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Paige668/memory-coach/internal/core/domain"
	"github.com/Paige668/memory-coach/internal/core/port"
	"github.com/Paige668/memory-coach/internal/infra/config"
	"github.com/Paige668/memory-coach/internal/infra/logger"
	"github.com/Paige668/memory-coach/internal/infra/security"
	"github.com/Paige668/memory-coach/internal/repository"
)

const (
	defaultPinTTL        = 10 * time.Minute
	pinSendRateScope     = "pin_send"
	notificationChannel  = "email"
	pinMessageSubject    = "Your login code"
	resetMessageSubject  = "PIN reset code"
	remindMessageSubject = "Reminder"
)

// ErrInvalidAddress mirrors security.ErrInvalidAddress for callers of this package.
var ErrInvalidAddress = security.ErrInvalidAddress

// PinService issues short-lived login codes to users by email.
type PinService struct {
	cfg        *config.AppConfig
	users      port.UserRepository
	rateLimits port.RateLimitStore
	notifier   port.Notifier
	events     port.EventPublisher
	logger     *zap.Logger
	now        func() time.Time
}

// NewPinService constructs a PinService.
func NewPinService(cfg *config.AppConfig, users port.UserRepository, rateLimits port.RateLimitStore, notifier port.Notifier, events port.EventPublisher, log *zap.Logger) *PinService {
	return &PinService{
		cfg:        cfg,
		users:      users,
		rateLimits: rateLimits,
		notifier:   notifier,
		events:     events,
		logger:     log,
		now:        time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *PinService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// IssuePin generates a login code for the address, creating the user on first
// contact, and delivers the code by email. Validation happens before any
// mutation; a delivery failure is reported after the code is already stored so
// the user can retry verification of a code that did arrive late.
func (s *PinService) IssuePin(ctx context.Context, address, caregiverAddress string) error {
	now := s.now().UTC()

	email, err := security.NormalizeAddress(address)
	if err != nil {
		return err
	}

	var caregiver *string
	if caregiverAddress != "" {
		normalized, err := security.NormalizeAddress(caregiverAddress)
		if err != nil {
			return err
		}
		caregiver = &normalized
	}

	if err := s.enforceSendRateLimit(ctx, email, now); err != nil {
		return err
	}

	user, newUser, err := s.findOrCreate(ctx, email, caregiver, now)
	if err != nil {
		return err
	}

	code, err := security.GeneratePinCode()
	if err != nil {
		return fmt.Errorf("generate login code: %w", err)
	}

	hash, err := security.HashPin(code)
	if err != nil {
		return fmt.Errorf("hash login code: %w", err)
	}

	ttl := s.pinTTL()
	expiresAt := now.Add(ttl)

	if err := s.users.StorePin(ctx, user.ID, hash, now, expiresAt); err != nil {
		return fmt.Errorf("store login code: %w", err)
	}

	if err := s.events.PublishPinIssued(ctx, domain.PinIssuedEvent{
		EventID:     uuid.NewString(),
		UserID:      user.ID,
		MaskedEmail: logger.MaskEmail(email),
		IssuedAt:    now,
		ExpiresAt:   expiresAt,
		NewUser:     newUser,
	}); err != nil {
		s.logger.Warn("publish pin issued event failed", zap.Error(err))
	}

	msg := port.Message{
		Subject: pinMessageSubject,
		Body:    fmt.Sprintf("Your login code is %s. It expires in %d minutes.", code, int(ttl.Minutes())),
	}
	if err := s.notifier.Send(ctx, notificationChannel, email, msg); err != nil {
		s.logger.Error("login code delivery failed",
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	s.logger.Info("login code issued",
		zap.String("email", logger.MaskEmail(email)),
		zap.Bool("new_user", newUser),
		zap.Time("expires_at", expiresAt),
	)

	return nil
}

func (s *PinService) findOrCreate(ctx context.Context, email string, caregiver *string, now time.Time) (*domain.User, bool, error) {
	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return user, false, nil
	case errors.Is(err, repository.ErrNotFound):
	default:
		return nil, false, fmt.Errorf("lookup user: %w", err)
	}

	created, err := s.users.Create(ctx, domain.User{
		Email:          email,
		CaregiverEmail: caregiver,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}

	return created, true, nil
}

func (s *PinService) pinTTL() time.Duration {
	if s.cfg != nil && s.cfg.Pin.TTL > 0 {
		return s.cfg.Pin.TTL
	}
	return defaultPinTTL
}

func (s *PinService) enforceSendRateLimit(ctx context.Context, email string, now time.Time) error {
	if s.rateLimits == nil || s.cfg == nil {
		return nil
	}

	limit := s.cfg.Pin.SendMaxAttempts
	if limit <= 0 {
		return nil
	}

	window := s.cfg.Pin.SendWindow
	if window <= 0 {
		window = time.Hour
	}

	storageKey := fmt.Sprintf("%s:%s", pinSendRateScope, email)

	if err := s.rateLimits.TrimWindow(ctx, storageKey, window, now); err != nil {
		s.logger.Warn("pin send rate limit trim failed", zap.Error(err))
		return nil
	}

	count, err := s.rateLimits.CountAttempts(ctx, storageKey, window, now)
	if err != nil {
		s.logger.Warn("pin send rate limit count failed", zap.Error(err))
		return nil
	}

	if count >= limit {
		retryAfter := time.Duration(0)
		if oldest, ok, err := s.rateLimits.OldestAttempt(ctx, storageKey, window, now); err == nil && ok {
			reset := oldest.Add(window)
			if reset.After(now) {
				retryAfter = reset.Sub(now)
			}
		} else if err != nil {
			s.logger.Warn("pin send rate limit oldest lookup failed", zap.Error(err))
		}
		return &RateLimitExceededError{Scope: pinSendRateScope, RetryAfter: retryAfter}
	}

	if err := s.rateLimits.RecordAttempt(ctx, storageKey, now); err != nil {
		s.logger.Warn("pin send rate limit record failed", zap.Error(err))
	}

	return nil
}
