package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Paige668/memory-coach/internal/core/domain"
	"github.com/Paige668/memory-coach/internal/core/port"
	"github.com/Paige668/memory-coach/internal/infra/config"
	"github.com/Paige668/memory-coach/internal/infra/logger"
	"github.com/Paige668/memory-coach/internal/infra/security"
	"github.com/Paige668/memory-coach/internal/repository"
)

const (
	defaultSessionTTL  = 24 * time.Hour
	defaultRememberTTL = 180 * 24 * time.Hour
)

// Session is an established authenticated session.
type Session struct {
	Token       string
	UserID      int64
	ExpiresAt   time.Time
	HasSavedPin bool
}

// AuthService verifies login codes and quick-login PINs and issues sessions.
type AuthService struct {
	cfg      *config.AppConfig
	users    port.UserRepository
	sessions *security.SessionManager
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(cfg *config.AppConfig, users port.UserRepository, sessions *security.SessionManager, log *zap.Logger) *AuthService {
	return &AuthService{
		cfg:      cfg,
		users:    users,
		sessions: sessions,
		logger:   log,
		now:      time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *AuthService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// VerifyPin checks an emailed login code and establishes a session. A verified
// code is single-use: the stored hash is cleared with a conditional write, and
// a concurrent verification that loses the race is rejected like any bad code.
func (s *AuthService) VerifyPin(ctx context.Context, address, code string, rememberMe bool) (*Session, error) {
	now := s.now().UTC()

	email, err := security.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidOrExpiredPin
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !user.PinUsableAt(now) {
		return nil, s.failPin(ctx, user, "code missing or expired")
	}

	match, err := security.VerifyPin(code, *user.PinHash)
	if err != nil {
		return nil, fmt.Errorf("verify login code: %w", err)
	}
	if !match {
		return nil, s.failPin(ctx, user, "code mismatch")
	}

	consumed, err := s.users.ConsumePin(ctx, user.ID, *user.PinHash)
	if err != nil {
		return nil, fmt.Errorf("consume login code: %w", err)
	}
	if !consumed {
		// Another request verified this code first.
		return nil, s.failPin(ctx, user, "code already consumed")
	}

	hasSaved := false
	if rememberMe {
		savedHash, err := security.HashPin(code)
		if err != nil {
			return nil, fmt.Errorf("hash saved pin: %w", err)
		}
		if err := s.users.SetSavedPin(ctx, user.ID, savedHash); err != nil {
			return nil, fmt.Errorf("save quick login pin: %w", err)
		}
		hasSaved = true
	} else {
		if err := s.users.ClearSavedPin(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("clear quick login pin: %w", err)
		}
	}

	session, err := s.establishSession(user.ID, rememberMe)
	if err != nil {
		return nil, err
	}
	session.HasSavedPin = hasSaved

	s.logger.Info("pin verified",
		zap.String("email", logger.MaskEmail(email)),
		zap.Bool("remember_me", rememberMe),
	)

	return session, nil
}

// QuickLogin authenticates with the saved quick-login PIN. This path never
// touches the primary login code fields.
func (s *AuthService) QuickLogin(ctx context.Context, address, savedPin string) (*Session, error) {
	email, err := security.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoSavedPin
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !user.HasSavedPin() {
		return nil, ErrNoSavedPin
	}

	match, err := security.VerifyPin(savedPin, *user.SavedPinHash)
	if err != nil {
		return nil, fmt.Errorf("verify saved pin: %w", err)
	}
	if !match {
		if _, err := s.users.IncrementPinFailed(ctx, user.ID); err != nil {
			s.logger.Warn("increment pin failed counter", zap.Error(err))
		}
		return nil, ErrInvalidSavedPin
	}

	if err := s.users.ResetPinFailed(ctx, user.ID); err != nil {
		s.logger.Warn("reset pin failed counter", zap.Error(err))
	}

	session, err := s.establishSession(user.ID, true)
	if err != nil {
		return nil, err
	}
	session.HasSavedPin = true

	s.logger.Info("quick login succeeded", zap.String("email", logger.MaskEmail(email)))

	return session, nil
}

// HasSavedPin reports whether the address can use quick login.
func (s *AuthService) HasSavedPin(ctx context.Context, address string) (bool, error) {
	email, err := security.NormalizeAddress(address)
	if err != nil {
		return false, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("lookup user: %w", err)
	}

	return user.HasSavedPin(), nil
}

// ParseSessionToken resolves a bearer token to the bound user id.
func (s *AuthService) ParseSessionToken(token string) (int64, error) {
	return s.sessions.Parse(token)
}

func (s *AuthService) failPin(ctx context.Context, user *domain.User, reason string) error {
	if _, err := s.users.IncrementPinFailed(ctx, user.ID); err != nil {
		s.logger.Warn("increment pin failed counter", zap.Error(err))
	}
	s.logger.Info("pin verification failed",
		zap.String("email", logger.MaskEmail(user.Email)),
		zap.String("reason", reason),
	)
	return ErrInvalidOrExpiredPin
}

func (s *AuthService) establishSession(userID int64, remember bool) (*Session, error) {
	ttl := defaultSessionTTL
	if s.cfg != nil && s.cfg.Session.TTL > 0 {
		ttl = s.cfg.Session.TTL
	}
	if remember {
		ttl = defaultRememberTTL
		if s.cfg != nil && s.cfg.Session.RememberTTL > 0 {
			ttl = s.cfg.Session.RememberTTL
		}
	}

	token, expiresAt, err := s.sessions.Issue(userID, ttl)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	return &Session{Token: token, UserID: userID, ExpiresAt: expiresAt}, nil
}
