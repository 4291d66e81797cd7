package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Paige668/memory-coach/internal/core/domain"
	"github.com/Paige668/memory-coach/internal/infra/config"
	"github.com/Paige668/memory-coach/internal/infra/security"
)

func newTestSessionManager(t *testing.T) *security.SessionManager {
	t.Helper()

	manager, err := security.NewSessionManager("unit-test-secret", "memora")
	if err != nil {
		t.Fatalf("NewSessionManager returned error: %v", err)
	}
	return manager
}

func newAuthService(t *testing.T, users *stubUserRepo, now time.Time) *AuthService {
	t.Helper()

	cfg := &config.AppConfig{}
	cfg.Session.TTL = 24 * time.Hour
	cfg.Session.RememberTTL = 180 * 24 * time.Hour

	svc := NewAuthService(cfg, users, newTestSessionManager(t), zap.NewNop())
	svc.WithClock(func() time.Time { return now })
	return svc
}

func userWithPin(t *testing.T, code string, expiresAt time.Time) *domain.User {
	t.Helper()

	hash, err := security.HashPin(code)
	if err != nil {
		t.Fatalf("HashPin returned error: %v", err)
	}

	return &domain.User{
		ID:           1,
		Email:        "user@example.com",
		PinHash:      &hash,
		PinExpiresAt: &expiresAt,
	}
}

func TestVerifyPinSuccessRememberMe(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	users := newStubUserRepo(userWithPin(t, "482913", now.Add(5*time.Minute)))
	svc := newAuthService(t, users, now)

	session, err := svc.VerifyPin(context.Background(), "User@Example.com", "482913", true)
	if err != nil {
		t.Fatalf("VerifyPin returned error: %v", err)
	}
	if session.Token == "" {
		t.Fatalf("expected a session token")
	}
	if session.UserID != 1 {
		t.Fatalf("expected user id 1, got %d", session.UserID)
	}
	if !session.HasSavedPin {
		t.Fatalf("expected saved pin flag in session")
	}

	stored := users.get(1)
	if stored.PinHash != nil {
		t.Fatalf("expected primary pin cleared after use")
	}
	if stored.PinFailedCount != 0 {
		t.Fatalf("expected failure counter reset, got %d", stored.PinFailedCount)
	}
	if !stored.HasSavedPin() {
		t.Fatalf("expected saved pin stored for remember_me")
	}

	userID, err := svc.ParseSessionToken(session.Token)
	if err != nil {
		t.Fatalf("ParseSessionToken returned error: %v", err)
	}
	if userID != 1 {
		t.Fatalf("expected token bound to user 1, got %d", userID)
	}
}

func TestVerifyPinSuccessWithoutRememberClearsSavedPin(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	user := userWithPin(t, "482913", now.Add(5*time.Minute))
	savedHash, err := security.HashPin("482913")
	if err != nil {
		t.Fatalf("HashPin returned error: %v", err)
	}
	user.RememberPin = true
	user.SavedPinHash = &savedHash

	users := newStubUserRepo(user)
	svc := newAuthService(t, users, now)

	session, err := svc.VerifyPin(context.Background(), "user@example.com", "482913", false)
	if err != nil {
		t.Fatalf("VerifyPin returned error: %v", err)
	}
	if session.HasSavedPin {
		t.Fatalf("expected no saved pin flag")
	}

	stored := users.get(1)
	if stored.RememberPin || stored.SavedPinHash != nil {
		t.Fatalf("expected saved pin cleared when remember_me is false")
	}
}

func TestVerifyPinWrongCodeIncrementsCounter(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	users := newStubUserRepo(userWithPin(t, "482913", now.Add(5*time.Minute)))
	svc := newAuthService(t, users, now)

	_, err := svc.VerifyPin(context.Background(), "user@example.com", "000000", false)
	if !errors.Is(err, ErrInvalidOrExpiredPin) {
		t.Fatalf("expected ErrInvalidOrExpiredPin, got %v", err)
	}

	stored := users.get(1)
	if stored.PinFailedCount != 1 {
		t.Fatalf("expected failure counter 1, got %d", stored.PinFailedCount)
	}
	if stored.PinHash == nil {
		t.Fatalf("expected pin hash retained after failed attempt")
	}
}

func TestVerifyPinExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	users := newStubUserRepo(userWithPin(t, "482913", now))
	svc := newAuthService(t, users, now)

	// Expiry boundary: a pin expiring exactly now is no longer usable.
	_, err := svc.VerifyPin(context.Background(), "user@example.com", "482913", false)
	if !errors.Is(err, ErrInvalidOrExpiredPin) {
		t.Fatalf("expected ErrInvalidOrExpiredPin, got %v", err)
	}

	if users.get(1).PinFailedCount != 1 {
		t.Fatalf("expected failure counted for expired pin")
	}
}

func TestVerifyPinUnknownUser(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	users := newStubUserRepo()
	svc := newAuthService(t, users, now)

	_, err := svc.VerifyPin(context.Background(), "missing@example.com", "482913", false)
	if !errors.Is(err, ErrInvalidOrExpiredPin) {
		t.Fatalf("expected ErrInvalidOrExpiredPin, got %v", err)
	}
}

func TestVerifyPinSingleUse(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	users := newStubUserRepo(userWithPin(t, "482913", now.Add(5*time.Minute)))
	svc := newAuthService(t, users, now)

	if _, err := svc.VerifyPin(context.Background(), "user@example.com", "482913", false); err != nil {
		t.Fatalf("first VerifyPin returned error: %v", err)
	}

	_, err := svc.VerifyPin(context.Background(), "user@example.com", "482913", false)
	if !errors.Is(err, ErrInvalidOrExpiredPin) {
		t.Fatalf("expected second use to fail with ErrInvalidOrExpiredPin, got %v", err)
	}
}

func TestQuickLoginSuccess(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	savedHash, err := security.HashPin("482913")
	if err != nil {
		t.Fatalf("HashPin returned error: %v", err)
	}
	pinHash, err := security.HashPin("111111")
	if err != nil {
		t.Fatalf("HashPin returned error: %v", err)
	}
	expires := now.Add(5 * time.Minute)
	user := &domain.User{
		ID:             1,
		Email:          "user@example.com",
		PinHash:        &pinHash,
		PinExpiresAt:   &expires,
		PinFailedCount: 2,
		RememberPin:    true,
		SavedPinHash:   &savedHash,
	}
	users := newStubUserRepo(user)
	svc := newAuthService(t, users, now)

	session, err := svc.QuickLogin(context.Background(), "user@example.com", "482913")
	if err != nil {
		t.Fatalf("QuickLogin returned error: %v", err)
	}
	if session.UserID != 1 {
		t.Fatalf("expected user id 1, got %d", session.UserID)
	}

	stored := users.get(1)
	if stored.PinFailedCount != 0 {
		t.Fatalf("expected failure counter reset, got %d", stored.PinFailedCount)
	}
	if stored.PinHash == nil || !stored.RememberPin {
		t.Fatalf("quick login must not touch the primary pin or remember flag")
	}
}

func TestQuickLoginNoSavedPin(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	savedHash, err := security.HashPin("482913")
	if err != nil {
		t.Fatalf("HashPin returned error: %v", err)
	}
	// Dangling hash without the remember flag is never honored.
	user := &domain.User{ID: 1, Email: "user@example.com", SavedPinHash: &savedHash}
	users := newStubUserRepo(user)
	svc := newAuthService(t, users, now)

	if _, err := svc.QuickLogin(context.Background(), "user@example.com", "482913"); !errors.Is(err, ErrNoSavedPin) {
		t.Fatalf("expected ErrNoSavedPin, got %v", err)
	}

	if _, err := svc.QuickLogin(context.Background(), "missing@example.com", "482913"); !errors.Is(err, ErrNoSavedPin) {
		t.Fatalf("expected ErrNoSavedPin for unknown user, got %v", err)
	}
}

func TestQuickLoginWrongPin(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	savedHash, err := security.HashPin("482913")
	if err != nil {
		t.Fatalf("HashPin returned error: %v", err)
	}
	user := &domain.User{ID: 1, Email: "user@example.com", RememberPin: true, SavedPinHash: &savedHash}
	users := newStubUserRepo(user)
	svc := newAuthService(t, users, now)

	if _, err := svc.QuickLogin(context.Background(), "user@example.com", "000000"); !errors.Is(err, ErrInvalidSavedPin) {
		t.Fatalf("expected ErrInvalidSavedPin, got %v", err)
	}
	if users.get(1).PinFailedCount != 1 {
		t.Fatalf("expected failure counted on wrong saved pin")
	}
}

func TestHasSavedPin(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	savedHash, err := security.HashPin("482913")
	if err != nil {
		t.Fatalf("HashPin returned error: %v", err)
	}
	users := newStubUserRepo(
		&domain.User{ID: 1, Email: "with@example.com", RememberPin: true, SavedPinHash: &savedHash},
		&domain.User{ID: 2, Email: "without@example.com", SavedPinHash: &savedHash},
	)
	svc := newAuthService(t, users, now)

	has, err := svc.HasSavedPin(context.Background(), "with@example.com")
	if err != nil {
		t.Fatalf("HasSavedPin returned error: %v", err)
	}
	if !has {
		t.Fatalf("expected saved pin for first user")
	}

	has, err = svc.HasSavedPin(context.Background(), "without@example.com")
	if err != nil {
		t.Fatalf("HasSavedPin returned error: %v", err)
	}
	if has {
		t.Fatalf("saved hash without remember flag must not count")
	}

	has, err = svc.HasSavedPin(context.Background(), "missing@example.com")
	if err != nil {
		t.Fatalf("HasSavedPin returned error: %v", err)
	}
	if has {
		t.Fatalf("expected false for unknown user")
	}
}
