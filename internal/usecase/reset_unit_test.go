package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Paige668/memory-coach/internal/core/domain"
	"github.com/Paige668/memory-coach/internal/core/port"
	"github.com/Paige668/memory-coach/internal/infra/config"
	"github.com/Paige668/memory-coach/internal/infra/security"
)

func newResetService(users *stubUserRepo, codes *stubResetCodeStore, notifier *stubNotifier, now time.Time) *ResetService {
	cfg := &config.AppConfig{}
	cfg.Pin.ResetCodeTTL = 10 * time.Minute

	svc := NewResetService(cfg, users, codes, notifier, zap.NewNop())
	svc.WithClock(func() time.Time { return now })
	return svc
}

func caregiverUser() *domain.User {
	caregiver := "care@example.com"
	return &domain.User{ID: 1, Email: "user@example.com", CaregiverEmail: &caregiver}
}

func TestRequestResetSendsCodeToCaregiver(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	users := newStubUserRepo(caregiverUser())
	codes := newStubResetCodeStore()
	notifier := &stubNotifier{}
	svc := newResetService(users, codes, notifier, now)

	if err := svc.RequestReset(context.Background(), 1); err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}

	entry, err := codes.Fetch(context.Background(), 1)
	if err != nil {
		t.Fatalf("expected stored reset code: %v", err)
	}
	if len(entry.Code) != security.PinCodeLength {
		t.Fatalf("expected %d-digit code, got %q", security.PinCodeLength, entry.Code)
	}

	msgs := notifier.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
	if msgs[0].Recipient != "care@example.com" {
		t.Fatalf("reset code must go to the caregiver, got %s", msgs[0].Recipient)
	}
	if !strings.Contains(msgs[0].Msg.Body, entry.Code) {
		t.Fatalf("message body must carry the code")
	}
}

func TestRequestResetNoCaregiver(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	users := newStubUserRepo(&domain.User{ID: 1, Email: "user@example.com"})
	codes := newStubResetCodeStore()
	svc := newResetService(users, codes, &stubNotifier{}, now)

	if err := svc.RequestReset(context.Background(), 1); !errors.Is(err, ErrNoCaregiverAddress) {
		t.Fatalf("expected ErrNoCaregiverAddress, got %v", err)
	}
	if _, err := codes.Fetch(context.Background(), 1); err == nil {
		t.Fatalf("no code may be stored without a caregiver")
	}
}

func TestRequestResetOverwritesPending(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	users := newStubUserRepo(caregiverUser())
	codes := newStubResetCodeStore()
	codes.put(1, port.ResetCode{Code: "111111", CreatedAt: now.Add(-time.Minute), ExpiresAt: now.Add(9 * time.Minute)})
	svc := newResetService(users, codes, &stubNotifier{}, now)

	if err := svc.RequestReset(context.Background(), 1); err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}

	entry, err := codes.Fetch(context.Background(), 1)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if entry.Code == "111111" {
		t.Fatalf("expected the pending code replaced")
	}
}

func TestRequestResetDeliveryFailed(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	users := newStubUserRepo(caregiverUser())
	svc := newResetService(users, newStubResetCodeStore(), &stubNotifier{err: errors.New("smtp down")}, now)

	if err := svc.RequestReset(context.Background(), 1); !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
}

func TestConfirmResetSuccess(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	oldExpiry := now.Add(-time.Hour)
	oldHash, err := security.HashPin("999999")
	if err != nil {
		t.Fatalf("HashPin returned error: %v", err)
	}
	caregiver := "care@example.com"
	users := newStubUserRepo(&domain.User{
		ID:             1,
		Email:          "user@example.com",
		CaregiverEmail: &caregiver,
		PinHash:        &oldHash,
		PinExpiresAt:   &oldExpiry,
		PinFailedCount: 3,
	})
	codes := newStubResetCodeStore()
	codes.put(1, port.ResetCode{Code: "654321", CreatedAt: now.Add(-time.Minute), ExpiresAt: now.Add(9 * time.Minute)})
	svc := newResetService(users, codes, &stubNotifier{}, now)

	if err := svc.ConfirmReset(context.Background(), 1, "654321", "4321"); err != nil {
		t.Fatalf("ConfirmReset returned error: %v", err)
	}

	stored := users.get(1)
	if stored.PinExpiresAt != nil {
		t.Fatalf("a reset pin must not carry an expiry")
	}
	if stored.PinFailedCount != 0 {
		t.Fatalf("expected failure counter reset, got %d", stored.PinFailedCount)
	}
	match, err := security.VerifyPin("4321", *stored.PinHash)
	if err != nil {
		t.Fatalf("VerifyPin returned error: %v", err)
	}
	if !match {
		t.Fatalf("stored hash does not match new pin")
	}

	if _, err := codes.Fetch(context.Background(), 1); err == nil {
		t.Fatalf("expected the code deleted after use")
	}
}

func TestConfirmResetExpiredOrMissing(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	users := newStubUserRepo(caregiverUser())
	codes := newStubResetCodeStore()
	svc := newResetService(users, codes, &stubNotifier{}, now)

	if err := svc.ConfirmReset(context.Background(), 1, "654321", "4321"); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired for missing entry, got %v", err)
	}

	codes.put(1, port.ResetCode{Code: "654321", CreatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(-time.Minute)})
	if err := svc.ConfirmReset(context.Background(), 1, "654321", "4321"); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired for expired entry, got %v", err)
	}
}

func TestConfirmResetWrongCode(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	users := newStubUserRepo(caregiverUser())
	codes := newStubResetCodeStore()
	codes.put(1, port.ResetCode{Code: "654321", CreatedAt: now, ExpiresAt: now.Add(10 * time.Minute)})
	svc := newResetService(users, codes, &stubNotifier{}, now)

	if err := svc.ConfirmReset(context.Background(), 1, "111111", "4321"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
	if _, err := codes.Fetch(context.Background(), 1); err != nil {
		t.Fatalf("a wrong code must not consume the entry: %v", err)
	}
}

func TestConfirmResetBadPinFormat(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	users := newStubUserRepo(caregiverUser())
	codes := newStubResetCodeStore()
	codes.put(1, port.ResetCode{Code: "654321", CreatedAt: now, ExpiresAt: now.Add(10 * time.Minute)})
	svc := newResetService(users, codes, &stubNotifier{}, now)

	if err := svc.ConfirmReset(context.Background(), 1, "654321", "12"); !errors.Is(err, security.ErrInvalidPinFormat) {
		t.Fatalf("expected ErrInvalidPinFormat, got %v", err)
	}
	if users.get(1).PinHash != nil {
		t.Fatalf("pin must not change on validation failure")
	}
}
