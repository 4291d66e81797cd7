package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Paige668/memory-coach/internal/core/domain"
	"github.com/Paige668/memory-coach/internal/infra/security"
)

func TestSetPinStoresDirectCredential(t *testing.T) {
	expires := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	hash, err := security.HashPin("999999")
	if err != nil {
		t.Fatalf("HashPin returned error: %v", err)
	}
	users := newStubUserRepo(&domain.User{
		ID:             1,
		Email:          "user@example.com",
		PinHash:        &hash,
		PinExpiresAt:   &expires,
		PinFailedCount: 2,
	})
	svc := NewPinManagementService(users, zap.NewNop())

	if err := svc.SetPin(context.Background(), 1, "4321"); err != nil {
		t.Fatalf("SetPin returned error: %v", err)
	}

	stored := users.get(1)
	if stored.PinExpiresAt != nil {
		t.Fatalf("a directly set pin must not carry an expiry")
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
}

func TestSetPinFormat(t *testing.T) {
	users := newStubUserRepo(&domain.User{ID: 1, Email: "user@example.com"})
	svc := NewPinManagementService(users, zap.NewNop())

	for _, pin := range []string{"123", "123456789", "12a4", "", "12 34"} {
		if err := svc.SetPin(context.Background(), 1, pin); !errors.Is(err, security.ErrInvalidPinFormat) {
			t.Fatalf("expected ErrInvalidPinFormat for %q, got %v", pin, err)
		}
	}

	for _, pin := range []string{"1234", "12345678", "0000"} {
		if err := svc.SetPin(context.Background(), 1, pin); err != nil {
			t.Fatalf("expected %q accepted, got %v", pin, err)
		}
	}
}

func TestSetPinUnknownUser(t *testing.T) {
	svc := NewPinManagementService(newStubUserRepo(), zap.NewNop())

	if err := svc.SetPin(context.Background(), 404, "1234"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestVerifyCurrentPinMatch(t *testing.T) {
	hash, err := security.HashPin("4321")
	if err != nil {
		t.Fatalf("HashPin returned error: %v", err)
	}
	users := newStubUserRepo(&domain.User{ID: 1, Email: "user@example.com", PinHash: &hash, PinFailedCount: 2})
	svc := NewPinManagementService(users, zap.NewNop())

	check, err := svc.VerifyCurrentPin(context.Background(), 1, "4321")
	if err != nil {
		t.Fatalf("VerifyCurrentPin returned error: %v", err)
	}
	if !check.OK || check.NeedsReset {
		t.Fatalf("expected ok without reset hint, got %+v", check)
	}
	if users.get(1).PinFailedCount != 0 {
		t.Fatalf("expected failure counter reset on success")
	}
}

func TestVerifyCurrentPinMismatchSignalsReset(t *testing.T) {
	hash, err := security.HashPin("4321")
	if err != nil {
		t.Fatalf("HashPin returned error: %v", err)
	}
	users := newStubUserRepo(&domain.User{ID: 1, Email: "user@example.com", PinHash: &hash})
	svc := NewPinManagementService(users, zap.NewNop())

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		check, err := svc.VerifyCurrentPin(ctx, 1, "0000")
		if err != nil {
			t.Fatalf("VerifyCurrentPin %d returned error: %v", i, err)
		}
		if check.OK {
			t.Fatalf("expected mismatch on attempt %d", i)
		}
		wantReset := i >= 3
		if check.NeedsReset != wantReset {
			t.Fatalf("attempt %d: expected needs_reset=%v, got %v", i, wantReset, check.NeedsReset)
		}
	}

	if users.get(1).PinFailedCount != 3 {
		t.Fatalf("expected failure counter 3, got %d", users.get(1).PinFailedCount)
	}
}

func TestVerifyCurrentPinNoPinSet(t *testing.T) {
	users := newStubUserRepo(&domain.User{ID: 1, Email: "user@example.com"})
	svc := NewPinManagementService(users, zap.NewNop())

	check, err := svc.VerifyCurrentPin(context.Background(), 1, "4321")
	if err != nil {
		t.Fatalf("VerifyCurrentPin returned error: %v", err)
	}
	if check.OK {
		t.Fatalf("no stored pin can never verify")
	}
	if users.get(1).PinFailedCount != 1 {
		t.Fatalf("expected failure counted, got %d", users.get(1).PinFailedCount)
	}
}
