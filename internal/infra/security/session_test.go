package security

import (
	"errors"
	"testing"
	"time"
)

func TestSessionIssueAndParse(t *testing.T) {
	manager, err := NewSessionManager("test-secret", "memora")
	if err != nil {
		t.Fatalf("NewSessionManager returned error: %v", err)
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	manager.WithClock(func() time.Time { return now })

	token, expiresAt, err := manager.Issue(42, 24*time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if !expiresAt.Equal(now.Add(24 * time.Hour)) {
		t.Fatalf("unexpected expiry %v", expiresAt)
	}

	userID, err := manager.Parse(token)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if userID != 42 {
		t.Fatalf("expected user 42, got %d", userID)
	}
}

func TestSessionExpired(t *testing.T) {
	manager, err := NewSessionManager("test-secret", "memora")
	if err != nil {
		t.Fatalf("NewSessionManager returned error: %v", err)
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	manager.WithClock(func() time.Time { return now })

	token, _, err := manager.Issue(42, time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	manager.WithClock(func() time.Time { return now.Add(2 * time.Hour) })

	if _, err := manager.Parse(token); !errors.Is(err, ErrExpiredSessionToken) {
		t.Fatalf("expected ErrExpiredSessionToken, got %v", err)
	}
}

func TestSessionWrongSecret(t *testing.T) {
	issuer, err := NewSessionManager("secret-a", "memora")
	if err != nil {
		t.Fatalf("NewSessionManager returned error: %v", err)
	}
	verifier, err := NewSessionManager("secret-b", "memora")
	if err != nil {
		t.Fatalf("NewSessionManager returned error: %v", err)
	}

	token, _, err := issuer.Issue(42, time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := verifier.Parse(token); !errors.Is(err, ErrInvalidSessionToken) {
		t.Fatalf("expected ErrInvalidSessionToken, got %v", err)
	}
}

func TestSessionGarbageToken(t *testing.T) {
	manager, err := NewSessionManager("test-secret", "memora")
	if err != nil {
		t.Fatalf("NewSessionManager returned error: %v", err)
	}

	if _, err := manager.Parse("not.a.token"); !errors.Is(err, ErrInvalidSessionToken) {
		t.Fatalf("expected ErrInvalidSessionToken, got %v", err)
	}
}
