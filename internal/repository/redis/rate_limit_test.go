package redis

import (
	"context"
	"testing"
	"time"
)

func TestRateLimitRepository_RecordAndCount(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{KeyPrefix: "rl:pin", TTL: time.Hour})

	ctx := context.Background()
	reference := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		at := reference.Add(-time.Duration(i) * time.Minute)
		if err := repo.RecordAttempt(ctx, "user@example.com", at); err != nil {
			t.Fatalf("RecordAttempt returned error: %v", err)
		}
	}

	count, err := repo.CountAttempts(ctx, "user@example.com", 10*time.Minute, reference)
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 attempts, got %d", count)
	}
}

func TestRateLimitRepository_TrimWindow(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{KeyPrefix: "rl:pin", TTL: time.Hour})

	ctx := context.Background()
	reference := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := repo.RecordAttempt(ctx, "trim", reference.Add(-30*time.Minute)); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}
	if err := repo.RecordAttempt(ctx, "trim", reference.Add(-time.Minute)); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}

	if err := repo.TrimWindow(ctx, "trim", 10*time.Minute, reference); err != nil {
		t.Fatalf("TrimWindow returned error: %v", err)
	}

	count, err := repo.CountAttempts(ctx, "trim", time.Hour, reference)
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 attempt after trim, got %d", count)
	}
}

func TestRateLimitRepository_OldestAttempt(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{KeyPrefix: "rl:pin", TTL: time.Hour})

	ctx := context.Background()
	reference := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	oldest := reference.Add(-8 * time.Minute)

	if err := repo.RecordAttempt(ctx, "oldest", oldest); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}
	if err := repo.RecordAttempt(ctx, "oldest", reference.Add(-2*time.Minute)); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}

	got, ok, err := repo.OldestAttempt(ctx, "oldest", 10*time.Minute, reference)
	if err != nil {
		t.Fatalf("OldestAttempt returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected an attempt inside the window")
	}
	if !got.Equal(oldest) {
		t.Fatalf("expected oldest %v, got %v", oldest, got)
	}

	_, ok, err = repo.OldestAttempt(ctx, "empty", 10*time.Minute, reference)
	if err != nil {
		t.Fatalf("OldestAttempt returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected no attempts for empty identifier")
	}
}

func TestRateLimitRepository_InvalidWindow(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{KeyPrefix: "rl:pin", TTL: time.Hour})

	ctx := context.Background()

	if _, err := repo.CountAttempts(ctx, "x", 0, time.Now()); err == nil {
		t.Fatalf("expected error for non-positive window in CountAttempts")
	}
	if err := repo.TrimWindow(ctx, "x", 0, time.Now()); err == nil {
		t.Fatalf("expected error for non-positive window in TrimWindow")
	}
	if _, _, err := repo.OldestAttempt(ctx, "x", 0, time.Now()); err == nil {
		t.Fatalf("expected error for non-positive window in OldestAttempt")
	}
}
