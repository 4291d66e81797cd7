package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/Paige668/memory-coach/internal/core/port"
	"github.com/Paige668/memory-coach/internal/repository"
)

const (
	defaultResetCodePrefix = "reset_code"

	fieldCode      = "code"
	fieldCreatedAt = "created_at"
	fieldExpiresAt = "expires_at"
)

// ResetCodeRepository persists caregiver reset codes in Redis hashes. The key
// TTL enforces expiry server-side, so a restart never revives stale codes.
type ResetCodeRepository struct {
	client *red.Client
	prefix string
	now    func() time.Time
}

// NewResetCodeRepository constructs a reset code repository with the provided Redis client and key prefix.
func NewResetCodeRepository(client *red.Client, keyPrefix string) *ResetCodeRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultResetCodePrefix
	}

	return &ResetCodeRepository{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// Store persists a reset code for the user, replacing any prior entry.
func (r *ResetCodeRepository) Store(ctx context.Context, userID int64, code string, ttl time.Duration) error {
	code = strings.TrimSpace(code)

	switch {
	case userID <= 0:
		return errors.New("user id is required")
	case code == "":
		return errors.New("code is required")
	case ttl <= 0:
		return errors.New("ttl must be positive")
	}

	now := r.now().UTC()
	expiresAt := now.Add(ttl)

	key := r.key(userID)

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]any{
		fieldCode:      code,
		fieldCreatedAt: strconv.FormatInt(now.Unix(), 10),
		fieldExpiresAt: strconv.FormatInt(expiresAt.Unix(), 10),
	})
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis store reset code: %w", err)
	}

	return nil
}

// Fetch retrieves the pending reset code for the user.
func (r *ResetCodeRepository) Fetch(ctx context.Context, userID int64) (*port.ResetCode, error) {
	if userID <= 0 {
		return nil, errors.New("user id is required")
	}

	values, err := r.client.HGetAll(ctx, r.key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall reset code: %w", err)
	}
	if len(values) == 0 {
		return nil, repository.ErrNotFound
	}

	code := strings.TrimSpace(values[fieldCode])
	if code == "" {
		return nil, repository.ErrNotFound
	}

	createdAt, err := parseUnix(values[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	expiresAt, err := parseUnix(values[fieldExpiresAt])
	if err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}

	return &port.ResetCode{
		Code:      code,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Delete removes the reset code entry, enforcing single-use semantics.
func (r *ResetCodeRepository) Delete(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return errors.New("user id is required")
	}

	deleted, err := r.client.Del(ctx, r.key(userID)).Result()
	if err != nil {
		return fmt.Errorf("redis delete reset code: %w", err)
	}
	if deleted == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// WithClock overrides the internal clock, used in tests.
func (r *ResetCodeRepository) WithClock(clock func() time.Time) {
	if clock != nil {
		r.now = clock
	}
}

func (r *ResetCodeRepository) key(userID int64) string {
	return fmt.Sprintf("%s:%d", r.prefix, userID)
}

func parseUnix(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, errors.New("timestamp is empty")
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(v, 0).UTC(), nil
}

var _ port.ResetCodeStore = (*ResetCodeRepository)(nil)
