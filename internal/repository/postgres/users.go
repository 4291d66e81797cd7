package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Paige668/memory-coach/internal/core/domain"
	"github.com/Paige668/memory-coach/internal/core/port"
	"github.com/Paige668/memory-coach/internal/repository"
)

var userColumns = []string{
	"id",
	"email",
	"pin_hash",
	"pin_failed_count",
	"pin_sent_at",
	"pin_expires_at",
	"caregiver_email",
	"remember_pin",
	"saved_pin_hash",
	"name",
	"phone",
	"address",
	"emergency_contact",
	"created_at",
	"updated_at",
}

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository wires a PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new user row. On an email conflict the existing row is
// returned, so concurrent first-time PIN requests converge on one user.
func (r *UserRepository) Create(ctx context.Context, user domain.User) (*domain.User, error) {
	stmt, args, err := r.builder.Insert("users").
		Columns("email", "caregiver_email", "remember_pin", "created_at", "updated_at").
		Values(user.Email, user.CaregiverEmail, user.RememberPin, user.CreatedAt, user.UpdatedAt).
		Suffix("ON CONFLICT (email) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert user sql: %w", err)
	}

	var id int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the race; the unique constraint kept a single row.
			return r.GetByEmail(ctx, user.Email)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	created := user
	created.ID = id
	return &created, nil
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getWhere(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves a user by normalized email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getWhere(ctx, squirrel.Eq{"email": email})
}

func (r *UserRepository) getWhere(ctx context.Context, pred any) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("users").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PinHash,
		&user.PinFailedCount,
		&user.PinSentAt,
		&user.PinExpiresAt,
		&user.CaregiverEmail,
		&user.RememberPin,
		&user.SavedPinHash,
		&user.Name,
		&user.Phone,
		&user.Address,
		&user.EmergencyContact,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &user, nil
}

// StorePin records a freshly issued primary PIN challenge.
func (r *UserRepository) StorePin(ctx context.Context, id int64, pinHash string, sentAt, expiresAt time.Time) error {
	return r.update(ctx, "store pin", r.builder.Update("users").
		Set("pin_hash", pinHash).
		Set("pin_sent_at", sentAt).
		Set("pin_expires_at", expiresAt).
		Set("updated_at", sentAt).
		Where(squirrel.Eq{"id": id}))
}

// SetPin stores a primary PIN hash with no expiry and resets the failure counter.
func (r *UserRepository) SetPin(ctx context.Context, id int64, pinHash string) error {
	return r.update(ctx, "set pin", r.builder.Update("users").
		Set("pin_hash", pinHash).
		Set("pin_sent_at", nil).
		Set("pin_expires_at", nil).
		Set("pin_failed_count", 0).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}))
}

// ConsumePin clears the primary PIN fields in a single conditional write.
// The predicate on pin_hash makes the clear atomic: of two concurrent
// verifications only one matches the still-stored hash.
func (r *UserRepository) ConsumePin(ctx context.Context, id int64, expectedHash string) (bool, error) {
	stmt, args, err := r.builder.Update("users").
		Set("pin_hash", nil).
		Set("pin_sent_at", nil).
		Set("pin_expires_at", nil).
		Set("pin_failed_count", 0).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id, "pin_hash": expectedHash}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build consume pin sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("consume pin: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// IncrementPinFailed bumps the failure counter and returns the new value.
func (r *UserRepository) IncrementPinFailed(ctx context.Context, id int64) (int, error) {
	stmt, args, err := r.builder.Update("users").
		Set("pin_failed_count", squirrel.Expr("pin_failed_count + 1")).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING pin_failed_count").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build increment pin failed sql: %w", err)
	}

	var count int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("increment pin failed: %w", err)
	}

	return count, nil
}

// ResetPinFailed zeroes the failure counter.
func (r *UserRepository) ResetPinFailed(ctx context.Context, id int64) error {
	return r.update(ctx, "reset pin failed", r.builder.Update("users").
		Set("pin_failed_count", 0).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}))
}

// SetSavedPin stores the quick-login credential and sets the remember flag.
func (r *UserRepository) SetSavedPin(ctx context.Context, id int64, savedPinHash string) error {
	return r.update(ctx, "set saved pin", r.builder.Update("users").
		Set("remember_pin", true).
		Set("saved_pin_hash", savedPinHash).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}))
}

// ClearSavedPin drops the quick-login credential and the remember flag together.
func (r *UserRepository) ClearSavedPin(ctx context.Context, id int64) error {
	return r.update(ctx, "clear saved pin", r.builder.Update("users").
		Set("remember_pin", false).
		Set("saved_pin_hash", nil).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}))
}

// UpdateProfile persists the editable profile fields. Email is immutable here.
func (r *UserRepository) UpdateProfile(ctx context.Context, user domain.User) error {
	return r.update(ctx, "update profile", r.builder.Update("users").
		Set("name", user.Name).
		Set("phone", user.Phone).
		Set("address", user.Address).
		Set("emergency_contact", user.EmergencyContact).
		Set("caregiver_email", user.CaregiverEmail).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": user.ID}))
}

func (r *UserRepository) update(ctx context.Context, op string, query squirrel.UpdateBuilder) error {
	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build %s sql: %w", op, err)
	}

	var ct pgconn.CommandTag
	if ct, err = r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.UserRepository = (*UserRepository)(nil)
