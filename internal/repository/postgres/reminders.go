package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Paige668/memory-coach/internal/core/domain"
	"github.com/Paige668/memory-coach/internal/core/port"
	"github.com/Paige668/memory-coach/internal/repository"
)

var reminderColumns = []string{
	"id",
	"user_id",
	"title",
	"description",
	"scheduled_at",
	"repeat_rule",
	"repeat_interval",
	"is_active",
	"last_sent_at",
	"next_run_at",
	"channels",
	"recipient_email",
	"reminder_type",
	"media_paths",
	"created_at",
	"updated_at",
}

// ReminderRepository implements port.ReminderRepository using PostgreSQL.
// Channels and media paths are stored as JSONB arrays.
type ReminderRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewReminderRepository wires a PostgreSQL-backed reminder repository.
func NewReminderRepository(pool *pgxpool.Pool) *ReminderRepository {
	return &ReminderRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a reminder row and returns the stored reminder with its id.
func (r *ReminderRepository) Create(ctx context.Context, reminder domain.Reminder) (*domain.Reminder, error) {
	channels, err := json.Marshal(reminder.Channels)
	if err != nil {
		return nil, fmt.Errorf("marshal channels: %w", err)
	}
	mediaPaths, err := json.Marshal(reminder.MediaPaths)
	if err != nil {
		return nil, fmt.Errorf("marshal media paths: %w", err)
	}

	stmt, args, err := r.builder.Insert("reminders").
		Columns(
			"user_id",
			"title",
			"description",
			"scheduled_at",
			"repeat_rule",
			"repeat_interval",
			"is_active",
			"last_sent_at",
			"next_run_at",
			"channels",
			"recipient_email",
			"reminder_type",
			"media_paths",
			"created_at",
			"updated_at",
		).
		Values(
			reminder.UserID,
			reminder.Title,
			reminder.Description,
			reminder.ScheduledAt,
			string(reminder.RepeatRule),
			reminder.RepeatInterval,
			reminder.IsActive,
			reminder.LastSentAt,
			reminder.NextRunAt,
			channels,
			reminder.RecipientEmail,
			reminder.ReminderType,
			mediaPaths,
			reminder.CreatedAt,
			reminder.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert reminder sql: %w", err)
	}

	var id int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&id); err != nil {
		return nil, fmt.Errorf("insert reminder: %w", err)
	}

	created := reminder
	created.ID = id
	return &created, nil
}

// GetByID retrieves a reminder scoped to its owner. A reminder belonging to a
// different user is reported as not found, never as forbidden.
func (r *ReminderRepository) GetByID(ctx context.Context, id, userID int64) (*domain.Reminder, error) {
	stmt, args, err := r.builder.
		Select(reminderColumns...).
		From("reminders").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select reminder sql: %w", err)
	}

	reminder, err := scanReminder(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan reminder: %w", err)
	}

	return reminder, nil
}

// Update persists all mutable reminder fields, scoped to the owner.
func (r *ReminderRepository) Update(ctx context.Context, reminder domain.Reminder) error {
	channels, err := json.Marshal(reminder.Channels)
	if err != nil {
		return fmt.Errorf("marshal channels: %w", err)
	}
	mediaPaths, err := json.Marshal(reminder.MediaPaths)
	if err != nil {
		return fmt.Errorf("marshal media paths: %w", err)
	}

	stmt, args, err := r.builder.Update("reminders").
		Set("title", reminder.Title).
		Set("description", reminder.Description).
		Set("scheduled_at", reminder.ScheduledAt).
		Set("repeat_rule", string(reminder.RepeatRule)).
		Set("repeat_interval", reminder.RepeatInterval).
		Set("is_active", reminder.IsActive).
		Set("last_sent_at", reminder.LastSentAt).
		Set("next_run_at", reminder.NextRunAt).
		Set("channels", channels).
		Set("recipient_email", reminder.RecipientEmail).
		Set("reminder_type", reminder.ReminderType).
		Set("media_paths", mediaPaths).
		Set("updated_at", reminder.UpdatedAt).
		Where(squirrel.Eq{"id": reminder.ID, "user_id": reminder.UserID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update reminder sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update reminder: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a reminder scoped to its owner.
func (r *ReminderRepository) Delete(ctx context.Context, id, userID int64) error {
	stmt, args, err := r.builder.Delete("reminders").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete reminder sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListByUser returns all reminders owned by the user, soonest run first.
func (r *ReminderRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Reminder, error) {
	stmt, args, err := r.builder.
		Select(reminderColumns...).
		From("reminders").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("next_run_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list reminders sql: %w", err)
	}

	return r.queryReminders(ctx, stmt, args)
}

// ListDue returns active reminders whose next run time is at or before the
// reference instant.
func (r *ReminderRepository) ListDue(ctx context.Context, reference time.Time, limit int) ([]domain.Reminder, error) {
	stmt, args, err := r.builder.
		Select(reminderColumns...).
		From("reminders").
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.LtOrEq{"next_run_at": reference}).
		OrderBy("next_run_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list due reminders sql: %w", err)
	}

	return r.queryReminders(ctx, stmt, args)
}

func (r *ReminderRepository) queryReminders(ctx context.Context, stmt string, args []any) ([]domain.Reminder, error) {
	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}
	defer rows.Close()

	var reminders []domain.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		reminders = append(reminders, *reminder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminders: %w", err)
	}

	return reminders, nil
}

func scanReminder(row pgx.Row) (*domain.Reminder, error) {
	var (
		reminder   domain.Reminder
		rule       string
		channels   []byte
		mediaPaths []byte
	)

	if err := row.Scan(
		&reminder.ID,
		&reminder.UserID,
		&reminder.Title,
		&reminder.Description,
		&reminder.ScheduledAt,
		&rule,
		&reminder.RepeatInterval,
		&reminder.IsActive,
		&reminder.LastSentAt,
		&reminder.NextRunAt,
		&channels,
		&reminder.RecipientEmail,
		&reminder.ReminderType,
		&mediaPaths,
		&reminder.CreatedAt,
		&reminder.UpdatedAt,
	); err != nil {
		return nil, err
	}

	reminder.RepeatRule = domain.RepeatRule(rule)
	if len(channels) > 0 {
		if err := json.Unmarshal(channels, &reminder.Channels); err != nil {
			return nil, fmt.Errorf("unmarshal channels: %w", err)
		}
	}
	if len(mediaPaths) > 0 {
		if err := json.Unmarshal(mediaPaths, &reminder.MediaPaths); err != nil {
			return nil, fmt.Errorf("unmarshal media paths: %w", err)
		}
	}

	return &reminder, nil
}

var _ port.ReminderRepository = (*ReminderRepository)(nil)
