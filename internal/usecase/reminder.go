package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Paige668/memory-coach/internal/core/domain"
	"github.com/Paige668/memory-coach/internal/core/port"
	"github.com/Paige668/memory-coach/internal/infra/config"
	"github.com/Paige668/memory-coach/internal/repository"
)

const defaultSnoozeDelay = 10 * time.Minute

// CreateReminderInput carries the payload for creating a reminder.
type CreateReminderInput struct {
	Title          string
	Description    string
	ScheduledAt    time.Time
	RepeatRule     string
	RepeatInterval int
	Channels       []string
	RecipientEmail *string
	ReminderType   string
	MediaPaths     []string
}

// UpdateReminderInput is a partial patch; nil fields are left untouched.
type UpdateReminderInput struct {
	Title          *string
	Description    *string
	ScheduledAt    *time.Time
	RepeatRule     *string
	RepeatInterval *int
	Channels       []string
	RecipientEmail *string
	ReminderType   *string
	MediaPaths     []string
}

// ReminderService owns reminder CRUD, schedule advancement and dispatch.
type ReminderService struct {
	cfg       *config.AppConfig
	reminders port.ReminderRepository
	users     port.UserRepository
	notifier  port.Notifier
	events    port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewReminderService constructs a ReminderService.
func NewReminderService(cfg *config.AppConfig, reminders port.ReminderRepository, users port.UserRepository, notifier port.Notifier, events port.EventPublisher, log *zap.Logger) *ReminderService {
	return &ReminderService{
		cfg:       cfg,
		reminders: reminders,
		users:     users,
		notifier:  notifier,
		events:    events,
		logger:    log,
		now:       time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *ReminderService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Create validates and stores a new reminder. The first run is the scheduled
// time itself.
func (s *ReminderService) Create(ctx context.Context, userID int64, input CreateReminderInput) (*domain.Reminder, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if input.ScheduledAt.IsZero() {
		return nil, fmt.Errorf("%w: scheduled_at is required", ErrInvalidInput)
	}
	if len(input.Channels) == 0 {
		return nil, fmt.Errorf("%w: at least one channel is required", ErrInvalidChannels)
	}

	rule, err := domain.ParseRepeatRule(input.RepeatRule)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	interval := input.RepeatInterval
	if interval < 1 {
		interval = 1
	}

	now := s.now().UTC()

	reminder := domain.Reminder{
		UserID:         userID,
		Title:          title,
		Description:    input.Description,
		ScheduledAt:    input.ScheduledAt.UTC(),
		RepeatRule:     rule,
		RepeatInterval: interval,
		IsActive:       true,
		NextRunAt:      input.ScheduledAt.UTC(),
		Channels:       input.Channels,
		RecipientEmail: input.RecipientEmail,
		ReminderType:   input.ReminderType,
		MediaPaths:     input.MediaPaths,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := s.reminders.Create(ctx, reminder)
	if err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}

	s.logger.Info("reminder created",
		zap.Int64("reminder_id", created.ID),
		zap.Int64("user_id", userID),
		zap.Time("next_run_at", created.NextRunAt),
	)

	return created, nil
}

// Update applies a partial patch. A new scheduled time resets the run time,
// discarding any snooze in effect.
func (s *ReminderService) Update(ctx context.Context, id, userID int64, input UpdateReminderInput) (*domain.Reminder, error) {
	reminder, err := s.get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
		}
		reminder.Title = title
	}
	if input.Description != nil {
		reminder.Description = *input.Description
	}
	if input.ScheduledAt != nil {
		if input.ScheduledAt.IsZero() {
			return nil, fmt.Errorf("%w: scheduled_at is required", ErrInvalidInput)
		}
		reminder.ScheduledAt = input.ScheduledAt.UTC()
		reminder.NextRunAt = input.ScheduledAt.UTC()
	}
	if input.RepeatRule != nil {
		rule, err := domain.ParseRepeatRule(*input.RepeatRule)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		reminder.RepeatRule = rule
	}
	if input.RepeatInterval != nil {
		interval := *input.RepeatInterval
		if interval < 1 {
			interval = 1
		}
		reminder.RepeatInterval = interval
	}
	if input.Channels != nil {
		if len(input.Channels) == 0 {
			return nil, fmt.Errorf("%w: at least one channel is required", ErrInvalidChannels)
		}
		reminder.Channels = input.Channels
	}
	if input.RecipientEmail != nil {
		reminder.RecipientEmail = input.RecipientEmail
	}
	if input.ReminderType != nil {
		reminder.ReminderType = *input.ReminderType
	}
	if input.MediaPaths != nil {
		reminder.MediaPaths = input.MediaPaths
	}

	reminder.UpdatedAt = s.now().UTC()

	if err := s.update(ctx, reminder); err != nil {
		return nil, err
	}

	return reminder, nil
}

// MarkDone stamps the acknowledgement and advances a repeating reminder from
// its previous run time, so late acknowledgements do not drift the schedule.
func (s *ReminderService) MarkDone(ctx context.Context, id, userID int64) (*domain.Reminder, error) {
	reminder, err := s.get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	reminder.LastSentAt = &now

	if next, advanced := domain.NextAfterCompletion(reminder.NextRunAt, reminder.RepeatRule, reminder.RepeatInterval); advanced {
		reminder.NextRunAt = next
	} else {
		reminder.IsActive = false
	}

	reminder.UpdatedAt = now

	if err := s.update(ctx, reminder); err != nil {
		return nil, err
	}

	return reminder, nil
}

// Snooze pushes the run time out by the requested number of minutes
// (default 10). A past-due reminder snoozes relative to now.
func (s *ReminderService) Snooze(ctx context.Context, id, userID int64, minutes int) (*domain.Reminder, error) {
	reminder, err := s.get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	delay := s.defaultSnooze()
	if minutes > 0 {
		delay = time.Duration(minutes) * time.Minute
	}

	now := s.now().UTC()
	reminder.NextRunAt = domain.SnoozedRunTime(reminder.NextRunAt, now, delay)
	reminder.UpdatedAt = now

	if err := s.update(ctx, reminder); err != nil {
		return nil, err
	}

	return reminder, nil
}

// SetActive toggles dispatching for the reminder.
func (s *ReminderService) SetActive(ctx context.Context, id, userID int64, active bool) (*domain.Reminder, error) {
	reminder, err := s.get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	reminder.IsActive = active
	reminder.UpdatedAt = s.now().UTC()

	if err := s.update(ctx, reminder); err != nil {
		return nil, err
	}

	return reminder, nil
}

// Delete removes the reminder.
func (s *ReminderService) Delete(ctx context.Context, id, userID int64) error {
	if err := s.reminders.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReminderNotFound
		}
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

// Get returns one reminder owned by the user.
func (s *ReminderService) Get(ctx context.Context, id, userID int64) (*domain.Reminder, error) {
	return s.get(ctx, id, userID)
}

// List returns all reminders owned by the user.
func (s *ReminderService) List(ctx context.Context, userID int64) ([]domain.Reminder, error) {
	reminders, err := s.reminders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}

// DispatchDue delivers every active reminder whose run time has arrived and
// advances or deactivates it. Returns how many reminders were dispatched.
// A delivery failure on one reminder does not block the rest; the reminder
// stays due and is retried on the next pass.
func (s *ReminderService) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	batch := 100
	if s.cfg != nil && s.cfg.Reminder.DispatchBatch > 0 {
		batch = s.cfg.Reminder.DispatchBatch
	}

	due, err := s.reminders.ListDue(ctx, now, batch)
	if err != nil {
		return 0, fmt.Errorf("list due reminders: %w", err)
	}

	dispatched := 0
	for i := range due {
		reminder := due[i]
		if err := s.dispatchOne(ctx, &reminder, now); err != nil {
			s.logger.Error("reminder dispatch failed",
				zap.Int64("reminder_id", reminder.ID),
				zap.Error(err),
			)
			continue
		}
		dispatched++
	}

	return dispatched, nil
}

func (s *ReminderService) dispatchOne(ctx context.Context, reminder *domain.Reminder, now time.Time) error {
	recipient, err := s.recipientFor(ctx, reminder)
	if err != nil {
		return err
	}

	msg := port.Message{
		Subject: remindMessageSubject + ": " + reminder.Title,
		Body:    reminder.Description,
	}
	if msg.Body == "" {
		msg.Body = reminder.Title
	}

	for _, channel := range reminder.Channels {
		if err := s.notifier.Send(ctx, channel, recipient, msg); err != nil {
			return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
		}
	}

	at := now.UTC()
	reminder.LastSentAt = &at

	var nextRunAt *time.Time
	if next, advanced := domain.NextAfterCompletion(reminder.NextRunAt, reminder.RepeatRule, reminder.RepeatInterval); advanced {
		reminder.NextRunAt = next
		nextRunAt = &next
	} else {
		reminder.IsActive = false
	}

	reminder.UpdatedAt = at

	if err := s.reminders.Update(ctx, *reminder); err != nil {
		return fmt.Errorf("update reminder: %w", err)
	}

	if err := s.events.PublishReminderDelivered(ctx, domain.ReminderDeliveredEvent{
		EventID:     uuid.NewString(),
		ReminderID:  reminder.ID,
		UserID:      reminder.UserID,
		Title:       reminder.Title,
		Channels:    reminder.Channels,
		DeliveredAt: at,
		NextRunAt:   nextRunAt,
	}); err != nil {
		s.logger.Warn("publish reminder delivered event failed", zap.Error(err))
	}

	return nil
}

func (s *ReminderService) recipientFor(ctx context.Context, reminder *domain.Reminder) (string, error) {
	if reminder.RecipientEmail != nil && *reminder.RecipientEmail != "" {
		return *reminder.RecipientEmail, nil
	}

	owner, err := s.users.GetByID(ctx, reminder.UserID)
	if err != nil {
		return "", fmt.Errorf("lookup reminder owner: %w", err)
	}

	return owner.Email, nil
}

func (s *ReminderService) get(ctx context.Context, id, userID int64) (*domain.Reminder, error) {
	reminder, err := s.reminders.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	return reminder, nil
}

func (s *ReminderService) update(ctx context.Context, reminder *domain.Reminder) error {
	if err := s.reminders.Update(ctx, *reminder); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReminderNotFound
		}
		return fmt.Errorf("update reminder: %w", err)
	}
	return nil
}

func (s *ReminderService) defaultSnooze() time.Duration {
	if s.cfg != nil && s.cfg.Reminder.DefaultSnooze > 0 {
		return s.cfg.Reminder.DefaultSnooze
	}
	return defaultSnoozeDelay
}
