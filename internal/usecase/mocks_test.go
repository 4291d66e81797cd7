package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/Paige668/memory-coach/internal/core/domain"
	"github.com/Paige668/memory-coach/internal/core/port"
	"github.com/Paige668/memory-coach/internal/repository"
)

// stubUserRepo is an in-memory port.UserRepository for unit tests.
type stubUserRepo struct {
	mu     sync.Mutex
	users  map[int64]*domain.User
	nextID int64
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	repo := &stubUserRepo{users: make(map[int64]*domain.User), nextID: 1}
	for _, u := range users {
		copied := *u
		repo.users[u.ID] = &copied
		if u.ID >= repo.nextID {
			repo.nextID = u.ID + 1
		}
	}
	return repo
}

func (r *stubUserRepo) Create(_ context.Context, user domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			copied := *existing
			return &copied, nil
		}
	}
	user.ID = r.nextID
	r.nextID++
	copied := user
	r.users[user.ID] = &copied
	result := user
	return &result, nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) StorePin(_ context.Context, id int64, pinHash string, sentAt, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PinHash = &pinHash
	user.PinSentAt = &sentAt
	user.PinExpiresAt = &expiresAt
	return nil
}

func (r *stubUserRepo) SetPin(_ context.Context, id int64, pinHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PinHash = &pinHash
	user.PinSentAt = nil
	user.PinExpiresAt = nil
	user.PinFailedCount = 0
	return nil
}

func (r *stubUserRepo) ConsumePin(_ context.Context, id int64, expectedHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if user.PinHash == nil || *user.PinHash != expectedHash {
		return false, nil
	}
	user.PinHash = nil
	user.PinSentAt = nil
	user.PinExpiresAt = nil
	user.PinFailedCount = 0
	return true, nil
}

func (r *stubUserRepo) IncrementPinFailed(_ context.Context, id int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	user.PinFailedCount++
	return user.PinFailedCount, nil
}

func (r *stubUserRepo) ResetPinFailed(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PinFailedCount = 0
	return nil
}

func (r *stubUserRepo) SetSavedPin(_ context.Context, id int64, savedPinHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.RememberPin = true
	user.SavedPinHash = &savedPinHash
	return nil
}

func (r *stubUserRepo) ClearSavedPin(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.RememberPin = false
	user.SavedPinHash = nil
	return nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = user.Name
	existing.Phone = user.Phone
	existing.Address = user.Address
	existing.EmergencyContact = user.EmergencyContact
	existing.CaregiverEmail = user.CaregiverEmail
	return nil
}

func (r *stubUserRepo) get(id int64) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil
	}
	copied := *user
	return &copied
}

// stubReminderRepo is an in-memory port.ReminderRepository for unit tests.
type stubReminderRepo struct {
	mu        sync.Mutex
	reminders map[int64]*domain.Reminder
	nextID    int64
}

func newStubReminderRepo(reminders ...*domain.Reminder) *stubReminderRepo {
	repo := &stubReminderRepo{reminders: make(map[int64]*domain.Reminder), nextID: 1}
	for _, rem := range reminders {
		copied := *rem
		repo.reminders[rem.ID] = &copied
		if rem.ID >= repo.nextID {
			repo.nextID = rem.ID + 1
		}
	}
	return repo
}

func (r *stubReminderRepo) Create(_ context.Context, reminder domain.Reminder) (*domain.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reminder.ID = r.nextID
	r.nextID++
	copied := reminder
	r.reminders[reminder.ID] = &copied
	result := reminder
	return &result, nil
}

func (r *stubReminderRepo) GetByID(_ context.Context, id, userID int64) (*domain.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reminder, ok := r.reminders[id]
	if !ok || reminder.UserID != userID {
		return nil, repository.ErrNotFound
	}
	copied := *reminder
	return &copied, nil
}

func (r *stubReminderRepo) Update(_ context.Context, reminder domain.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.reminders[reminder.ID]
	if !ok || existing.UserID != reminder.UserID {
		return repository.ErrNotFound
	}
	copied := reminder
	r.reminders[reminder.ID] = &copied
	return nil
}

func (r *stubReminderRepo) Delete(_ context.Context, id, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reminder, ok := r.reminders[id]
	if !ok || reminder.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.reminders, id)
	return nil
}

func (r *stubReminderRepo) ListByUser(_ context.Context, userID int64) ([]domain.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Reminder
	for _, reminder := range r.reminders {
		if reminder.UserID == userID {
			out = append(out, *reminder)
		}
	}
	return out, nil
}

func (r *stubReminderRepo) ListDue(_ context.Context, reference time.Time, limit int) ([]domain.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Reminder
	for _, reminder := range r.reminders {
		if reminder.IsActive && !reminder.NextRunAt.After(reference) {
			out = append(out, *reminder)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *stubReminderRepo) get(id int64) *domain.Reminder {
	r.mu.Lock()
	defer r.mu.Unlock()
	reminder, ok := r.reminders[id]
	if !ok {
		return nil
	}
	copied := *reminder
	return &copied
}

// sentMessage records one Send call on the stub notifier.
type sentMessage struct {
	Channel   string
	Recipient string
	Msg       port.Message
}

// stubNotifier records outbound messages and can be made to fail.
type stubNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (n *stubNotifier) Send(_ context.Context, channel, recipient string, msg port.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMessage{Channel: channel, Recipient: recipient, Msg: msg})
	return nil
}

func (n *stubNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]sentMessage, len(n.sent))
	copy(out, n.sent)
	return out
}

// stubPublisher records published events.
type stubPublisher struct {
	mu        sync.Mutex
	pins      []domain.PinIssuedEvent
	delivered []domain.ReminderDeliveredEvent
}

func (p *stubPublisher) PublishPinIssued(_ context.Context, event domain.PinIssuedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pins = append(p.pins, event)
	return nil
}

func (p *stubPublisher) PublishReminderDelivered(_ context.Context, event domain.ReminderDeliveredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delivered = append(p.delivered, event)
	return nil
}

// stubRateLimitStore is an in-memory port.RateLimitStore for unit tests.
type stubRateLimitStore struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
}

func newStubRateLimitStore() *stubRateLimitStore {
	return &stubRateLimitStore{attempts: make(map[string][]time.Time)}
}

func (s *stubRateLimitStore) TrimWindow(_ context.Context, identifier string, window time.Duration, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := reference.Add(-window)
	var kept []time.Time
	for _, at := range s.attempts[identifier] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	s.attempts[identifier] = kept
	return nil
}

func (s *stubRateLimitStore) CountAttempts(_ context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := reference.Add(-window)
	count := 0
	for _, at := range s.attempts[identifier] {
		if at.After(cutoff) && !at.After(reference) {
			count++
		}
	}
	return count, nil
}

func (s *stubRateLimitStore) RecordAttempt(_ context.Context, identifier string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[identifier] = append(s.attempts[identifier], at)
	return nil
}

func (s *stubRateLimitStore) OldestAttempt(_ context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := reference.Add(-window)
	var oldest time.Time
	found := false
	for _, at := range s.attempts[identifier] {
		if at.After(cutoff) && !at.After(reference) {
			if !found || at.Before(oldest) {
				oldest = at
				found = true
			}
		}
	}
	return oldest, found, nil
}

// stubResetCodeStore is an in-memory port.ResetCodeStore for unit tests.
type stubResetCodeStore struct {
	mu      sync.Mutex
	entries map[int64]port.ResetCode
}

func newStubResetCodeStore() *stubResetCodeStore {
	return &stubResetCodeStore{entries: make(map[int64]port.ResetCode)}
}

func (s *stubResetCodeStore) Store(_ context.Context, userID int64, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	s.entries[userID] = port.ResetCode{Code: code, CreatedAt: now, ExpiresAt: now.Add(ttl)}
	return nil
}

func (s *stubResetCodeStore) Fetch(_ context.Context, userID int64) (*port.ResetCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := entry
	return &copied, nil
}

func (s *stubResetCodeStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[userID]; !ok {
		return repository.ErrNotFound
	}
	delete(s.entries, userID)
	return nil
}

func (s *stubResetCodeStore) put(userID int64, entry port.ResetCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = entry
}
