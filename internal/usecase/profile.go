package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Paige668/memory-coach/internal/core/domain"
	"github.com/Paige668/memory-coach/internal/core/port"
	"github.com/Paige668/memory-coach/internal/infra/security"
	"github.com/Paige668/memory-coach/internal/repository"
)

// ProfilePatch is a partial update of editable profile fields. Email is
// immutable; it is the account identity.
type ProfilePatch struct {
	Name             *string
	Phone            *string
	Address          *string
	EmergencyContact *string
	CaregiverEmail   *string
}

// ProfileStatus reports how complete the profile is.
type ProfileStatus struct {
	Complete      bool
	MissingFields []string
}

// ProfileService reads and updates user profiles.
type ProfileService struct {
	users  port.UserRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewProfileService constructs a ProfileService.
func NewProfileService(users port.UserRepository, log *zap.Logger) *ProfileService {
	return &ProfileService{
		users:  users,
		logger: log,
		now:    time.Now,
	}
}

// Get returns the user's profile.
func (s *ProfileService) Get(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// Update applies a partial profile patch. A caregiver email in the patch is
// revalidated as an ASCII mailbox; an empty string clears it.
func (s *ProfileService) Update(ctx context.Context, userID int64, patch ProfilePatch) (*domain.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		user.Name = patch.Name
	}
	if patch.Phone != nil {
		user.Phone = patch.Phone
	}
	if patch.Address != nil {
		user.Address = patch.Address
	}
	if patch.EmergencyContact != nil {
		user.EmergencyContact = patch.EmergencyContact
	}
	if patch.CaregiverEmail != nil {
		if *patch.CaregiverEmail == "" {
			user.CaregiverEmail = nil
		} else {
			normalized, err := security.NormalizeAddress(*patch.CaregiverEmail)
			if err != nil {
				return nil, err
			}
			user.CaregiverEmail = &normalized
		}
	}

	if err := s.users.UpdateProfile(ctx, *user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.logger.Info("profile updated", zap.Int64("user_id", userID))

	return user, nil
}

// Status reports profile completeness. Name, phone and emergency contact are
// the fields the care flow needs filled in.
func (s *ProfileService) Status(ctx context.Context, userID int64) (*ProfileStatus, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	var missing []string
	if user.Name == nil || *user.Name == "" {
		missing = append(missing, "name")
	}
	if user.Phone == nil || *user.Phone == "" {
		missing = append(missing, "phone")
	}
	if user.EmergencyContact == nil || *user.EmergencyContact == "" {
		missing = append(missing, "emergency_contact")
	}

	return &ProfileStatus{
		Complete:      len(missing) == 0,
		MissingFields: missing,
	}, nil
}
