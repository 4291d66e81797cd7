package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Paige668/memory-coach/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// PinSendRequest asks for a login code to be delivered by email.
type PinSendRequest struct {
	Email          string `json:"email" binding:"required"`
	CaregiverEmail string `json:"caregiver_email"`
}

// PinVerifyRequest exchanges a delivered login code for a session.
type PinVerifyRequest struct {
	Email      string `json:"email" binding:"required"`
	Pin        string `json:"pin" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// QuickLoginRequest authenticates with the device-saved PIN.
type QuickLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	SavedPin string `json:"saved_pin" binding:"required"`
}

// SavedPinCheckRequest probes whether quick login is available for an address.
type SavedPinCheckRequest struct {
	Email string `json:"email" binding:"required"`
}

// SavedPinCheckResponse reports quick-login availability.
type SavedPinCheckResponse struct {
	HasSavedPin bool `json:"has_saved_pin"`
}

// SessionResponse carries an issued session token.
type SessionResponse struct {
	Token       string    `json:"token"`
	UserID      int64     `json:"user_id"`
	ExpiresAt   time.Time `json:"expires_at"`
	HasSavedPin bool      `json:"has_saved_pin"`
}

// SetPinRequest sets a new in-session PIN.
type SetPinRequest struct {
	Pin string `json:"pin" binding:"required"`
}

// PinCheckRequest verifies the current PIN without issuing a session.
type PinCheckRequest struct {
	Pin string `json:"pin" binding:"required"`
}

// PinCheckResponse reports the outcome of an in-session PIN check.
type PinCheckResponse struct {
	OK        bool `json:"ok"`
	NeedReset bool `json:"need_reset"`
}

// ResetConfirmRequest completes a caregiver-assisted PIN reset.
type ResetConfirmRequest struct {
	Code   string `json:"code" binding:"required"`
	NewPin string `json:"new_pin" binding:"required"`
}

// ProfileResponse is the user profile view returned by the API.
type ProfileResponse struct {
	ID               int64     `json:"id"`
	Email            string    `json:"email"`
	Name             *string   `json:"name,omitempty"`
	Phone            *string   `json:"phone,omitempty"`
	Address          *string   `json:"address,omitempty"`
	EmergencyContact *string   `json:"emergency_contact,omitempty"`
	CaregiverEmail   *string   `json:"caregiver_email,omitempty"`
	HasSavedPin      bool      `json:"has_saved_pin"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func newProfileResponse(user *domain.User) ProfileResponse {
	return ProfileResponse{
		ID:               user.ID,
		Email:            user.Email,
		Name:             user.Name,
		Phone:            user.Phone,
		Address:          user.Address,
		EmergencyContact: user.EmergencyContact,
		CaregiverEmail:   user.CaregiverEmail,
		HasSavedPin:      user.HasSavedPin(),
		CreatedAt:        user.CreatedAt,
		UpdatedAt:        user.UpdatedAt,
	}
}

// ProfileUpdateRequest is a partial profile patch; omitted fields are untouched.
type ProfileUpdateRequest struct {
	Name             *string `json:"name"`
	Phone            *string `json:"phone"`
	Address          *string `json:"address"`
	EmergencyContact *string `json:"emergency_contact"`
	CaregiverEmail   *string `json:"caregiver_email"`
}

// ProfileStatusResponse reports profile completeness.
type ProfileStatusResponse struct {
	Complete      bool     `json:"complete"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

// ReminderCreateRequest creates a new reminder.
type ReminderCreateRequest struct {
	Title          string    `json:"title" binding:"required"`
	Description    string    `json:"description"`
	ScheduledAt    time.Time `json:"scheduled_at" binding:"required"`
	RepeatRule     string    `json:"repeat_rule"`
	RepeatInterval int       `json:"repeat_interval"`
	Channels       []string  `json:"channels" binding:"required"`
	RecipientEmail *string   `json:"recipient_email"`
	ReminderType   string    `json:"reminder_type"`
	MediaPaths     []string  `json:"media_paths"`
}

// ReminderUpdateRequest is a partial reminder patch; omitted fields are untouched.
type ReminderUpdateRequest struct {
	Title          *string    `json:"title"`
	Description    *string    `json:"description"`
	ScheduledAt    *time.Time `json:"scheduled_at"`
	RepeatRule     *string    `json:"repeat_rule"`
	RepeatInterval *int       `json:"repeat_interval"`
	Channels       []string   `json:"channels"`
	RecipientEmail *string    `json:"recipient_email"`
	ReminderType   *string    `json:"reminder_type"`
	MediaPaths     []string   `json:"media_paths"`
}

// ReminderSnoozeRequest delays the next run of a reminder.
type ReminderSnoozeRequest struct {
	Minutes int `json:"minutes"`
}

// ReminderResponse is the reminder view returned by the API.
type ReminderResponse struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	ScheduledAt    time.Time  `json:"scheduled_at"`
	RepeatRule     string     `json:"repeat_rule"`
	RepeatInterval int        `json:"repeat_interval"`
	IsActive       bool       `json:"is_active"`
	LastSentAt     *time.Time `json:"last_sent_at,omitempty"`
	NextRunAt      time.Time  `json:"next_run_at"`
	Channels       []string   `json:"channels"`
	RecipientEmail *string    `json:"recipient_email,omitempty"`
	ReminderType   string     `json:"reminder_type,omitempty"`
	MediaPaths     []string   `json:"media_paths,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func newReminderResponse(reminder *domain.Reminder) ReminderResponse {
	return ReminderResponse{
		ID:             reminder.ID,
		Title:          reminder.Title,
		Description:    reminder.Description,
		ScheduledAt:    reminder.ScheduledAt,
		RepeatRule:     string(reminder.RepeatRule),
		RepeatInterval: reminder.RepeatInterval,
		IsActive:       reminder.IsActive,
		LastSentAt:     reminder.LastSentAt,
		NextRunAt:      reminder.NextRunAt,
		Channels:       reminder.Channels,
		RecipientEmail: reminder.RecipientEmail,
		ReminderType:   reminder.ReminderType,
		MediaPaths:     reminder.MediaPaths,
		CreatedAt:      reminder.CreatedAt,
		UpdatedAt:      reminder.UpdatedAt,
	}
}

// ReminderListResponse wraps the reminder collection view.
type ReminderListResponse struct {
	Reminders []ReminderResponse `json:"reminders"`
	Total     int                `json:"total"`
}

func newReminderListResponse(reminders []domain.Reminder) ReminderListResponse {
	items := make([]ReminderResponse, 0, len(reminders))
	for i := range reminders {
		items = append(items, newReminderResponse(&reminders[i]))
	}
	return ReminderListResponse{Reminders: items, Total: len(items)}
}
