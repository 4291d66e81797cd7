package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Paige668/memory-coach/internal/transport/http/middleware"
	"github.com/Paige668/memory-coach/internal/usecase"
)

// ReminderHandler exposes reminder CRUD and scheduling endpoints.
type ReminderHandler struct {
	reminders *usecase.ReminderService
}

// NewReminderHandler constructs ReminderHandler.
func NewReminderHandler(reminders *usecase.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminders: reminders}
}

// RegisterRoutes binds reminder routes. The group must require a session.
func (h *ReminderHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.list)
	r.POST("", h.create)
	r.GET("/:id", h.get)
	r.PATCH("/:id", h.update)
	r.DELETE("/:id", h.delete)
	r.POST("/:id/done", h.markDone)
	r.POST("/:id/snooze", h.snooze)
	r.POST("/:id/activate", h.activate)
	r.POST("/:id/deactivate", h.deactivate)
}

var reminderErrorCases = []ErrorCase{
	{Err: usecase.ErrReminderNotFound, Status: http.StatusNotFound, Message: "reminder not found"},
	{Err: usecase.ErrInvalidChannels, Status: http.StatusBadRequest, Message: "at least one delivery channel is required"},
	{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "invalid reminder payload"},
}

// List godoc
// @Summary List reminders
// @Description Returns all reminders owned by the current user ordered by next run time.
// @Tags Reminders
// @Produce json
// @Success 200 {object} ReminderListResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/reminders [get]
func (h *ReminderHandler) list(c *gin.Context) {
	userID, ok := middleware.SessionUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	reminders, err := h.reminders.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list reminders"))
		return
	}

	c.JSON(http.StatusOK, newReminderListResponse(reminders))
}

// Create godoc
// @Summary Create a reminder
// @Tags Reminders
// @Accept json
// @Produce json
// @Param request body ReminderCreateRequest true "Reminder payload"
// @Success 201 {object} ReminderResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/reminders [post]
func (h *ReminderHandler) create(c *gin.Context) {
	userID, ok := middleware.SessionUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req ReminderCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reminder payload"))
		return
	}

	reminder, err := h.reminders.Create(c.Request.Context(), userID, usecase.CreateReminderInput{
		Title:          req.Title,
		Description:    req.Description,
		ScheduledAt:    req.ScheduledAt,
		RepeatRule:     req.RepeatRule,
		RepeatInterval: req.RepeatInterval,
		Channels:       req.Channels,
		RecipientEmail: req.RecipientEmail,
		ReminderType:   req.ReminderType,
		MediaPaths:     req.MediaPaths,
	})
	if err != nil {
		RespondWithMappedError(c, err, reminderErrorCases, http.StatusInternalServerError, "failed to create reminder")
		return
	}

	c.JSON(http.StatusCreated, newReminderResponse(reminder))
}

// Get godoc
// @Summary Get a reminder
// @Tags Reminders
// @Produce json
// @Param id path int true "Reminder ID"
// @Success 200 {object} ReminderResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/reminders/{id} [get]
func (h *ReminderHandler) get(c *gin.Context) {
	userID, reminderID, ok := h.identify(c)
	if !ok {
		return
	}

	reminder, err := h.reminders.Get(c.Request.Context(), reminderID, userID)
	if err != nil {
		RespondWithMappedError(c, err, reminderErrorCases, http.StatusInternalServerError, "failed to load reminder")
		return
	}

	c.JSON(http.StatusOK, newReminderResponse(reminder))
}

// Update godoc
// @Summary Update a reminder
// @Description Applies a partial patch. Changing scheduled_at resets the next run time.
// @Tags Reminders
// @Accept json
// @Produce json
// @Param id path int true "Reminder ID"
// @Param request body ReminderUpdateRequest true "Reminder patch payload"
// @Success 200 {object} ReminderResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/reminders/{id} [patch]
func (h *ReminderHandler) update(c *gin.Context) {
	userID, reminderID, ok := h.identify(c)
	if !ok {
		return
	}

	var req ReminderUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reminder payload"))
		return
	}

	reminder, err := h.reminders.Update(c.Request.Context(), reminderID, userID, usecase.UpdateReminderInput{
		Title:          req.Title,
		Description:    req.Description,
		ScheduledAt:    req.ScheduledAt,
		RepeatRule:     req.RepeatRule,
		RepeatInterval: req.RepeatInterval,
		Channels:       req.Channels,
		RecipientEmail: req.RecipientEmail,
		ReminderType:   req.ReminderType,
		MediaPaths:     req.MediaPaths,
	})
	if err != nil {
		RespondWithMappedError(c, err, reminderErrorCases, http.StatusInternalServerError, "failed to update reminder")
		return
	}

	c.JSON(http.StatusOK, newReminderResponse(reminder))
}

// Delete godoc
// @Summary Delete a reminder
// @Tags Reminders
// @Produce json
// @Param id path int true "Reminder ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/reminders/{id} [delete]
func (h *ReminderHandler) delete(c *gin.Context) {
	userID, reminderID, ok := h.identify(c)
	if !ok {
		return
	}

	if err := h.reminders.Delete(c.Request.Context(), reminderID, userID); err != nil {
		RespondWithMappedError(c, err, reminderErrorCases, http.StatusInternalServerError, "failed to delete reminder")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "reminder deleted"})
}

// MarkDone godoc
// @Summary Mark a reminder as done
// @Description Records completion and advances repeating reminders from their previous run time.
// @Tags Reminders
// @Produce json
// @Param id path int true "Reminder ID"
// @Success 200 {object} ReminderResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/reminders/{id}/done [post]
func (h *ReminderHandler) markDone(c *gin.Context) {
	userID, reminderID, ok := h.identify(c)
	if !ok {
		return
	}

	reminder, err := h.reminders.MarkDone(c.Request.Context(), reminderID, userID)
	if err != nil {
		RespondWithMappedError(c, err, reminderErrorCases, http.StatusInternalServerError, "failed to mark reminder done")
		return
	}

	c.JSON(http.StatusOK, newReminderResponse(reminder))
}

// Snooze godoc
// @Summary Snooze a reminder
// @Description Pushes the next run out by the requested number of minutes, defaulting when omitted.
// @Tags Reminders
// @Accept json
// @Produce json
// @Param id path int true "Reminder ID"
// @Param request body ReminderSnoozeRequest false "Snooze payload"
// @Success 200 {object} ReminderResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/reminders/{id}/snooze [post]
func (h *ReminderHandler) snooze(c *gin.Context) {
	userID, reminderID, ok := h.identify(c)
	if !ok {
		return
	}

	var req ReminderSnoozeRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid snooze payload"))
			return
		}
	}

	reminder, err := h.reminders.Snooze(c.Request.Context(), reminderID, userID, req.Minutes)
	if err != nil {
		RespondWithMappedError(c, err, reminderErrorCases, http.StatusInternalServerError, "failed to snooze reminder")
		return
	}

	c.JSON(http.StatusOK, newReminderResponse(reminder))
}

// Activate godoc
// @Summary Activate a reminder
// @Tags Reminders
// @Produce json
// @Param id path int true "Reminder ID"
// @Success 200 {object} ReminderResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/reminders/{id}/activate [post]
func (h *ReminderHandler) activate(c *gin.Context) {
	h.setActive(c, true)
}

// Deactivate godoc
// @Summary Deactivate a reminder
// @Tags Reminders
// @Produce json
// @Param id path int true "Reminder ID"
// @Success 200 {object} ReminderResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/reminders/{id}/deactivate [post]
func (h *ReminderHandler) deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *ReminderHandler) setActive(c *gin.Context, active bool) {
	userID, reminderID, ok := h.identify(c)
	if !ok {
		return
	}

	reminder, err := h.reminders.SetActive(c.Request.Context(), reminderID, userID, active)
	if err != nil {
		RespondWithMappedError(c, err, reminderErrorCases, http.StatusInternalServerError, "failed to update reminder")
		return
	}

	c.JSON(http.StatusOK, newReminderResponse(reminder))
}

// identify resolves the session user and the :id path parameter, responding on failure.
func (h *ReminderHandler) identify(c *gin.Context) (userID, reminderID int64, ok bool) {
	userID, ok = middleware.SessionUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return 0, 0, false
	}

	reminderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || reminderID <= 0 {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reminder id"))
		return 0, 0, false
	}

	return userID, reminderID, true
}
