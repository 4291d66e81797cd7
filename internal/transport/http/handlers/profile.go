package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Paige668/memory-coach/internal/transport/http/middleware"
	"github.com/Paige668/memory-coach/internal/usecase"
)

// ProfileHandler exposes user profile endpoints.
type ProfileHandler struct {
	profiles *usecase.ProfileService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(profiles *usecase.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// RegisterRoutes binds profile routes. The group must require a session.
func (h *ProfileHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/profile", h.getProfile)
	r.PUT("/profile", h.updateProfile)
	r.GET("/profile/status", h.profileStatus)
	r.GET("/me", h.getProfile)
}

// GetProfile godoc
// @Summary Get the current user profile
// @Tags Profile
// @Produce json
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/profile [get]
func (h *ProfileHandler) getProfile(c *gin.Context) {
	userID, ok := middleware.SessionUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	user, err := h.profiles.Get(c.Request.Context(), userID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "failed to load profile")
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(user))
}

// UpdateProfile godoc
// @Summary Update the current user profile
// @Description Applies a partial patch to the profile. Email is immutable; an empty caregiver_email clears it.
// @Tags Profile
// @Accept json
// @Produce json
// @Param request body ProfileUpdateRequest true "Profile patch payload"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/profile [put]
func (h *ProfileHandler) updateProfile(c *gin.Context) {
	userID, ok := middleware.SessionUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid profile payload"))
		return
	}

	user, err := h.profiles.Update(c.Request.Context(), userID, usecase.ProfilePatch{
		Name:             req.Name,
		Phone:            req.Phone,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		CaregiverEmail:   req.CaregiverEmail,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidAddress, Status: http.StatusBadRequest, Message: "invalid caregiver email address"},
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "failed to update profile")
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(user))
}

// ProfileStatus godoc
// @Summary Check profile completeness
// @Tags Profile
// @Produce json
// @Success 200 {object} ProfileStatusResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/profile/status [get]
func (h *ProfileHandler) profileStatus(c *gin.Context) {
	userID, ok := middleware.SessionUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	status, err := h.profiles.Status(c.Request.Context(), userID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "failed to check profile status")
		return
	}

	c.JSON(http.StatusOK, ProfileStatusResponse{
		Complete:      status.Complete,
		MissingFields: status.MissingFields,
	})
}
