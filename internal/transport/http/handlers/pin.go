package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Paige668/memory-coach/internal/infra/security"
	"github.com/Paige668/memory-coach/internal/transport/http/middleware"
	"github.com/Paige668/memory-coach/internal/usecase"
)

// PinHandler exposes in-session PIN management endpoints.
type PinHandler struct {
	pins *usecase.PinManagementService
}

// NewPinHandler constructs PinHandler.
func NewPinHandler(pins *usecase.PinManagementService) *PinHandler {
	return &PinHandler{pins: pins}
}

// RegisterRoutes binds PIN management routes. The group must require a session.
func (h *PinHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.setPin)
	r.POST("/verify", h.verifyPin)
}

// SetPin godoc
// @Summary Set the account PIN
// @Description Replaces the account PIN with a new 4-8 digit value and clears the failure counter.
// @Tags PIN
// @Accept json
// @Produce json
// @Param request body SetPinRequest true "New PIN payload"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/pin [post]
func (h *PinHandler) setPin(c *gin.Context) {
	userID, ok := middleware.SessionUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req SetPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid PIN payload"))
		return
	}

	if err := h.pins.SetPin(c.Request.Context(), userID, req.Pin); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: security.ErrInvalidPinFormat, Status: http.StatusBadRequest, Message: "PIN must be 4-8 digits"},
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "failed to set PIN")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "PIN updated"})
}

// VerifyPin godoc
// @Summary Verify the current PIN
// @Description Checks the supplied PIN against the stored one. Repeated failures flag the account for a caregiver-assisted reset.
// @Tags PIN
// @Accept json
// @Produce json
// @Param request body PinCheckRequest true "PIN check payload"
// @Success 200 {object} PinCheckResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/pin/verify [post]
func (h *PinHandler) verifyPin(c *gin.Context) {
	userID, ok := middleware.SessionUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req PinCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid PIN payload"))
		return
	}

	check, err := h.pins.VerifyCurrentPin(c.Request.Context(), userID, req.Pin)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "failed to verify PIN")
		return
	}

	c.JSON(http.StatusOK, PinCheckResponse{OK: check.OK, NeedReset: check.NeedsReset})
}
