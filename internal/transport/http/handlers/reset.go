package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Paige668/memory-coach/internal/infra/security"
	"github.com/Paige668/memory-coach/internal/transport/http/middleware"
	"github.com/Paige668/memory-coach/internal/usecase"
)

// ResetHandler exposes the caregiver-assisted PIN reset flow.
type ResetHandler struct {
	reset *usecase.ResetService
}

// NewResetHandler constructs ResetHandler.
func NewResetHandler(reset *usecase.ResetService) *ResetHandler {
	return &ResetHandler{reset: reset}
}

// RegisterRoutes binds PIN reset routes. The group must require a session.
func (h *ResetHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/request", h.requestReset)
	r.POST("/confirm", h.confirmReset)
}

// RequestReset godoc
// @Summary Request a PIN reset code
// @Description Sends a one-time reset code to the caregiver address on file.
// @Tags PIN
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/pin/reset/request [post]
func (h *ResetHandler) requestReset(c *gin.Context) {
	userID, ok := middleware.SessionUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	if err := h.reset.RequestReset(c.Request.Context(), userID); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
			{Err: usecase.ErrNoCaregiverAddress, Status: http.StatusConflict, Message: "no caregiver email on file"},
			{Err: usecase.ErrDeliveryFailed, Status: http.StatusBadGateway, Message: "failed to deliver reset code"},
		}, http.StatusInternalServerError, "failed to request PIN reset")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "reset code sent to caregiver"})
}

// ConfirmReset godoc
// @Summary Confirm a PIN reset
// @Description Validates the caregiver-delivered code and installs the new PIN. The code is single use.
// @Tags PIN
// @Accept json
// @Produce json
// @Param request body ResetConfirmRequest true "Reset confirmation payload"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /api/v1/pin/reset/confirm [post]
func (h *ResetHandler) confirmReset(c *gin.Context) {
	userID, ok := middleware.SessionUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req ResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reset confirmation payload"))
		return
	}

	if err := h.reset.ConfirmReset(c.Request.Context(), userID, req.Code, req.NewPin); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrCodeExpired, Status: http.StatusGone, Message: "reset code expired or not requested"},
			{Err: usecase.ErrInvalidCode, Status: http.StatusBadRequest, Message: "invalid reset code"},
			{Err: security.ErrInvalidPinFormat, Status: http.StatusBadRequest, Message: "PIN must be 4-8 digits"},
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "failed to confirm PIN reset")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "PIN reset complete"})
}
