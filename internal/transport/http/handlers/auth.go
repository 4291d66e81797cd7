package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Paige668/memory-coach/internal/usecase"
)

// AuthHandler exposes login-code and session endpoints.
type AuthHandler struct {
	pins *usecase.PinService
	auth *usecase.AuthService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(pins *usecase.PinService, auth *usecase.AuthService) *AuthHandler {
	return &AuthHandler{pins: pins, auth: auth}
}

// RegisterRoutes binds authentication routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/pin/send", h.sendPin)
	r.POST("/pin/verify", h.verifyPin)
	r.POST("/quick-login", h.quickLogin)
	r.POST("/saved-pin/check", h.checkSavedPin)
}

// SendPin godoc
// @Summary Send a login code
// @Description Delivers a one-time login code to the supplied email address, creating the account on first contact.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body PinSendRequest true "Login code request payload"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/auth/pin/send [post]
func (h *AuthHandler) sendPin(c *gin.Context) {
	var req PinSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login code payload"))
		return
	}

	if err := h.pins.IssuePin(c.Request.Context(), req.Email, req.CaregiverEmail); err != nil {
		var rateErr *usecase.RateLimitExceededError
		if errors.As(err, &rateErr) {
			respondRateLimitExceeded(c, rateErr)
			return
		}

		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidAddress, Status: http.StatusBadRequest, Message: "invalid email address"},
			{Err: usecase.ErrDeliveryFailed, Status: http.StatusBadGateway, Message: "failed to deliver login code"},
		}, http.StatusInternalServerError, "failed to send login code")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "login code sent"})
}

// VerifyPin godoc
// @Summary Verify a login code
// @Description Exchanges a delivered login code for a session token. The code is single use.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body PinVerifyRequest true "Login code verification payload"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/pin/verify [post]
func (h *AuthHandler) verifyPin(c *gin.Context) {
	var req PinVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid verification payload"))
		return
	}

	session, err := h.auth.VerifyPin(c.Request.Context(), req.Email, req.Pin, req.RememberMe)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidAddress, Status: http.StatusBadRequest, Message: "invalid email address"},
			{Err: usecase.ErrInvalidOrExpiredPin, Status: http.StatusUnauthorized, Message: "invalid or expired login code"},
		}, http.StatusInternalServerError, "failed to verify login code")
		return
	}

	c.JSON(http.StatusOK, newSessionResponse(session))
}

// QuickLogin godoc
// @Summary Log in with the saved PIN
// @Description Authenticates with the device-saved PIN established during a remembered login.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body QuickLoginRequest true "Quick login payload"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/quick-login [post]
func (h *AuthHandler) quickLogin(c *gin.Context) {
	var req QuickLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid quick login payload"))
		return
	}

	session, err := h.auth.QuickLogin(c.Request.Context(), req.Email, req.SavedPin)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidAddress, Status: http.StatusBadRequest, Message: "invalid email address"},
			{Err: usecase.ErrNoSavedPin, Status: http.StatusUnauthorized, Message: "quick login is not available for this account"},
			{Err: usecase.ErrInvalidSavedPin, Status: http.StatusUnauthorized, Message: "invalid saved PIN"},
		}, http.StatusInternalServerError, "failed to log in")
		return
	}

	c.JSON(http.StatusOK, newSessionResponse(session))
}

// CheckSavedPin godoc
// @Summary Check quick-login availability
// @Description Reports whether a saved PIN exists for the supplied email address.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body SavedPinCheckRequest true "Saved PIN check payload"
// @Success 200 {object} SavedPinCheckResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/auth/saved-pin/check [post]
func (h *AuthHandler) checkSavedPin(c *gin.Context) {
	var req SavedPinCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid saved PIN check payload"))
		return
	}

	hasSavedPin, err := h.auth.HasSavedPin(c.Request.Context(), req.Email)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidAddress, Status: http.StatusBadRequest, Message: "invalid email address"},
		}, http.StatusInternalServerError, "failed to check saved PIN")
		return
	}

	c.JSON(http.StatusOK, SavedPinCheckResponse{HasSavedPin: hasSavedPin})
}

func newSessionResponse(session *usecase.Session) SessionResponse {
	return SessionResponse{
		Token:       session.Token,
		UserID:      session.UserID,
		ExpiresAt:   session.ExpiresAt,
		HasSavedPin: session.HasSavedPin,
	}
}

func respondRateLimitExceeded(c *gin.Context, rateErr *usecase.RateLimitExceededError) {
	retryAfter := int(rateErr.RetryAfter / time.Second)
	if rateErr.RetryAfter%time.Second != 0 {
		retryAfter++
	}
	if retryAfter < 0 {
		retryAfter = 0
	}

	message := "too many login code requests, try again later"
	if rateErr.RetryAfter > 0 {
		message = fmt.Sprintf("too many login code requests, try again in %d seconds", retryAfter)
		c.Header("Retry-After", strconv.Itoa(retryAfter))
	}

	c.JSON(http.StatusTooManyRequests, NewErrorResponse(c, message))
}
