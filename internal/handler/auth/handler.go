package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qtrack/clinic-api/internal/handler"
	"github.com/qtrack/clinic-api/internal/model"
	"github.com/qtrack/clinic-api/internal/service/auth"
)

type Handler struct {
	service *auth.Service
}

func NewHandler(service *auth.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	staff, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMalformedEmail):
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		case errors.Is(err, auth.ErrEmailTaken):
			c.JSON(http.StatusConflict, handler.NewErrorResponse(err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("registration failed"))
		}
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(staff))
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	tokens, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		status, msg := loginFailure(err)
		c.JSON(status, handler.NewErrorResponse(msg))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}

// loginFailure keeps the failure taxonomy: each sentinel carries its
// own user-facing message and status; anything else stays generic so
// wrapped internals never reach the client.
func loginFailure(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrMalformedEmail):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrUnknownAccount), errors.Is(err, auth.ErrWrongCredential):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, auth.ErrTooManyAttempts):
		return http.StatusTooManyRequests, err.Error()
	case errors.Is(err, auth.ErrAccountDisabled):
		return http.StatusForbidden, err.Error()
	default:
		return http.StatusInternalServerError, "login failed"
	}
}

func (h *Handler) Refresh(c *gin.Context) {
	var req model.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	tokens, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid refresh token"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}

func (h *Handler) Logout(c *gin.Context) {
	var req model.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to log out"))
		return
	}

	c.JSON(http.StatusOK, handler.NewNoticeResponse("logged out"))
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("missing verification token"))
		return
	}

	if err := h.service.VerifyEmail(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid or expired verification token"))
		return
	}

	c.JSON(http.StatusOK, handler.NewNoticeResponse("email verified"))
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, auth.ErrMalformedEmail) {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to process request"))
		return
	}

	c.JSON(http.StatusOK, handler.NewNoticeResponse("if the account exists, a reset email has been sent"))
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid or expired reset token"))
		return
	}

	c.JSON(http.StatusOK, handler.NewNoticeResponse("password has been reset"))
}
