// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/advisorhub/internal/services/auth"
	"codeberg.org/oliverandrich/advisorhub/internal/services/passwordreset"
	"codeberg.org/oliverandrich/advisorhub/internal/services/session"
	"github.com/labstack/echo/v4"
)

// resetRequestedMessage is returned on every forgot-password request that is
// not a caller error, whether or not the email belongs to an account.
const resetRequestedMessage = "If an account with this email exists, a reset link has been sent"

// AuthHandlers contains handlers for authentication and password reset.
type AuthHandlers struct {
	reset    *passwordreset.Service
	auth     *auth.Service
	sessions *session.Manager
}

// NewAuth creates a new AuthHandlers instance.
func NewAuth(reset *passwordreset.Service, authSvc *auth.Service, sessions *session.Manager) *AuthHandlers {
	return &AuthHandlers{
		reset:    reset,
		auth:     authSvc,
		sessions: sessions,
	}
}

// ForgotPasswordRequest is the request body for starting a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword starts the reset flow. The response never reveals whether
// the email is registered.
func (h *AuthHandlers) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "Invalid request body.")
	}
	if req.Email == "" {
		return respondError(c, http.StatusBadRequest, "Email is required.")
	}

	meta := passwordreset.RequestMeta{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}

	err := h.reset.Request(c.Request().Context(), req.Email, meta)
	switch {
	case err == nil:
		return respondOK(c, resetRequestedMessage, nil)
	case errors.Is(err, passwordreset.ErrInvalidEmail):
		return respondError(c, http.StatusBadRequest, "Please provide a valid email address.")
	case errors.Is(err, passwordreset.ErrDispatchFailed):
		return respondError(c, http.StatusInternalServerError, "Unable to send the reset email right now. Please try again later.")
	default:
		slog.Error("forgot_password_failed", "error", err)
		return respondInternalError(c)
	}
}

// VerifyResetToken checks a reset token without consuming it and returns
// non-sensitive data for the confirmation UI.
func (h *AuthHandlers) VerifyResetToken(c echo.Context) error {
	secret := c.Param("token")
	if secret == "" {
		return respondError(c, http.StatusBadRequest, "Token is required.")
	}

	info, err := h.reset.Verify(c.Request().Context(), secret)
	if err != nil {
		return h.resetFlowError(c, err, "verify_reset_token_failed")
	}

	return respondOK(c, "Token is valid", info)
}

// ResetPasswordRequest is the request body for consuming a reset token.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPassword consumes a reset token and sets the new password.
func (h *AuthHandlers) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "Invalid request body.")
	}
	if req.Token == "" || req.Password == "" {
		return respondError(c, http.StatusBadRequest, "Token and password are required.")
	}

	err := h.reset.Consume(c.Request().Context(), req.Token, req.Password)
	if err != nil {
		var validationErr *auth.PasswordValidationError
		if errors.As(err, &validationErr) {
			return respondError(c, http.StatusBadRequest, validationErr.Error())
		}
		return h.resetFlowError(c, err, "reset_password_failed")
	}

	return respondOK(c, "Your password has been reset. You can now sign in with your new password.", nil)
}

// resetFlowError maps the shared verify/consume failure kinds to responses.
// The token itself is the secret here, so naming its state does not enable
// account enumeration.
func (h *AuthHandlers) resetFlowError(c echo.Context, err error, logEvent string) error {
	switch {
	case errors.Is(err, passwordreset.ErrInvalidToken):
		return respondError(c, http.StatusBadRequest, "This reset link is invalid.")
	case errors.Is(err, passwordreset.ErrTokenExpiredOrUsed):
		return respondError(c, http.StatusBadRequest, "This reset link has expired or was already used.")
	case errors.Is(err, passwordreset.ErrAccountInactive):
		return respondError(c, http.StatusBadRequest, "This reset link can no longer be used.")
	default:
		slog.Error(logEvent, "error", err)
		return respondInternalError(c)
	}
}

// PasswordRequirements lists the composition rules a new password must meet,
// for display next to the reset form.
func (h *AuthHandlers) PasswordRequirements(c echo.Context) error {
	return respondOK(c, "Password requirements", map[string]any{
		"requirements": h.auth.PasswordValidator().GetHelpTexts(),
	})
}

// LoginRequest is the request body for password login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an account and issues a session cookie.
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "Invalid request body.")
	}
	if req.Email == "" || req.Password == "" {
		return respondError(c, http.StatusBadRequest, "Email and password are required.")
	}

	account, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return respondError(c, http.StatusUnauthorized, "Invalid email or password.")
	case errors.Is(err, auth.ErrAccountInactive):
		return respondError(c, http.StatusForbidden, "This account is not active.")
	case err != nil:
		slog.Error("login_failed", "error", err)
		return respondInternalError(c)
	}

	cookie, err := h.sessions.Create(account.ID, account.Email)
	if err != nil {
		slog.Error("session_create_failed", "error", err)
		return respondInternalError(c)
	}
	c.SetCookie(cookie)

	return respondOK(c, "Signed in", map[string]any{
		"email": account.Email,
		"name":  account.DisplayName,
	})
}

// Logout clears the session cookie.
func (h *AuthHandlers) Logout(c echo.Context) error {
	c.SetCookie(h.sessions.Clear())
	return respondOK(c, "Signed out", nil)
}

// Me returns the identity of the current session.
func (h *AuthHandlers) Me(c echo.Context) error {
	user, err := h.sessions.Parse(c.Request())
	if err != nil {
		return respondError(c, http.StatusUnauthorized, "Not authenticated.")
	}

	return respondOK(c, "Authenticated", map[string]any{
		"account_id": user.AccountID,
		"email":      user.Email,
	})
}
