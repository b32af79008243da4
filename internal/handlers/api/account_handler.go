package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/netdash/authcore/internal/mail"
	"github.com/netdash/authcore/internal/session"
	"github.com/netdash/authcore/internal/users"
)

type AccountHandler struct {
	sessionManager *session.Manager
	mailSender     mail.MailSender
	siteName       string
	baseURL        string
	alertsTo       string
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AccountHandler) PostChangePassword(ctx *fiber.Ctx) error {
	snap := h.sessionManager.Session()
	if snap.User == nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(
			NewErrorResponse(fiber.StatusUnauthorized, "UNAUTHENTICATED", "Sign in first."))
	}

	var req changePasswordRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "BAD_REQUEST", "Malformed request body."))
	}

	err := h.sessionManager.ChangePassword(ctx.Context(), snap.User.Username, req.CurrentPassword, req.NewPassword)
	switch {
	case err == nil:
		return ctx.SendStatus(fiber.StatusNoContent)
	case errors.Is(err, session.ErrInvalidCredentials):
		return ctx.Status(fiber.StatusForbidden).JSON(
			NewErrorResponse(fiber.StatusForbidden, "WRONG_PASSWORD", "Current password is incorrect."))
	case errors.Is(err, users.ErrPasswordTooShort):
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "PASSWORD_TOO_SHORT", err.Error()))
	default:
		slog.Error("Change password failed", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponse(fiber.StatusInternalServerError, "INTERNAL", "Internal server error"))
	}
}

type forgotPasswordRequest struct {
	Username string `json:"username"`
}

// PostForgotPassword always answers the same way; whether the account exists
// is never disclosed to the requester.
func (h *AccountHandler) PostForgotPassword(ctx *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := ctx.BodyParser(&req); err != nil || req.Username == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "BAD_REQUEST", "Username is required."))
	}

	token, err := h.sessionManager.RequestPasswordReset(ctx.Context(), req.Username)
	if err != nil && !errors.Is(err, users.ErrUserNotFound) {
		slog.Error("Password reset request failed", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponse(fiber.StatusInternalServerError, "INTERNAL", "Internal server error"))
	}
	if err == nil && h.alertsTo != "" {
		if mailErr := mail.SendPasswordReset(h.mailSender, h.siteName, h.baseURL, h.alertsTo, req.Username, token); mailErr != nil {
			slog.Error("Password reset mail failed", "username", req.Username, "error", mailErr)
		}
	}
	return ctx.JSON(NewDataResponse(fiber.Map{"status": "ok"}))
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (h *AccountHandler) PostResetPassword(ctx *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := ctx.BodyParser(&req); err != nil || req.Token == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "BAD_REQUEST", "Reset token is required."))
	}

	err := h.sessionManager.ConfirmPasswordReset(ctx.Context(), req.Token, req.NewPassword)
	switch {
	case err == nil:
		return ctx.SendStatus(fiber.StatusNoContent)
	case errors.Is(err, users.ErrResetTokenInvalid):
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "TOKEN_INVALID", "Reset link is invalid or expired."))
	case errors.Is(err, users.ErrPasswordTooShort):
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "PASSWORD_TOO_SHORT", err.Error()))
	default:
		slog.Error("Password reset failed", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponse(fiber.StatusInternalServerError, "INTERNAL", "Internal server error"))
	}
}

func NewAccountHandler(sessionManager *session.Manager, mailSender mail.MailSender, siteName, baseURL, alertsTo string) *AccountHandler {
	return &AccountHandler{
		sessionManager: sessionManager,
		mailSender:     mailSender,
		siteName:       siteName,
		baseURL:        baseURL,
		alertsTo:       alertsTo,
	}
}
