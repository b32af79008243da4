package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/netdash/authcore/internal/session"
	"github.com/netdash/authcore/internal/users"
)

// TwoFactorHandler covers self-service TOTP enrollment plus the admin
// recovery reset.
type TwoFactorHandler struct {
	sessionManager *session.Manager
}

type enrollBeginResponse struct {
	Secret          string `json:"secret"`
	ProvisioningURL string `json:"provisioningUrl"`
}

func (h *TwoFactorHandler) PostEnrollBegin(ctx *fiber.Ctx) error {
	snap := h.sessionManager.Session()
	if snap.User == nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(
			NewErrorResponse(fiber.StatusUnauthorized, "UNAUTHENTICATED", "Sign in first."))
	}

	secret, provisioningURL, err := h.sessionManager.EnrollMfaBegin(snap.User.Username)
	if err != nil {
		slog.Error("MFA enrollment begin failed", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponse(fiber.StatusInternalServerError, "INTERNAL", "Internal server error"))
	}
	return ctx.JSON(NewDataResponse(enrollBeginResponse{
		Secret:          secret,
		ProvisioningURL: provisioningURL,
	}))
}

type enrollConfirmRequest struct {
	Secret string `json:"secret"`
	Code   string `json:"code"`
}

func (h *TwoFactorHandler) PostEnrollConfirm(ctx *fiber.Ctx) error {
	snap := h.sessionManager.Session()
	if snap.User == nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(
			NewErrorResponse(fiber.StatusUnauthorized, "UNAUTHENTICATED", "Sign in first."))
	}

	var req enrollConfirmRequest
	if err := ctx.BodyParser(&req); err != nil || req.Secret == "" || req.Code == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "BAD_REQUEST", "Secret and code are required."))
	}

	enrolled, err := h.sessionManager.EnrollMfaConfirm(ctx.Context(), snap.User.Username, req.Secret, req.Code)
	if err != nil {
		slog.Error("MFA enrollment confirm failed", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponse(fiber.StatusInternalServerError, "INTERNAL", "Internal server error"))
	}
	if !enrolled {
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "INVALID_CODE", "Invalid verification code."))
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

type disableMfaRequest struct {
	Confirm bool `json:"confirm"`
}

func (h *TwoFactorHandler) PostDisable(ctx *fiber.Ctx) error {
	snap := h.sessionManager.Session()
	if snap.User == nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(
			NewErrorResponse(fiber.StatusUnauthorized, "UNAUTHENTICATED", "Sign in first."))
	}

	var req disableMfaRequest
	if err := ctx.BodyParser(&req); err != nil || !req.Confirm {
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "CONFIRM_REQUIRED", "Disabling MFA must be confirmed."))
	}

	if err := h.sessionManager.DisableMfa(ctx.Context(), snap.User.Username); err != nil {
		slog.Error("MFA disable failed", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponse(fiber.StatusInternalServerError, "INTERNAL", "Internal server error"))
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

// PostResetMfa wipes another user's enrollment. Admin only, routed behind
// RequireAdmin.
func (h *TwoFactorHandler) PostResetMfa(ctx *fiber.Ctx) error {
	username := ctx.Params("username")
	err := h.sessionManager.ResetMfa(ctx.Context(), username)
	switch {
	case err == nil:
		return ctx.SendStatus(fiber.StatusNoContent)
	case errors.Is(err, users.ErrUserNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(
			NewErrorResponse(fiber.StatusNotFound, "USER_NOT_FOUND", "User not found."))
	default:
		slog.Error("MFA reset failed", "username", username, "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponse(fiber.StatusInternalServerError, "INTERNAL", "Internal server error"))
	}
}

func NewTwoFactorHandler(sessionManager *session.Manager) *TwoFactorHandler {
	return &TwoFactorHandler{sessionManager: sessionManager}
}
