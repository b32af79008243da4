package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/netdash/authcore/internal/audit"
	"github.com/netdash/authcore/internal/users"
	"github.com/netdash/authcore/model"
)

// AdminHandler hosts user administration and the audit trail. All routes sit
// behind RequireAdmin.
type AdminHandler struct {
	userService *users.UserService
	auditor     *audit.Recorder
}

func (h *AdminHandler) GetUsers(ctx *fiber.Ctx) error {
	list, err := h.userService.ListUsers(ctx.Context())
	if err != nil {
		slog.Error("List users failed", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponse(fiber.StatusInternalServerError, "INTERNAL", "Internal server error"))
	}
	resp := make([]UserInfoResponse, 0, len(list))
	for _, u := range list {
		resp = append(resp, UserInfoResponse{
			ID:          u.ID,
			Username:    u.Username,
			Role:        string(u.Role),
			Status:      string(u.Status),
			LastLoginAt: u.LastLoginAt,
		})
	}
	return ctx.JSON(NewDataResponse(resp))
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *AdminHandler) PostCreateUser(ctx *fiber.Ctx) error {
	var req createUserRequest
	if err := ctx.BodyParser(&req); err != nil || req.Username == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "BAD_REQUEST", "Username, password and role are required."))
	}

	user, err := h.userService.CreateUser(ctx.Context(), req.Username, req.Password, model.Role(req.Role))
	switch {
	case err == nil:
		return ctx.Status(fiber.StatusCreated).JSON(NewDataResponse(UserInfoResponse{
			ID:       user.ID,
			Username: user.Username,
			Role:     string(user.Role),
			Status:   string(user.Status),
		}))
	case errors.Is(err, users.ErrUsernameTaken):
		return ctx.Status(fiber.StatusConflict).JSON(
			NewErrorResponse(fiber.StatusConflict, "USERNAME_TAKEN", "Username already taken."))
	case errors.Is(err, users.ErrInvalidRole), errors.Is(err, users.ErrPasswordTooShort):
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "VALIDATION", err.Error()))
	default:
		slog.Error("Create user failed", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponse(fiber.StatusInternalServerError, "INTERNAL", "Internal server error"))
	}
}

func (h *AdminHandler) PostToggleUser(ctx *fiber.Ctx) error {
	username := ctx.Params("username")
	status, err := h.userService.ToggleStatus(ctx.Context(), username)
	switch {
	case err == nil:
		return ctx.JSON(NewDataResponse(fiber.Map{"username": username, "status": status}))
	case errors.Is(err, users.ErrUserNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(
			NewErrorResponse(fiber.StatusNotFound, "USER_NOT_FOUND", "User not found."))
	case errors.Is(err, users.ErrProtectedUser):
		return ctx.Status(fiber.StatusForbidden).JSON(
			NewErrorResponse(fiber.StatusForbidden, "PROTECTED_ENTITY", "The bootstrap admin cannot be disabled."))
	default:
		slog.Error("Toggle user failed", "username", username, "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponse(fiber.StatusInternalServerError, "INTERNAL", "Internal server error"))
	}
}

func (h *AdminHandler) DeleteUser(ctx *fiber.Ctx) error {
	username := ctx.Params("username")
	err := h.userService.DeleteUser(ctx.Context(), username)
	switch {
	case err == nil:
		return ctx.SendStatus(fiber.StatusNoContent)
	case errors.Is(err, users.ErrUserNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(
			NewErrorResponse(fiber.StatusNotFound, "USER_NOT_FOUND", "User not found."))
	case errors.Is(err, users.ErrProtectedUser):
		return ctx.Status(fiber.StatusForbidden).JSON(
			NewErrorResponse(fiber.StatusForbidden, "PROTECTED_ENTITY", "The bootstrap admin cannot be deleted."))
	default:
		slog.Error("Delete user failed", "username", username, "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponse(fiber.StatusInternalServerError, "INTERNAL", "Internal server error"))
	}
}

func (h *AdminHandler) GetAuditLogs(ctx *fiber.Ctx) error {
	entries, err := h.auditor.List(ctx.Context())
	if err != nil {
		slog.Error("List audit logs failed", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponse(fiber.StatusInternalServerError, "INTERNAL", "Internal server error"))
	}
	return ctx.JSON(NewDataResponse(entries))
}

func (h *AdminHandler) DeleteAuditLogs(ctx *fiber.Ctx) error {
	if err := h.auditor.Clear(ctx.Context()); err != nil {
		slog.Error("Clear audit logs failed", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponse(fiber.StatusInternalServerError, "INTERNAL", "Internal server error"))
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

func NewAdminHandler(userService *users.UserService, auditor *audit.Recorder) *AdminHandler {
	return &AdminHandler{
		userService: userService,
		auditor:     auditor,
	}
}
