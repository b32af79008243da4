package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/netdash/authcore/internal/session"
	"github.com/netdash/authcore/model"
)

// ActivityTracker refreshes the idle clock on every request that reaches the
// API while a session is authenticated.
func ActivityTracker(manager *session.Manager) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		manager.Touch()
		return ctx.Next()
	}
}

func RequireAuth(manager *session.Manager) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if !manager.Session().Authenticated {
			return ctx.Status(fiber.StatusUnauthorized).JSON(
				NewErrorResponse(fiber.StatusUnauthorized, "UNAUTHENTICATED", "Sign in first."))
		}
		return ctx.Next()
	}
}

// RequireAdmin gates write operations on the role the session manager
// exposes. Feature-level authorization is the caller's job, and the API is
// that caller.
func RequireAdmin(manager *session.Manager) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		snap := manager.Session()
		if !snap.Authenticated {
			return ctx.Status(fiber.StatusUnauthorized).JSON(
				NewErrorResponse(fiber.StatusUnauthorized, "UNAUTHENTICATED", "Sign in first."))
		}
		if snap.Role != model.RoleAdmin {
			return ctx.Status(fiber.StatusForbidden).JSON(
				NewErrorResponse(fiber.StatusForbidden, "FORBIDDEN", "Admin role required."))
		}
		return ctx.Next()
	}
}
