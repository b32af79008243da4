package middlewares

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/netdash/authcore/internal/handlers/api"
)

func ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	if code == fiber.StatusInternalServerError {
		slog.Error("Unhandled error", "path", ctx.Path(), "error", err)
		return ctx.Status(code).JSON(api.NewErrorResponse(code, "INTERNAL", "Internal server error"))
	}
	return ctx.Status(code).JSON(api.NewErrorResponse(code, "", err.Error()))
}
