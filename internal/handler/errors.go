package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/gitgrade-analyzer/internal/port"
)

// ErrorHandler keeps errors raised outside the handlers (oversized bodies,
// unknown routes) on the { "error": ... } contract. An oversized body can
// only be an oversized repository URL, so it is reported as InvalidUrl.
func ErrorHandler(c fiber.Ctx, err error) error {
	if errors.Is(err, fiber.ErrRequestEntityTooLarge) {
		return fail(c, port.ErrInvalidURL)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	slog.Error("unhandled request error", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": port.MsgAnalysisFailed})
}
