package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/example/belanjain/internal/services"
)

// StatusFor maps an error returned by a handler to its HTTP status.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrInvalidPromoCode):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrPersistence):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders errors in the {"success": false, "message": ...}
// envelope. Internal failures are logged and hidden from the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := StatusFor(err)

	message := err.Error()
	var svcErr *services.Error
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		message = fe.Message
	case errors.As(err, &svcErr):
		message = svcErr.Message()
	}

	if status >= fiber.StatusInternalServerError {
		slog.ErrorContext(c.UserContext(), "request failed",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"error", err,
		)
		switch {
		case status == fiber.StatusGatewayTimeout:
			message = "request timed out"
		case svcErr == nil && fe == nil:
			message = "internal server error"
		}
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
