package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// SessionHeader identifies the shopper's cart and wishlist.
const SessionHeader = "X-Session-ID"

const sessionContextKey = "sessionID"

// RequireSession rejects requests without a session header.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := strings.TrimSpace(c.Get(SessionHeader))
		if session == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing "+SessionHeader+" header")
		}
		if len(session) > 128 {
			return fiber.NewError(fiber.StatusBadRequest, SessionHeader+" header is too long")
		}

		c.Locals(sessionContextKey, session)
		return c.Next()
	}
}

// GetSessionID returns the session set by RequireSession.
func GetSessionID(c *fiber.Ctx) string {
	session, _ := c.Locals(sessionContextKey).(string)
	return session
}

// RequestTimeout bounds the user context handed to services with timeout.
func RequestTimeout(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if timeout <= 0 {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		c.SetUserContext(ctx)
		return c.Next()
	}
}
