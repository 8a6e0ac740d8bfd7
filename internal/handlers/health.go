package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Health reports that the process is serving requests.
func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Belanjain API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
