package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles GET /health.
func HealthHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
