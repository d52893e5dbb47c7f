package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"clipsmart/errors"
)

// ErrorHandler is the central Fiber error handler. Application errors
// carry their status code, class, and a remediation hint; anything else
// is reported as an unexpected internal error.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"
	class := errors.ClassUnexpected
	suggestion := ""

	if e, ok := err.(*errors.AppError); ok {
		code = e.Code
		message = e.Message
		class = e.Class
		suggestion = e.Suggestion()
	} else if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	log.Error().
		Str("request_id", c.Get("X-Request-ID")).
		Str("path", c.Path()).
		Str("method", c.Method()).
		Int("status", code).
		Str("error_class", string(class)).
		Err(err).
		Msg("Request error")

	body := fiber.Map{
		"success":    false,
		"error":      message,
		"errorClass": string(class),
		"request_id": c.Get("X-Request-ID"),
	}
	if suggestion != "" {
		body["suggestion"] = suggestion
	}

	return c.Status(code).JSON(body)
}
