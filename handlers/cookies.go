package handlers

import (
	"context"
	"io"

	"github.com/gofiber/fiber/v2"

	"clipsmart/cookies"
	"clipsmart/errors"
)

// CookieProvider is the credential surface the cookie endpoints consume.
type CookieProvider interface {
	Install(data []byte) error
	Status(ctx context.Context) cookies.Status
}

type CookieHandler struct {
	provider CookieProvider
}

func NewCookieHandler(provider CookieProvider) *CookieHandler {
	return &CookieHandler{provider: provider}
}

// Upload handles POST /api/cookies. The jar arrives as a multipart file
// under the field the original web client uses.
func (h *CookieHandler) Upload(c *fiber.Ctx) error {
	const op = "CookieHandler.Upload"

	fileHeader, err := c.FormFile("cookiesFile")
	if err != nil {
		return errors.InvalidInput(op, err, "no cookies file provided")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return errors.Internal(op, err, "failed to open uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return errors.Internal(op, err, "failed to read uploaded file")
	}

	if err := h.provider.Install(data); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cookies file uploaded successfully",
	})
}

// Status handles GET /api/cookies/status.
func (h *CookieHandler) Status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.provider.Status(c.Context()),
	})
}
