package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"clipsmart/errors"
	"clipsmart/models"
)

type TranscriptService interface {
	Get(ctx context.Context, videoID string) ([]models.TranscriptSegment, error)
}

type TranscriptHandler struct {
	service TranscriptService
}

func NewTranscriptHandler(service TranscriptService) *TranscriptHandler {
	return &TranscriptHandler{service: service}
}

// Get handles GET /api/transcript/:videoId.
func (h *TranscriptHandler) Get(c *fiber.Ctx) error {
	const op = "TranscriptHandler.Get"

	videoID := c.Params("videoId")
	if videoID == "" {
		return errors.InvalidInput(op, nil, "videoId is required")
	}

	segments, err := h.service.Get(c.Context(), videoID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"message":       "Transcript fetched successfully",
		"data":          segments,
		"totalSegments": len(segments),
	})
}
