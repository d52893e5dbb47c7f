package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"clipsmart/errors"
	"clipsmart/models"
)

// ClipService is the pipeline surface the clip endpoints consume.
type ClipService interface {
	Run(ctx context.Context, req models.MergeRequest) (*models.MergeResponse, error)
	GetRun(ctx context.Context, id string) (*models.Run, error)
}

type ClipHandler struct {
	service ClipService
}

func NewClipHandler(service ClipService) *ClipHandler {
	return &ClipHandler{service: service}
}

// Merge handles POST /api/clips/merge.
func (h *ClipHandler) Merge(c *fiber.Ctx) error {
	const op = "ClipHandler.Merge"

	var req models.MergeRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.InvalidInput(op, err, "request body must be valid JSON")
	}

	resp, err := h.service.Run(c.Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(resp)
}

// GetRun handles GET /api/clips/runs/:id.
func (h *ClipHandler) GetRun(c *fiber.Ctx) error {
	const op = "ClipHandler.GetRun"

	id := c.Params("id")
	if id == "" {
		return errors.InvalidInput(op, nil, "run ID is required")
	}

	run, err := h.service.GetRun(c.Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    models.NewRunResponse(run),
	})
}
