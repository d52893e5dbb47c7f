package handlers

import (
	"github.com/gofiber/fiber/v2"

	"clipsmart/errors"
	"clipsmart/pipeline"
	"clipsmart/utils"
)

// DownloadsService manages the cached source video directory.
type DownloadsService interface {
	CleanupDownloads(mp4Only, dryRun bool) (int, int64, error)
	DownloadsStatus() (*pipeline.DownloadsStatus, error)
}

type DownloadsHandler struct {
	service DownloadsService
}

func NewDownloadsHandler(service DownloadsService) *DownloadsHandler {
	return &DownloadsHandler{service: service}
}

type cleanupRequest struct {
	Mode   string `json:"mode,omitempty"` // "all" (default) or "mp4only"
	DryRun bool   `json:"dryRun,omitempty"`
}

// Cleanup handles POST /api/downloads/cleanup.
func (h *DownloadsHandler) Cleanup(c *fiber.Ctx) error {
	const op = "DownloadsHandler.Cleanup"

	req := cleanupRequest{Mode: "all"}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return errors.InvalidInput(op, err, "request body must be valid JSON")
		}
	}

	var mp4Only bool
	switch req.Mode {
	case "", "all":
	case "mp4only":
		mp4Only = true
	default:
		return errors.InvalidInput(op, nil, "mode must be \"all\" or \"mp4only\"")
	}

	removed, freed, err := h.service.CleanupDownloads(mp4Only, req.DryRun)
	if err != nil {
		return errors.Internal(op, err, "failed to clean download directory")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"removed": removed,
		"freed":   utils.FormatSize(freed),
		"dryRun":  req.DryRun,
	})
}

// Status handles GET /api/downloads/status.
func (h *DownloadsHandler) Status(c *fiber.Ctx) error {
	const op = "DownloadsHandler.Status"

	status, err := h.service.DownloadsStatus()
	if err != nil {
		return errors.Internal(op, err, "failed to read download directory")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    status,
	})
}
