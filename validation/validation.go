package validation

import (
	"fmt"
	"math"
	"regexp"

	"clipsmart/config"
	"clipsmart/errors"
	"clipsmart/models"
)

// videoIDPattern matches YouTube-style video identifiers. Kept permissive
// on length since the IDs also name files on disk.
var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

type Validator struct {
	config *config.Config
}

func NewValidator(cfg *config.Config) *Validator {
	return &Validator{config: cfg}
}

// ValidateClip performs structural validation of a single clip request.
func (v *Validator) ValidateClip(clip models.ClipRequest) error {
	const op = "Validator.ValidateClip"

	if clip.VideoID == "" {
		return errors.InvalidInput(op, nil, "videoId is required")
	}

	if !videoIDPattern.MatchString(clip.VideoID) {
		return errors.InvalidInput(op, nil, fmt.Sprintf("invalid videoId: %q", clip.VideoID))
	}

	if math.IsNaN(clip.StartTime) || math.IsInf(clip.StartTime, 0) ||
		math.IsNaN(clip.EndTime) || math.IsInf(clip.EndTime, 0) {
		return errors.InvalidInput(op, nil, "startTime and endTime must be finite numbers")
	}

	if clip.StartTime < 0 {
		return errors.InvalidInput(op, nil, "startTime must not be negative")
	}

	if clip.EndTime <= clip.StartTime {
		return errors.InvalidInput(op, nil, fmt.Sprintf(
			"invalid time range: startTime (%v) >= endTime (%v)", clip.StartTime, clip.EndTime))
	}

	if max := v.config.Pipeline.MaxClipSpan; max > 0 && clip.Duration() > max {
		return errors.InvalidInput(op, nil, fmt.Sprintf(
			"clip duration %.1fs exceeds maximum of %.0fs", clip.Duration(), max))
	}

	return nil
}

// ValidateBatch validates the whole request before any I/O happens.
// The first violation fails the run; nothing has been created yet.
func (v *Validator) ValidateBatch(req models.MergeRequest) error {
	const op = "Validator.ValidateBatch"

	if len(req.Clips) == 0 {
		return errors.InvalidInput(op, nil, "no clips provided")
	}

	if max := v.config.Pipeline.MaxClips; max > 0 && len(req.Clips) > max {
		return errors.InvalidInput(op, nil, fmt.Sprintf(
			"too many clips: %d (maximum %d)", len(req.Clips), max))
	}

	for i, clip := range req.Clips {
		if err := v.ValidateClip(clip); err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				appErr.Message = fmt.Sprintf("clip %d: %s", i, appErr.Message)
				return appErr
			}
			return err
		}
	}

	return nil
}
