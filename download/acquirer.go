package download

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apperrors "clipsmart/errors"
	"clipsmart/media"
	"clipsmart/retry"
)

// Acquirer produces a validated local source file for a video ID by
// running an ordered list of strategies until one delivers. Every
// strategy writes to its own temp path and the result is renamed into
// place only after validation, so a concurrent run never observes a
// partially written source.
type Acquirer struct {
	strategies []Strategy
	validator  *media.Validator
	limiter    *rate.Limiter
	policy     retry.Policy
	logger     zerolog.Logger
}

func NewAcquirer(
	strategies []Strategy,
	validator *media.Validator,
	limiter *rate.Limiter,
	policy retry.Policy,
	logger zerolog.Logger,
) *Acquirer {
	return &Acquirer{
		strategies: strategies,
		validator:  validator,
		limiter:    limiter,
		policy:     policy,
		logger:     logger,
	}
}

// Acquire ensures a validated source file exists at destPath. A valid
// file already present is reused untouched.
func (a *Acquirer) Acquire(ctx context.Context, videoID, destPath string) error {
	const op = "Acquirer.Acquire"
	logger := a.logger.With().Str("operation", op).Str("video_id", videoID).Logger()

	if err := a.validator.Validate(ctx, destPath); err == nil {
		logger.Debug().Str("path", destPath).Msg("Reusing cached source")
		return nil
	}

	var attempts []AttemptError

	for _, strategy := range a.strategies {
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				return apperrors.AcquisitionFailed(op, err, "acquisition cancelled")
			}
		}

		// The temp path keeps the .mp4 extension: yt-dlp corrects the
		// output extension when merging video and audio streams, so a
		// non-media suffix would make the merged file land elsewhere.
		tmpPath := fmt.Sprintf("%s.%s.tmp.mp4", strings.TrimSuffix(destPath, ".mp4"), strategy.Name())

		err := a.policy.Do(ctx, func() error {
			os.Remove(tmpPath)
			return strategy.Fetch(ctx, videoID, tmpPath)
		})
		if err == nil {
			err = a.validator.Validate(ctx, tmpPath)
		}
		if err == nil {
			err = os.Rename(tmpPath, destPath)
		}

		if err != nil {
			os.Remove(tmpPath)
			attempts = append(attempts, AttemptError{Strategy: strategy.Name(), Err: err})
			logger.Warn().
				Str("strategy", strategy.Name()).
				Err(err).
				Msg("Acquisition strategy failed")
			continue
		}

		logger.Info().
			Str("strategy", strategy.Name()).
			Int("failed_attempts", len(attempts)).
			Str("path", destPath).
			Msg("Source acquired")
		return nil
	}

	return apperrors.AcquisitionFailed(op, nil, fmt.Sprintf(
		"all %d download strategies failed for %s: %s",
		len(a.strategies), videoID, joinAttempts(attempts)))
}

func joinAttempts(attempts []AttemptError) string {
	parts := make([]string, len(attempts))
	for i, a := range attempts {
		parts[i] = a.Error()
	}
	return strings.Join(parts, "; ")
}
