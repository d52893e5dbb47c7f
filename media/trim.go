package media

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"clipsmart/config"
	apperrors "clipsmart/errors"
)

// trimStrategy is one self-contained attempt at cutting a time range out
// of a source file. Strategies are ordered by increasing robustness and
// decreasing speed.
type trimStrategy struct {
	name string
	args func(src, dst string, start, end float64) []string
}

var trimStrategies = []trimStrategy{
	{
		// Cut without re-encoding. Fast, but fails on codecs that cannot
		// be copy-cut at arbitrary offsets or on corrupt timestamps.
		name: "copy",
		args: func(src, dst string, start, end float64) []string {
			return []string{
				"-i", src,
				"-ss", formatSeconds(start),
				"-to", formatSeconds(end),
				"-c", "copy",
				"-y", dst,
			}
		},
	},
	{
		// Re-encode to H.264/AAC with a normalized pixel format so that
		// segments from different sources concatenate cleanly.
		name: "reencode",
		args: func(src, dst string, start, end float64) []string {
			return []string{
				"-i", src,
				"-ss", formatSeconds(start),
				"-to", formatSeconds(end),
				"-c:v", "libx264",
				"-preset", "fast",
				"-crf", "23",
				"-pix_fmt", "yuv420p",
				"-c:a", "aac",
				"-b:a", "128k",
				"-y", dst,
			}
		},
	},
	{
		// Same encode, but skip unparsable packets and regenerate timing
		// for sources with corrupt internal metadata.
		name: "tolerant",
		args: func(src, dst string, start, end float64) []string {
			return []string{
				"-err_detect", "ignore_err",
				"-fflags", "+genpts",
				"-i", src,
				"-ss", formatSeconds(start),
				"-to", formatSeconds(end),
				"-c:v", "libx264",
				"-preset", "fast",
				"-crf", "23",
				"-pix_fmt", "yuv420p",
				"-c:a", "aac",
				"-b:a", "128k",
				"-y", dst,
			}
		},
	},
}

// Trimmer produces validated trimmed segments from a source asset.
type Trimmer struct {
	runner    Runner
	validator *Validator
	config    config.FFmpegConfig
	logger    zerolog.Logger
}

func NewTrimmer(runner Runner, validator *Validator, cfg config.FFmpegConfig, logger zerolog.Logger) *Trimmer {
	return &Trimmer{
		runner:    runner,
		validator: validator,
		config:    cfg,
		logger:    logger,
	}
}

// Trim cuts [start, end) seconds out of sourcePath into outputPath,
// trying each strategy in turn. Each attempt writes to a fresh temp path;
// partial output never survives a failed attempt.
func (t *Trimmer) Trim(ctx context.Context, sourcePath string, start, end float64, outputPath string) error {
	const op = "Trimmer.Trim"

	var attempts []string

	for _, strategy := range trimStrategies {
		tmpPath := fmt.Sprintf("%s.%s.tmp.mp4", strings.TrimSuffix(outputPath, ".mp4"), strategy.name)

		err := t.runner.Transcode(ctx, strategy.args(sourcePath, tmpPath, start, end), t.config.TrimTimeout)
		if err == nil {
			err = t.validator.Validate(ctx, tmpPath)
		}
		if err != nil {
			os.Remove(tmpPath)
			attempts = append(attempts, fmt.Sprintf("%s: %v", strategy.name, err))
			t.logger.Warn().
				Str("operation", op).
				Str("strategy", strategy.name).
				Str("source", sourcePath).
				Err(err).
				Msg("Trim strategy failed")
			continue
		}

		t.checkDuration(ctx, tmpPath, end-start, strategy.name)

		if err := os.Rename(tmpPath, outputPath); err != nil {
			os.Remove(tmpPath)
			return apperrors.TrimFailed(op, err, "failed to move trimmed segment into place")
		}

		t.logger.Info().
			Str("operation", op).
			Str("strategy", strategy.name).
			Str("segment", outputPath).
			Float64("start", start).
			Float64("end", end).
			Msg("Segment trimmed")
		return nil
	}

	return apperrors.TrimFailed(op, nil, fmt.Sprintf(
		"all trim strategies failed for %s: %s", sourcePath, strings.Join(attempts, "; ")))
}

// checkDuration warns when the produced segment drifts further from the
// requested range than the tolerance allows. Encoders snap to keyframes,
// so drift is logged rather than treated as failure.
func (t *Trimmer) checkDuration(ctx context.Context, path string, want float64, strategy string) {
	probe, err := t.runner.Probe(ctx, path)
	if err != nil {
		return
	}
	got, err := probe.DurationSeconds()
	if err != nil {
		return
	}
	if drift := math.Abs(got - want); drift > t.config.DurationTolerance {
		t.logger.Warn().
			Str("strategy", strategy).
			Str("segment", path).
			Float64("requested", want).
			Float64("actual", got).
			Float64("drift", drift).
			Msg("Trimmed segment duration drifted beyond tolerance")
	}
}

func formatSeconds(s float64) string {
	return fmt.Sprintf("%.3f", s)
}
