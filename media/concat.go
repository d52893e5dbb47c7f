package media

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"clipsmart/config"
	apperrors "clipsmart/errors"
)

type concatStrategy struct {
	name string
	args func(manifest, dst string) []string
}

var concatStrategies = []concatStrategy{
	{
		// Stream-copy concat works when all segments share codec
		// parameters, which holds for segments the Trimmer re-encoded.
		name: "copy",
		args: func(manifest, dst string) []string {
			return []string{
				"-f", "concat",
				"-safe", "0",
				"-i", manifest,
				"-c", "copy",
				"-y", dst,
			}
		},
	},
	{
		name: "reencode",
		args: func(manifest, dst string) []string {
			return []string{
				"-f", "concat",
				"-safe", "0",
				"-i", manifest,
				"-c:v", "libx264",
				"-preset", "fast",
				"-c:a", "aac",
				"-y", dst,
			}
		},
	},
}

// Assembler concatenates an ordered list of trimmed segments into one
// merged output file.
type Assembler struct {
	runner    Runner
	validator *Validator
	config    config.FFmpegConfig
	logger    zerolog.Logger
}

func NewAssembler(runner Runner, validator *Validator, cfg config.FFmpegConfig, logger zerolog.Logger) *Assembler {
	return &Assembler{
		runner:    runner,
		validator: validator,
		config:    cfg,
		logger:    logger,
	}
}

// Assemble writes the ordered manifest, runs the concat strategies, and
// validates the result. The manifest never outlives the call.
func (a *Assembler) Assemble(ctx context.Context, segmentPaths []string, manifestPath, outputPath string) error {
	const op = "Assembler.Assemble"

	if len(segmentPaths) == 0 {
		return apperrors.MergeFailed(op, nil, "no segments to assemble")
	}

	if err := WriteManifest(manifestPath, segmentPaths); err != nil {
		return apperrors.MergeFailed(op, err, "failed to write concat manifest")
	}
	defer os.Remove(manifestPath)

	var attempts []string

	for _, strategy := range concatStrategies {
		tmpPath := fmt.Sprintf("%s.%s.tmp.mp4", strings.TrimSuffix(outputPath, ".mp4"), strategy.name)

		err := a.runner.Transcode(ctx, strategy.args(manifestPath, tmpPath), a.config.MergeTimeout)
		if err == nil {
			err = a.validator.Validate(ctx, tmpPath)
		}
		if err != nil {
			os.Remove(tmpPath)
			attempts = append(attempts, fmt.Sprintf("%s: %v", strategy.name, err))
			a.logger.Warn().
				Str("operation", op).
				Str("strategy", strategy.name).
				Err(err).
				Msg("Concat strategy failed")
			continue
		}

		if err := os.Rename(tmpPath, outputPath); err != nil {
			os.Remove(tmpPath)
			return apperrors.MergeFailed(op, err, "failed to move merged file into place")
		}

		a.logger.Info().
			Str("operation", op).
			Str("strategy", strategy.name).
			Int("segments", len(segmentPaths)).
			Str("output", outputPath).
			Msg("Segments merged")
		return nil
	}

	return apperrors.MergeFailed(op, nil, fmt.Sprintf(
		"all concat strategies failed: %s", strings.Join(attempts, "; ")))
}

// WriteManifest writes the ffmpeg concat demuxer file list, one segment
// per line in input order. Paths are single-quoted with embedded quotes
// escaped so special characters survive.
func WriteManifest(path string, segmentPaths []string) error {
	var b strings.Builder
	for _, p := range segmentPaths {
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(p, "'", `'\''`))
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}
