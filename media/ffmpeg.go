package media

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"clipsmart/config"
)

// ProbeStream is one stream entry from ffprobe output.
type ProbeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
}

type ProbeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}

type ProbeResult struct {
	Streams []ProbeStream `json:"streams"`
	Format  ProbeFormat   `json:"format"`
}

// HasVideoStream reports whether the container carries at least one
// video stream.
func (p *ProbeResult) HasVideoStream() bool {
	for _, s := range p.Streams {
		if s.CodecType == "video" {
			return true
		}
	}
	return false
}

// DurationSeconds parses the container duration. Zero with an error when
// ffprobe did not report one.
func (p *ProbeResult) DurationSeconds() (float64, error) {
	if p.Format.Duration == "" {
		return 0, errors.New("probe output has no duration")
	}
	return strconv.ParseFloat(p.Format.Duration, 64)
}

// Runner is the narrow adapter the pipeline uses for all subprocess media
// work. The rest of the code never builds command lines itself, and tests
// substitute a fake.
type Runner interface {
	Probe(ctx context.Context, path string) (*ProbeResult, error)
	Transcode(ctx context.Context, args []string, timeout time.Duration) error
}

// ExecRunner shells out to ffmpeg/ffprobe. Tools are judged by exit code
// and output files; stderr is captured for diagnostics only.
type ExecRunner struct {
	config config.FFmpegConfig
	logger zerolog.Logger
}

func NewExecRunner(cfg config.FFmpegConfig, logger zerolog.Logger) *ExecRunner {
	return &ExecRunner{config: cfg, logger: logger}
}

func (r *ExecRunner) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	const op = "ExecRunner.Probe"

	ctx, cancel := context.WithTimeout(ctx, r.config.ProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.config.FFprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		r.logger.Debug().
			Str("operation", op).
			Str("path", path).
			Str("stderr", tail(stderr.String())).
			Msg("ffprobe failed")
		return nil, errors.Wrapf(err, "ffprobe failed: %s", tail(stderr.String()))
	}

	var result ProbeResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, errors.Wrap(err, "unparsable ffprobe output")
	}

	return &result, nil
}

func (r *ExecRunner) Transcode(ctx context.Context, args []string, timeout time.Duration) error {
	const op = "ExecRunner.Transcode"

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.config.FFmpegPath, args...)
	cmd.Stdin = nil

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.logger.Debug().
		Str("operation", op).
		Strs("args", args).
		Msg("Executing ffmpeg")

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errors.Wrapf(ctx.Err(), "ffmpeg timed out after %s", timeout)
		}
		return errors.Wrapf(err, "ffmpeg failed: %s", tail(stderr.String()))
	}

	return nil
}

// tail keeps the last part of a stderr dump; ffmpeg puts the actual error
// at the end after pages of banner output.
func tail(s string) string {
	const max = 512
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
