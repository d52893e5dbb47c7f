package media

import (
	"context"
	"fmt"
	"os"
)

// InvalidMediaError describes why a file failed media validation.
type InvalidMediaError struct {
	Path   string
	Reason string
}

func (e *InvalidMediaError) Error() string {
	return fmt.Sprintf("invalid media %s: %s", e.Path, e.Reason)
}

// Validator decides whether a local file is a playable video suitable for
// trimming or concatenation. All checks are reads; calling it repeatedly
// on an unchanged file yields the same verdict.
type Validator struct {
	runner      Runner
	minFileSize int64
}

func NewValidator(runner Runner, minFileSize int64) *Validator {
	return &Validator{runner: runner, minFileSize: minFileSize}
}

// Validate short-circuits on the first failed check: existence, size
// floor, then container probe with at least one video stream.
func (v *Validator) Validate(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &InvalidMediaError{Path: path, Reason: "file does not exist"}
	}

	if info.Size() < v.minFileSize {
		return &InvalidMediaError{
			Path:   path,
			Reason: fmt.Sprintf("file too small (%d bytes, minimum %d)", info.Size(), v.minFileSize),
		}
	}

	probe, err := v.runner.Probe(ctx, path)
	if err != nil {
		return &InvalidMediaError{Path: path, Reason: fmt.Sprintf("probe failed: %v", err)}
	}

	if !probe.HasVideoStream() {
		return &InvalidMediaError{Path: path, Reason: "no video stream"}
	}

	return nil
}
