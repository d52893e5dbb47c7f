package media

import (
	"context"
	"errors"
	"os"
	"time"
)

// fakeRunner scripts subprocess outcomes without touching ffmpeg. On a
// successful Transcode it writes the output file (last argument) so the
// validator's size checks behave like the real tool.
type fakeRunner struct {
	transcodeCalls [][]string
	probeCalls     []string

	// transcodeErrs is consumed one per call; nil entries succeed.
	// Calls past the end succeed.
	transcodeErrs []error

	// outputSize controls the bytes written for successful transcodes.
	outputSize int

	// probeFn overrides the default probe behavior when set.
	probeFn func(path string) (*ProbeResult, error)

	// probeDuration is reported by the default probe.
	probeDuration string
}

func (f *fakeRunner) Transcode(_ context.Context, args []string, _ time.Duration) error {
	f.transcodeCalls = append(f.transcodeCalls, args)

	call := len(f.transcodeCalls) - 1
	if call < len(f.transcodeErrs) && f.transcodeErrs[call] != nil {
		return f.transcodeErrs[call]
	}

	size := f.outputSize
	if size == 0 {
		size = 4096
	}
	return os.WriteFile(args[len(args)-1], make([]byte, size), 0644)
}

func (f *fakeRunner) Probe(_ context.Context, path string) (*ProbeResult, error) {
	f.probeCalls = append(f.probeCalls, path)
	if f.probeFn != nil {
		return f.probeFn(path)
	}
	duration := f.probeDuration
	if duration == "" {
		duration = "5.0"
	}
	return &ProbeResult{
		Streams: []ProbeStream{{CodecType: "video", CodecName: "h264"}},
		Format:  ProbeFormat{FormatName: "mov,mp4", Duration: duration},
	}, nil
}

var errScripted = errors.New("scripted failure")
