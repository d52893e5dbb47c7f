package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	tests := []struct {
		name    string
		path    func() string
		probeFn func(path string) (*ProbeResult, error)
		wantErr bool
	}{
		{
			name:    "Missing file",
			path:    func() string { return filepath.Join(dir, "absent.mp4") },
			wantErr: true,
		},
		{
			name:    "Below size floor",
			path:    func() string { return writeFile(t, dir, "tiny.mp4", 100) },
			wantErr: true,
		},
		{
			name: "Probe failure",
			path: func() string { return writeFile(t, dir, "broken.mp4", 4096) },
			probeFn: func(string) (*ProbeResult, error) {
				return nil, errScripted
			},
			wantErr: true,
		},
		{
			name: "No video stream",
			path: func() string { return writeFile(t, dir, "audio.mp4", 4096) },
			probeFn: func(string) (*ProbeResult, error) {
				return &ProbeResult{
					Streams: []ProbeStream{{CodecType: "audio", CodecName: "aac"}},
				}, nil
			},
			wantErr: true,
		},
		{
			name:    "Valid video",
			path:    func() string { return writeFile(t, dir, "good.mp4", 4096) },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{probeFn: tt.probeFn}
			validator := NewValidator(runner, 1024)

			err := validator.Validate(ctx, tt.path())
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "video.mp4", 4096)

	validator := NewValidator(&fakeRunner{}, 1024)

	first := validator.Validate(context.Background(), path)
	second := validator.Validate(context.Background(), path)

	if (first == nil) != (second == nil) {
		t.Errorf("validator verdict changed between calls: first=%v second=%v", first, second)
	}
	if first != nil {
		t.Errorf("expected valid verdict, got %v", first)
	}
}

func TestValidateSizeFloorShortCircuitsProbe(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tiny.mp4", 10)

	runner := &fakeRunner{}
	validator := NewValidator(runner, 1024)

	if err := validator.Validate(context.Background(), path); err == nil {
		t.Fatal("expected size-floor rejection")
	}
	if len(runner.probeCalls) != 0 {
		t.Errorf("probe called %d times for an undersized file, want 0", len(runner.probeCalls))
	}
}
