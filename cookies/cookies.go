package cookies

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	apperrors "clipsmart/errors"
)

// validHeaders are the first-line markers of a Netscape cookie file.
var validHeaders = []string{
	"# HTTP Cookie File",
	"# Netscape HTTP Cookie File",
}

// minFileSize rejects truncated jars; a usable YouTube cookie file is
// always larger than this.
const minFileSize = 100

// checkVideoURL is a known-public video used to verify that cookies still
// authenticate.
const checkVideoURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

// Refresher re-acquires session credentials through an external
// interactive-login collaborator. Refresh is operator-scheduled or run
// best-effort before a batch; the acquirer itself never calls it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// NoopRefresher is the default when no login collaborator is wired in.
type NoopRefresher struct{}

func (NoopRefresher) Refresh(context.Context) error {
	return errors.New("no cookie refresher configured")
}

// Status reports the observable state of the cookie jar.
type Status struct {
	HasCookies       bool   `json:"has_cookies"`
	ValidFormat      bool   `json:"valid_format"`
	WorksWithYouTube bool   `json:"works_with_youtube"`
	FileSize         int64  `json:"file_size,omitempty"`
	LastModified     string `json:"last_modified,omitempty"`
	Error            string `json:"error,omitempty"`
}

// FileProvider serves session cookies from a Netscape-format file on
// disk, the format yt-dlp consumes directly.
type FileProvider struct {
	path         string
	ytDlpPath    string
	checkTimeout time.Duration
	refresher    Refresher
	logger       zerolog.Logger
}

func NewFileProvider(path, ytDlpPath string, checkTimeout time.Duration, refresher Refresher, logger zerolog.Logger) *FileProvider {
	if refresher == nil {
		refresher = NoopRefresher{}
	}
	return &FileProvider{
		path:         path,
		ytDlpPath:    ytDlpPath,
		checkTimeout: checkTimeout,
		refresher:    refresher,
		logger:       logger,
	}
}

// Current returns the cookie file path, or ok=false when no usable jar
// exists. Staleness is not checked here; a stale jar simply makes the
// authenticated download strategy fail and the next strategy run.
func (p *FileProvider) Current() (string, bool) {
	if !ValidFile(p.path) {
		return "", false
	}
	return p.path, true
}

// Install validates and writes an uploaded cookie file.
func (p *FileProvider) Install(data []byte) error {
	const op = "FileProvider.Install"

	if len(data) < minFileSize || !hasValidHeader(bytes.NewReader(data)) {
		return apperrors.InvalidInput(op, nil, "invalid cookies file format or size")
	}

	if err := os.WriteFile(p.path, data, 0600); err != nil {
		return apperrors.Internal(op, err, "failed to save cookies file")
	}
	return nil
}

// Check verifies the jar authenticates against YouTube by asking yt-dlp
// to print a title without downloading.
func (p *FileProvider) Check(ctx context.Context) error {
	const op = "FileProvider.Check"

	if !ValidFile(p.path) {
		return errors.New("cookie file missing or malformed")
	}

	ctx, cancel := context.WithTimeout(ctx, p.checkTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.ytDlpPath,
		"--cookies", p.path,
		"--skip-download",
		"--print", "title",
		checkVideoURL,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "cookie check failed: %s", strings.TrimSpace(stderr.String()))
	}
	if strings.Contains(stderr.String(), "Sign in to confirm") {
		return errors.New("cookies rejected: sign-in challenge")
	}

	p.logger.Debug().Str("operation", op).Msg("Cookies validated")
	return nil
}

// EnsureFresh checks the jar and invokes the refresher once when the
// check fails. Best-effort: callers log the returned error and proceed,
// since unauthenticated strategies may still succeed.
func (p *FileProvider) EnsureFresh(ctx context.Context) error {
	if err := p.Check(ctx); err == nil {
		return nil
	}

	p.logger.Info().Msg("Cookies invalid or missing, attempting refresh")
	if err := p.refresher.Refresh(ctx); err != nil {
		return errors.Wrap(err, "cookie refresh failed")
	}
	return p.Check(ctx)
}

// Status gathers the jar's state for the status endpoint.
func (p *FileProvider) Status(ctx context.Context) Status {
	info, err := os.Stat(p.path)
	if err != nil || info.Size() < minFileSize {
		return Status{}
	}

	st := Status{
		HasCookies:   true,
		ValidFormat:  ValidFile(p.path),
		FileSize:     info.Size(),
		LastModified: info.ModTime().Format(time.RFC3339),
	}
	if !st.ValidFormat {
		return st
	}

	if err := p.Check(ctx); err != nil {
		st.Error = err.Error()
	} else {
		st.WorksWithYouTube = true
	}
	return st
}

// ValidFile reports whether path holds a plausibly valid Netscape cookie
// file: present, above the size floor, with a recognized header line.
func ValidFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.Size() < minFileSize {
		return false
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	return hasValidHeader(f)
}

func hasValidHeader(r interface{ Read([]byte) (int, error) }) bool {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return false
	}
	first := strings.TrimSpace(scanner.Text())
	for _, header := range validHeaders {
		if strings.HasPrefix(first, header) {
			return true
		}
	}
	return false
}
