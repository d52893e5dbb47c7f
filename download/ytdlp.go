package download

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"

	"clipsmart/config"
	"clipsmart/cookies"
)

// YtDlpStrategy downloads through the yt-dlp executable, with or without
// session cookies. The authenticated variant ranks first in the strategy
// order; stale cookies just make it fail and the loop move on.
type YtDlpStrategy struct {
	binPath    string
	timeout    time.Duration
	maxHeight  int
	useCookies bool
	cookies    *cookies.FileProvider
	proxies    *proxyPool
}

func NewYtDlpStrategy(cfg config.DownloadConfig, provider *cookies.FileProvider, useCookies bool) *YtDlpStrategy {
	return &YtDlpStrategy{
		binPath:    cfg.YtDlpPath,
		timeout:    cfg.Timeout,
		maxHeight:  cfg.MaxHeight,
		useCookies: useCookies,
		cookies:    provider,
		proxies:    newProxyPool(cfg.Proxies),
	}
}

func (s *YtDlpStrategy) Name() string {
	if s.useCookies {
		return "yt-dlp-cookies"
	}
	return "yt-dlp"
}

func (s *YtDlpStrategy) Fetch(ctx context.Context, videoID, destPath string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	format := fmt.Sprintf(
		"bestvideo[ext=mp4][height<=%d]+bestaudio[ext=m4a]/mp4/best[height<=%d]",
		s.maxHeight, s.maxHeight,
	)

	args := []string{
		"-f", format,
		"--merge-output-format", "mp4",
		"--no-playlist",
		"--retries", "1",
		"-o", destPath,
	}

	if s.useCookies {
		jar, ok := s.cookies.Current()
		if !ok {
			return errors.New("no valid cookie file available")
		}
		args = append(args, "--cookies", jar)
	}

	if proxy := s.proxies.pick(); proxy != nil {
		args = append(args, "--proxy", proxy.String())
	}

	args = append(args, "https://www.youtube.com/watch?v="+videoID)

	cmd := exec.CommandContext(ctx, s.binPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(destPath)
		return errors.Wrapf(err, "yt-dlp failed: %s", lastLine(stderr.String()))
	}

	info, err := os.Stat(destPath)
	if err != nil || info.Size() == 0 {
		os.Remove(destPath)
		return errors.New("yt-dlp reported success but produced no file")
	}

	return nil
}

// lastLine extracts the final stderr line, where yt-dlp prints its error.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
