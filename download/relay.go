package download

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"

	"clipsmart/config"
)

// RelayStrategy fetches a direct download URL from a third-party relay
// API and streams the media to disk. Last resort after the yt-dlp
// strategies; useful when YouTube blocks direct downloads entirely.
type RelayStrategy struct {
	client  *http.Client
	apiURL  string
	apiKey  string
	apiHost string
}

func NewRelayStrategy(cfg config.DownloadConfig) *RelayStrategy {
	client := &http.Client{Timeout: timeoutOrDefault(cfg.Timeout)}
	if pool := newProxyPool(cfg.Proxies); !pool.empty() {
		client.Transport = &http.Transport{Proxy: pool.transportProxy}
	}
	return &RelayStrategy{
		client:  client,
		apiURL:  cfg.RelayAPIURL,
		apiKey:  cfg.RelayAPIKey,
		apiHost: cfg.RelayAPIHost,
	}
}

func (s *RelayStrategy) Name() string { return "relay-api" }

type relayResponse struct {
	AdaptiveFormats []struct {
		URL string `json:"url"`
	} `json:"adaptiveFormats"`
}

func (s *RelayStrategy) Fetch(ctx context.Context, videoID, destPath string) error {
	if s.apiKey == "" {
		return errors.New("relay API key not configured")
	}

	downloadURL, err := s.resolve(ctx, videoID)
	if err != nil {
		return err
	}

	return s.stream(ctx, downloadURL, destPath)
}

func (s *RelayStrategy) resolve(ctx context.Context, videoID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?id=%s", s.apiURL, videoID), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("x-rapidapi-key", s.apiKey)
	req.Header.Set("x-rapidapi-host", s.apiHost)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "relay API request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("relay API returned status %d", resp.StatusCode)
	}

	var result relayResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", errors.Wrap(err, "invalid relay API response")
	}

	for _, format := range result.AdaptiveFormats {
		if format.URL != "" {
			return format.URL, nil
		}
	}
	return "", errors.New("relay API returned no download URL")
}

func (s *RelayStrategy) stream(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "media download failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("media download returned status %d", resp.StatusCode)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return errors.Wrap(err, "failed to create destination file")
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(destPath)
		return errors.Wrap(err, "media download interrupted")
	}
	if err := f.Close(); err != nil {
		os.Remove(destPath)
		return err
	}

	return nil
}

// timeoutOrDefault guards against a zero client timeout disabling the
// bound entirely.
func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return 15 * time.Minute
	}
	return d
}
