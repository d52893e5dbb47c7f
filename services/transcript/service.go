package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"clipsmart/config"
	apperrors "clipsmart/errors"
	"clipsmart/models"
	"clipsmart/repository"
)

// Service fetches video transcripts from a third-party API and caches
// them, since transcripts for a published video never change.
type Service struct {
	client *http.Client
	repo   repository.TranscriptRepository
	cfg    config.TranscriptConfig
	logger zerolog.Logger
}

func NewService(repo repository.TranscriptRepository, cfg config.TranscriptConfig, logger zerolog.Logger) *Service {
	return &Service{
		client: &http.Client{Timeout: cfg.Timeout},
		repo:   repo,
		cfg:    cfg,
		logger: logger,
	}
}

// apiResponse mirrors the provider's payload. Only text and timing are
// consumed; everything else is dropped.
type apiResponse struct {
	Transcripts []apiSegment `json:"transcripts"`
}

type apiSegment struct {
	Text     string   `json:"text"`
	Start    *float64 `json:"start"`
	Duration *float64 `json:"duration"`
}

// Get returns the transcript for a video, serving from cache when
// available. Segments with empty text are dropped; an empty result is a
// not-found, matching providers that return 200 with no lines.
func (s *Service) Get(ctx context.Context, videoID string) ([]models.TranscriptSegment, error) {
	const op = "TranscriptService.Get"

	if videoID == "" {
		return nil, apperrors.InvalidInput(op, nil, "videoId is required")
	}

	if s.repo != nil {
		if cached, err := s.repo.FindTranscript(ctx, videoID); err == nil && len(cached) > 0 {
			s.logger.Debug().Str("video_id", videoID).Msg("Transcript served from cache")
			return cached, nil
		}
	}

	if s.cfg.APIKey == "" {
		return nil, apperrors.Internal(op, nil, "transcript API key not configured")
	}

	segments, err := s.fetch(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if len(segments) == 0 {
		return nil, apperrors.NotFound(op, nil, "no transcript found for this video")
	}

	if s.repo != nil {
		if err := s.repo.SaveTranscript(ctx, videoID, segments); err != nil {
			s.logger.Warn().Err(err).Str("video_id", videoID).Msg("Failed to cache transcript")
		}
	}

	return segments, nil
}

func (s *Service) fetch(ctx context.Context, videoID string) ([]models.TranscriptSegment, error) {
	const op = "TranscriptService.fetch"

	params := url.Values{}
	params.Set("api_key", s.cfg.APIKey)
	params.Set("v", videoID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.APIURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, apperrors.Internal(op, err, "failed to build transcript request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.Internal(op, err, "transcript API unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.NotFound(op, nil, "no transcript found for this video")
	case resp.StatusCode != http.StatusOK:
		return nil, apperrors.Internal(op, nil, fmt.Sprintf(
			"transcript API returned status %d", resp.StatusCode))
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.Internal(op, err, "failed to decode transcript response")
	}

	segments := make([]models.TranscriptSegment, 0, len(payload.Transcripts))
	for _, item := range payload.Transcripts {
		text := strings.TrimSpace(item.Text)
		if text == "" {
			continue
		}
		segment := models.TranscriptSegment{
			ID:        len(segments) + 1,
			Text:      text,
			StartTime: item.Start,
			Duration:  item.Duration,
		}
		if item.Start != nil && item.Duration != nil {
			end := *item.Start + *item.Duration
			segment.EndTime = &end
		}
		segments = append(segments, segment)
	}

	return segments, nil
}
