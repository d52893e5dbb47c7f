package repository

import (
	"context"

	"clipsmart/models"
)

// RunRepository persists pipeline run records. Persistence is best-effort
// from the pipeline's point of view; a write failure never fails a run.
type RunRepository interface {
	Save(ctx context.Context, run *models.Run) error
	Update(ctx context.Context, run *models.Run) error
	Find(ctx context.Context, id string) (*models.Run, error)
}

// TranscriptRepository caches fetched transcripts by video ID.
type TranscriptRepository interface {
	SaveTranscript(ctx context.Context, videoID string, segments []models.TranscriptSegment) error
	FindTranscript(ctx context.Context, videoID string) ([]models.TranscriptSegment, error)
}
