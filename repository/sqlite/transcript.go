package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"clipsmart/errors"
	"clipsmart/models"
)

// Save caches the transcript as a JSON blob. Segments are only ever read
// back whole, so a single column beats a row per line.
func (r *Repository) SaveTranscript(ctx context.Context, videoID string, segments []models.TranscriptSegment) error {
	const op = "SQLiteRepository.SaveTranscript"

	data, err := json.Marshal(segments)
	if err != nil {
		return errors.Internal(op, err, "failed to encode transcript")
	}

	err = withLockRetry(ctx, func() error {
		_, err := r.db.statements.upsertTranscript.ExecContext(ctx, videoID, string(data), time.Now())
		return err
	})
	if err != nil {
		return errors.Internal(op, err, "failed to save transcript")
	}
	return nil
}

func (r *Repository) FindTranscript(ctx context.Context, videoID string) ([]models.TranscriptSegment, error) {
	const op = "SQLiteRepository.FindTranscript"

	var data string
	err := r.db.statements.getTranscript.QueryRowContext(ctx, videoID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, nil, "transcript not cached")
	}
	if err != nil {
		return nil, errors.Internal(op, err, "failed to query transcript")
	}

	var segments []models.TranscriptSegment
	if err := json.Unmarshal([]byte(data), &segments); err != nil {
		return nil, errors.Internal(op, err, "failed to decode cached transcript")
	}
	return segments, nil
}
