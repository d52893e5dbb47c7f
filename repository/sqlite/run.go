package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"clipsmart/errors"
	"clipsmart/models"
)

type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Save(ctx context.Context, run *models.Run) error {
	const op = "SQLiteRepository.Save"

	err := withLockRetry(ctx, func() error {
		_, err := r.db.statements.insertRun.ExecContext(ctx,
			run.ID,
			string(run.Status),
			run.ObjectKey,
			run.ArtifactURL,
			run.ErrorClass,
			run.Error,
			run.ClipCount,
			run.CreatedAt,
			run.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return errors.Internal(op, err, "failed to save run")
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, run *models.Run) error {
	const op = "SQLiteRepository.Update"

	run.UpdatedAt = time.Now()
	err := withLockRetry(ctx, func() error {
		_, err := r.db.statements.updateRun.ExecContext(ctx,
			string(run.Status),
			run.ObjectKey,
			run.ArtifactURL,
			run.ErrorClass,
			run.Error,
			run.UpdatedAt,
			run.ID,
		)
		return err
	})
	if err != nil {
		return errors.Internal(op, err, "failed to update run")
	}
	return nil
}

func (r *Repository) Find(ctx context.Context, id string) (*models.Run, error) {
	const op = "SQLiteRepository.Find"

	run := &models.Run{}
	var status string

	err := r.db.statements.getRun.QueryRowContext(ctx, id).Scan(
		&run.ID,
		&status,
		&run.ObjectKey,
		&run.ArtifactURL,
		&run.ErrorClass,
		&run.Error,
		&run.ClipCount,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, nil, "run not found")
	}
	if err != nil {
		return nil, errors.Internal(op, err, "failed to query run")
	}

	run.Status = models.Status(status)
	return run, nil
}

// withLockRetry retries writes that lost the WAL writer lock. Reads never
// need it.
func withLockRetry(ctx context.Context, fn func() error) error {
	var err error
	for i := 0; i < 3; i++ {
		if err = fn(); err == nil || !isLockError(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * 100 * time.Millisecond):
		}
	}
	return err
}

func isLockError(err error) bool {
	return strings.Contains(err.Error(), "database is locked") ||
		strings.Contains(err.Error(), "busy")
}
