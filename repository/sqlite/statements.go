package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"clipsmart/errors"
)

const (
	insertRunQuery = `
        INSERT INTO runs (
            id, status, object_key, artifact_url,
            error_class, error, clip_count, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	updateRunQuery = `
        UPDATE runs SET
            status = ?,
            object_key = ?,
            artifact_url = ?,
            error_class = ?,
            error = ?,
            updated_at = ?
        WHERE id = ?
    `

	getRunQuery = `
        SELECT id, status, object_key, artifact_url,
               error_class, error, clip_count, created_at, updated_at
        FROM runs WHERE id = ?
    `

	upsertTranscriptQuery = `
        INSERT INTO transcripts (video_id, segments, created_at)
        VALUES (?, ?, ?)
        ON CONFLICT(video_id) DO UPDATE SET
            segments = excluded.segments,
            created_at = excluded.created_at
    `

	getTranscriptQuery = `
        SELECT segments FROM transcripts WHERE video_id = ?
    `
)

type preparedStatements struct {
	insertRun        *sql.Stmt
	updateRun        *sql.Stmt
	getRun           *sql.Stmt
	upsertTranscript *sql.Stmt
	getTranscript    *sql.Stmt
}

func (stmts *preparedStatements) prepare(ctx context.Context, db *sql.DB) error {
	const op = "preparedStatements.prepare"

	for _, p := range []struct {
		stmt  **sql.Stmt
		query string
		name  string
	}{
		{&stmts.insertRun, insertRunQuery, "insertRun"},
		{&stmts.updateRun, updateRunQuery, "updateRun"},
		{&stmts.getRun, getRunQuery, "getRun"},
		{&stmts.upsertTranscript, upsertTranscriptQuery, "upsertTranscript"},
		{&stmts.getTranscript, getTranscriptQuery, "getTranscript"},
	} {
		var err error
		if *p.stmt, err = db.PrepareContext(ctx, p.query); err != nil {
			return errors.Internal(op, err, fmt.Sprintf("failed to prepare %s statement", p.name))
		}
	}

	return nil
}

func (stmts *preparedStatements) close() error {
	var errs []error

	for _, stmt := range [...]*sql.Stmt{
		stmts.insertRun,
		stmts.updateRun,
		stmts.getRun,
		stmts.upsertTranscript,
		stmts.getTranscript,
	} {
		if stmt != nil {
			if err := stmt.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to close prepared statements: %v", errs)
	}

	return nil
}
