package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	apperrors "clipsmart/errors"
	"clipsmart/models"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"), 2)
	if err != nil {
		t.Fatalf("InitDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(db)
}

func TestRunRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	now := time.Now()
	run := &models.Run{
		ID:        "run-1",
		Status:    models.StatusProcessing,
		ClipCount: 3,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Save(ctx, run); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Find(ctx, "run-1")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got.Status != models.StatusProcessing || got.ClipCount != 3 {
		t.Errorf("Find() = %+v, want processing with 3 clips", got)
	}
}

func TestRunUpdate(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	now := time.Now()
	run := &models.Run{ID: "run-2", Status: models.StatusProcessing, ClipCount: 1, CreatedAt: now, UpdatedAt: now}
	if err := repo.Save(ctx, run); err != nil {
		t.Fatal(err)
	}

	run.Status = models.StatusCompleted
	run.ObjectKey = "merged_abc.mp4"
	run.ArtifactURL = "https://example.com/merged_abc.mp4"
	if err := repo.Update(ctx, run); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.Find(ctx, "run-2")
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsCompleted() {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.ObjectKey != "merged_abc.mp4" {
		t.Errorf("object key = %q", got.ObjectKey)
	}
}

func TestRunNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Find(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error")
	}
	if apperrors.ClassOf(err) != apperrors.ClassNotFound {
		t.Errorf("class = %s, want %s", apperrors.ClassOf(err), apperrors.ClassNotFound)
	}
}

func TestTranscriptRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	start, end, dur := 0.0, 2.5, 2.5
	segments := []models.TranscriptSegment{
		{ID: 0, Text: "hello", StartTime: &start, EndTime: &end, Duration: &dur},
	}
	if err := repo.SaveTranscript(ctx, "vid-1", segments); err != nil {
		t.Fatalf("SaveTranscript() error = %v", err)
	}

	got, err := repo.FindTranscript(ctx, "vid-1")
	if err != nil {
		t.Fatalf("FindTranscript() error = %v", err)
	}
	if len(got) != 1 || got[0].Text != "hello" {
		t.Errorf("FindTranscript() = %+v", got)
	}
	if got[0].EndTime == nil || *got[0].EndTime != 2.5 {
		t.Errorf("end time not preserved: %+v", got[0])
	}
}

func TestTranscriptUpsert(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.SaveTranscript(ctx, "vid-2", []models.TranscriptSegment{{Text: "old"}}); err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveTranscript(ctx, "vid-2", []models.TranscriptSegment{{Text: "new"}}); err != nil {
		t.Fatalf("second SaveTranscript() error = %v", err)
	}

	got, err := repo.FindTranscript(ctx, "vid-2")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Text != "new" {
		t.Errorf("upsert did not replace segments: %+v", got)
	}
}

func TestTranscriptNotCached(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.FindTranscript(context.Background(), "missing")
	if apperrors.ClassOf(err) != apperrors.ClassNotFound {
		t.Errorf("class = %s, want %s", apperrors.ClassOf(err), apperrors.ClassNotFound)
	}
}
