package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clipsmart/config"
	apperrors "clipsmart/errors"
	"clipsmart/models"
	"clipsmart/repository"
	"clipsmart/storage"
	"clipsmart/utils"
	"clipsmart/validation"
)

// Acquirer produces a validated local source file for a video ID.
type Acquirer interface {
	Acquire(ctx context.Context, videoID, destPath string) error
}

// Trimmer cuts one validated segment out of a source file.
type Trimmer interface {
	Trim(ctx context.Context, sourcePath string, start, end float64, outputPath string) error
}

// Assembler concatenates ordered segments into one output file.
type Assembler interface {
	Assemble(ctx context.Context, segmentPaths []string, manifestPath, outputPath string) error
}

// Publisher uploads the merged file and returns its retrieval URL.
type Publisher interface {
	Publish(ctx context.Context, localPath string) (*storage.PublishedArtifact, error)
}

// CookieFreshener is called best-effort before a batch; a failure is
// logged and the run proceeds on unauthenticated strategies.
type CookieFreshener interface {
	EnsureFresh(ctx context.Context) error
}

// Service orchestrates a merge run: validate, acquire, trim, assemble,
// publish, clean up. Every stage's intermediates live in a per-run
// directory under the temp root and are removed whether or not the run
// succeeds.
type Service struct {
	validator *validation.Validator
	acquirer  Acquirer
	trimmer   Trimmer
	assembler Assembler
	publisher Publisher
	runs      repository.RunRepository
	cookies   CookieFreshener

	downloadDir string
	tempDir     string
	cfg         config.PipelineConfig
	logger      zerolog.Logger
}

func NewService(
	validator *validation.Validator,
	acquirer Acquirer,
	trimmer Trimmer,
	assembler Assembler,
	publisher Publisher,
	runs repository.RunRepository,
	cookies CookieFreshener,
	downloadDir, tempDir string,
	cfg config.PipelineConfig,
	logger zerolog.Logger,
) *Service {
	return &Service{
		validator:   validator,
		acquirer:    acquirer,
		trimmer:     trimmer,
		assembler:   assembler,
		publisher:   publisher,
		runs:        runs,
		cookies:     cookies,
		downloadDir: downloadDir,
		tempDir:     tempDir,
		cfg:         cfg,
		logger:      logger,
	}
}

// Run executes one merge request end to end. Validation failures return
// before anything touches disk or network.
func (s *Service) Run(ctx context.Context, req models.MergeRequest) (*models.MergeResponse, error) {
	const op = "Pipeline.Run"

	if err := s.validator.ValidateBatch(req); err != nil {
		return nil, err
	}

	if err := s.checkDiskSpace(op); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	logger := s.logger.With().Str("operation", op).Str("run_id", runID).Logger()
	logger.Info().Int("clips", len(req.Clips)).Msg("Run accepted")

	s.recordStart(ctx, runID, len(req.Clips))

	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	if s.cookies != nil {
		if err := s.cookies.EnsureFresh(ctx); err != nil {
			logger.Warn().Err(err).Msg("Cookie freshness check failed, continuing")
		}
	}

	workDir := filepath.Join(s.tempDir, runID)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		err = apperrors.Resource(op, err, "failed to create run working directory")
		s.recordFailure(runID, err)
		return nil, err
	}

	sources := map[string]string{}
	defer s.cleanupRun(workDir, sources, req, logger)

	artifact, err := s.execute(ctx, req, workDir, sources, logger)
	if err != nil {
		err = classify(op, err)
		s.recordFailure(runID, err)
		return nil, err
	}

	s.recordSuccess(runID, artifact)
	logger.Info().Str("key", artifact.ObjectKey).Msg("Run completed")

	return &models.MergeResponse{
		Message:   "Clips merged and uploaded successfully",
		RunID:     runID,
		S3URL:     artifact.RetrievalURL,
		ObjectKey: artifact.ObjectKey,
		ClipsInfo: req.Clips,
		Success:   true,
	}, nil
}

// execute runs the acquire/trim/assemble/publish stages. Paths for every
// intermediate live under workDir; sources accumulate in the shared
// download directory keyed by video ID.
func (s *Service) execute(
	ctx context.Context,
	req models.MergeRequest,
	workDir string,
	sources map[string]string,
	logger zerolog.Logger,
) (*storage.PublishedArtifact, error) {
	segments := make([]string, len(req.Clips))
	for i, clip := range req.Clips {
		// Acquire each distinct video once, when its first clip needs
		// it; later clips for the same video reuse the cached source.
		src, ok := sources[clip.VideoID]
		if !ok {
			src = filepath.Join(s.downloadDir, clip.VideoID+".mp4")
			if err := s.acquirer.Acquire(ctx, clip.VideoID, src); err != nil {
				return nil, err
			}
			sources[clip.VideoID] = src
		}

		segment := filepath.Join(workDir, fmt.Sprintf("segment_%03d.mp4", i))
		if err := s.trimmer.Trim(ctx, src, clip.StartTime, clip.EndTime, segment); err != nil {
			return nil, err
		}
		segments[i] = segment
	}

	manifest := filepath.Join(workDir, "concat.txt")
	merged := filepath.Join(workDir, "merged.mp4")
	if err := s.assembler.Assemble(ctx, segments, manifest, merged); err != nil {
		return nil, err
	}

	artifact, err := s.publisher.Publish(ctx, merged)
	if err != nil {
		return nil, err
	}
	return artifact, nil
}

// cleanupRun removes the per-run working directory unconditionally and
// the cached sources per the request's cleanup flags.
func (s *Service) cleanupRun(workDir string, sources map[string]string, req models.MergeRequest, logger zerolog.Logger) {
	if err := os.RemoveAll(workDir); err != nil {
		logger.Warn().Err(err).Str("dir", workDir).Msg("Failed to remove run working directory")
	}

	switch {
	case req.CleanupAllDownloads:
		removed, freed, err := s.CleanupDownloads(false, false)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to clean download directory")
			return
		}
		logger.Info().Int("removed", removed).Str("freed", utils.FormatSize(freed)).Msg("Download directory cleaned")
	case req.ShouldCleanupDownloads():
		for videoID, path := range sources {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				logger.Warn().Err(err).Str("video_id", videoID).Msg("Failed to remove source video")
			}
		}
	}
}

func (s *Service) checkDiskSpace(op string) error {
	if s.cfg.MinFreeBytes == 0 {
		return nil
	}
	free, _, err := utils.DiskUsage(s.downloadDir)
	if err != nil {
		// Statfs failing is not worth blocking a run over.
		return nil
	}
	if free < s.cfg.MinFreeBytes {
		return apperrors.Resource(op, nil, fmt.Sprintf(
			"insufficient disk space: %s free, %s required",
			utils.FormatSize(int64(free)), utils.FormatSize(int64(s.cfg.MinFreeBytes))))
	}
	return nil
}

// GetRun looks up a persisted run record. Runs stuck in processing past
// the run timeout are reported as failed.
func (s *Service) GetRun(ctx context.Context, id string) (*models.Run, error) {
	run, err := s.runs.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.IsStale(s.cfg.RunTimeout) {
		run.Status = models.StatusFailed
		run.ErrorClass = string(apperrors.ClassUnexpected)
		run.Error = "run timed out"
	}
	return run, nil
}

// CleanupDownloads removes cached source videos, returning the count
// removed and bytes freed. mp4Only leaves stray partial downloads in
// place; dryRun reports what would be removed without touching anything.
func (s *Service) CleanupDownloads(mp4Only, dryRun bool) (int, int64, error) {
	entries, err := os.ReadDir(s.downloadDir)
	if err != nil {
		return 0, 0, err
	}

	var removed int
	var freed int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		partial := isPartialDownload(name)
		cached := strings.HasSuffix(name, ".mp4") && !partial
		if !cached && (mp4Only || !partial) {
			continue
		}
		path := filepath.Join(s.downloadDir, name)
		if info, err := entry.Info(); err == nil {
			freed += info.Size()
		}
		if !dryRun {
			if err := os.Remove(path); err != nil {
				s.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove cached download")
				continue
			}
		}
		removed++
	}
	return removed, freed, nil
}

// isPartialDownload reports whether a download-directory entry is an
// in-flight or abandoned strategy temp file rather than a cached source.
// Strategy temp files keep the .mp4 extension with a .tmp marker; yt-dlp
// additionally writes .part files while streaming.
func isPartialDownload(name string) bool {
	return strings.HasSuffix(name, ".part") || strings.Contains(name, ".tmp.")
}

// DownloadsStatus reports the cached source videos and disk headroom.
type DownloadsStatus struct {
	Files     []DownloadFile `json:"files"`
	TotalSize string         `json:"totalSize"`
	FreeSpace string         `json:"freeSpace"`
}

type DownloadFile struct {
	Name     string `json:"name"`
	Size     string `json:"size"`
	Modified string `json:"modified"`
}

func (s *Service) DownloadsStatus() (*DownloadsStatus, error) {
	entries, err := os.ReadDir(s.downloadDir)
	if err != nil {
		return nil, err
	}

	status := &DownloadsStatus{Files: []DownloadFile{}}
	var total int64
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".mp4") || isPartialDownload(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		total += info.Size()
		status.Files = append(status.Files, DownloadFile{
			Name:     entry.Name(),
			Size:     utils.FormatSize(info.Size()),
			Modified: info.ModTime().Format(time.RFC3339),
		})
	}
	status.TotalSize = utils.FormatSize(total)

	if free, _, err := utils.DiskUsage(s.downloadDir); err == nil {
		status.FreeSpace = utils.FormatSize(int64(free))
	}
	return status, nil
}

// recordStart, recordSuccess, and recordFailure persist run state
// best-effort. Persistence uses a background context so a cancelled run
// still records its outcome.
func (s *Service) recordStart(ctx context.Context, runID string, clipCount int) {
	if s.runs == nil {
		return
	}
	now := time.Now()
	err := s.runs.Save(ctx, &models.Run{
		ID:        runID,
		Status:    models.StatusProcessing,
		ClipCount: clipCount,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("run_id", runID).Msg("Failed to persist run start")
	}
}

func (s *Service) recordSuccess(runID string, artifact *storage.PublishedArtifact) {
	if s.runs == nil {
		return
	}
	err := s.runs.Update(context.Background(), &models.Run{
		ID:          runID,
		Status:      models.StatusCompleted,
		ObjectKey:   artifact.ObjectKey,
		ArtifactURL: artifact.RetrievalURL,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("run_id", runID).Msg("Failed to persist run completion")
	}
}

func (s *Service) recordFailure(runID string, runErr error) {
	if s.runs == nil {
		return
	}
	err := s.runs.Update(context.Background(), &models.Run{
		ID:         runID,
		Status:     models.StatusFailed,
		ErrorClass: string(apperrors.ClassOf(runErr)),
		Error:      runErr.Error(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("run_id", runID).Msg("Failed to persist run failure")
	}
}

// classify wraps non-application errors so every failure leaving the
// pipeline carries a class.
func classify(op string, err error) error {
	if _, ok := err.(*apperrors.AppError); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Internal(op, err, "run exceeded its time limit")
	}
	return apperrors.Internal(op, err, "pipeline run failed")
}
