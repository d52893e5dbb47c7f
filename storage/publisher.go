package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "clipsmart/errors"
	"clipsmart/retry"
)

// Publisher uploads merged output to durable storage with integrity
// verification and bounded retry, then issues a time-limited retrieval
// URL.
type Publisher struct {
	store      ObjectStore
	policy     retry.Policy
	presignTTL time.Duration
	logger     zerolog.Logger
}

func NewPublisher(store ObjectStore, policy retry.Policy, presignTTL time.Duration, logger zerolog.Logger) *Publisher {
	return &Publisher{
		store:      store,
		policy:     policy,
		presignTTL: presignTTL,
		logger:     logger,
	}
}

// Publish uploads localPath under a fresh object key. Each attempt runs
// the full upload-then-verify cycle; a verify mismatch deletes the bad
// object before the next attempt.
func (p *Publisher) Publish(ctx context.Context, localPath string) (*PublishedArtifact, error) {
	const op = "Publisher.Publish"

	info, err := os.Stat(localPath)
	if err != nil {
		return nil, apperrors.PublishFailed(op, err, "merged file missing before upload")
	}

	checksum, err := fileChecksum(localPath)
	if err != nil {
		return nil, apperrors.PublishFailed(op, err, "failed to checksum merged file")
	}

	// Never derived from content: concurrent or repeated runs must not
	// collide on the same key.
	key := fmt.Sprintf("merged_%s.mp4", uuid.New().String())

	metadata := map[string]string{
		checksumMetadataKey: checksum,
		"source-size":       strconv.FormatInt(info.Size(), 10),
	}

	logger := p.logger.With().Str("operation", op).Str("key", key).Logger()

	err = p.policy.Do(ctx, func() error {
		if err := p.store.PutObject(ctx, localPath, key, metadata); err != nil {
			return err
		}

		if err := p.verify(ctx, key, info.Size(), checksum); err != nil {
			logger.Warn().Err(err).Msg("Upload verification failed, deleting object")
			if delErr := p.store.DeleteObject(ctx, key); delErr != nil {
				logger.Error().Err(delErr).Msg("Failed to delete mismatched object")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.PublishFailed(op, err, "upload failed after retries")
	}

	url, err := p.store.PresignGet(ctx, key, p.presignTTL)
	if err != nil {
		return nil, apperrors.PublishFailed(op, err, "failed to create retrieval URL")
	}

	logger.Info().
		Int64("size", info.Size()).
		Time("expiry", time.Now().Add(p.presignTTL)).
		Msg("Artifact published")

	return &PublishedArtifact{
		ObjectKey:    key,
		RetrievalURL: url,
		Expiry:       time.Now().Add(p.presignTTL),
	}, nil
}

func (p *Publisher) verify(ctx context.Context, key string, wantSize int64, wantChecksum string) error {
	meta, err := p.store.HeadObject(ctx, key)
	if err != nil {
		return err
	}
	if meta.Size != wantSize {
		return fmt.Errorf("stored size %d does not match local size %d", meta.Size, wantSize)
	}
	if meta.Checksum != "" && meta.Checksum != wantChecksum {
		return fmt.Errorf("stored checksum %s does not match local checksum %s", meta.Checksum, wantChecksum)
	}
	return nil
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
