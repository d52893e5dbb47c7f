package storage

import (
	"context"
	"time"
)

// ObjectMeta is what the backend reports about a stored object.
type ObjectMeta struct {
	Size     int64
	Checksum string // sha256 hex from object metadata, empty when unsupported
}

// ObjectStore is the narrow surface the publisher needs from a durable
// blob store.
type ObjectStore interface {
	PutObject(ctx context.Context, localPath, key string, metadata map[string]string) error
	HeadObject(ctx context.Context, key string) (ObjectMeta, error)
	DeleteObject(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// PublishedArtifact identifies a durably stored merged output.
type PublishedArtifact struct {
	ObjectKey    string    `json:"objectKey"`
	RetrievalURL string    `json:"retrievalUrl"`
	Expiry       time.Time `json:"expiry"`
}
