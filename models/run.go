package models

import (
	"time"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Run is the persisted record of one pipeline execution.
type Run struct {
	ID          string    `json:"id"`
	Status      Status    `json:"status"`
	ObjectKey   string    `json:"objectKey,omitempty"`
	ArtifactURL string    `json:"artifactUrl,omitempty"`
	ErrorClass  string    `json:"errorClass,omitempty"`
	Error       string    `json:"error,omitempty"`
	ClipCount   int       `json:"clipCount"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r *Run) IsProcessing() bool { return r.Status == StatusProcessing }
func (r *Run) IsCompleted() bool  { return r.Status == StatusCompleted }
func (r *Run) IsFailed() bool     { return r.Status == StatusFailed }

// IsStale reports whether the run has been stuck in processing for too long.
func (r *Run) IsStale(timeout time.Duration) bool {
	if r.Status != StatusProcessing {
		return false
	}
	return time.Since(r.UpdatedAt) > timeout
}

// RunResponse represents the API response for a run lookup.
type RunResponse struct {
	ID          string `json:"id"`
	Status      Status `json:"status"`
	ObjectKey   string `json:"objectKey,omitempty"`
	ArtifactURL string `json:"artifactUrl,omitempty"`
	ErrorClass  string `json:"errorClass,omitempty"`
	Error       string `json:"error,omitempty"`
	ClipCount   int    `json:"clipCount"`
}

// NewRunResponse creates a response from a run record.
func NewRunResponse(r *Run) *RunResponse {
	return &RunResponse{
		ID:          r.ID,
		Status:      r.Status,
		ObjectKey:   r.ObjectKey,
		ArtifactURL: r.ArtifactURL,
		ErrorClass:  r.ErrorClass,
		Error:       r.Error,
		ClipCount:   r.ClipCount,
	}
}
