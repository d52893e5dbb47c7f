package models

// ClipRequest identifies one time range of one video. Times are seconds,
// inclusive start and exclusive end.
type ClipRequest struct {
	VideoID   string  `json:"videoId"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

// Duration returns the requested clip length in seconds.
func (c ClipRequest) Duration() float64 {
	return c.EndTime - c.StartTime
}

// MergeRequest is the batch submission body for the clip pipeline.
type MergeRequest struct {
	Clips []ClipRequest `json:"clips"`
	// CleanupDownloads removes the source videos referenced by this run
	// after it finishes. Defaults to true when the field is absent.
	CleanupDownloads *bool `json:"cleanupDownloads,omitempty"`
	// CleanupAllDownloads wipes every cached source video, not just the
	// ones this run touched.
	CleanupAllDownloads bool `json:"cleanupAllDownloads,omitempty"`
}

// ShouldCleanupDownloads resolves the tri-state flag with its default.
func (r MergeRequest) ShouldCleanupDownloads() bool {
	if r.CleanupDownloads == nil {
		return true
	}
	return *r.CleanupDownloads
}

// MergeResponse echoes the accepted clips alongside the published artifact.
type MergeResponse struct {
	Message   string        `json:"message"`
	RunID     string        `json:"runId"`
	S3URL     string        `json:"s3Url"`
	ObjectKey string        `json:"objectKey"`
	ClipsInfo []ClipRequest `json:"clipsInfo"`
	Success   bool          `json:"success"`
}

// TranscriptSegment is one time-aligned line of transcript text.
type TranscriptSegment struct {
	ID        int      `json:"id"`
	Text      string   `json:"text"`
	StartTime *float64 `json:"startTime"`
	EndTime   *float64 `json:"endTime"`
	Duration  *float64 `json:"duration"`
}
