package domain

import "time"

// IngestJobStatus tracks a queued file through ingestion.
type IngestJobStatus string

const (
	IngestJobStatusPending    IngestJobStatus = "pending"
	IngestJobStatusProcessing IngestJobStatus = "processing"
	IngestJobStatusCompleted  IngestJobStatus = "completed"
	IngestJobStatusFailed     IngestJobStatus = "failed"
)

// IngestJob is a file waiting to be loaded and indexed.
type IngestJob struct {
	ID         string          `json:"id"`
	Path       string          `json:"path"`
	Intent     Intent          `json:"intent"`
	Status     IngestJobStatus `json:"status"`
	Retries    int             `json:"retries"`
	Error      string          `json:"error,omitempty"`
	DocumentID string          `json:"document_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// IsActive reports whether the job still has work ahead of it.
func (j *IngestJob) IsActive() bool {
	return j.Status == IngestJobStatusPending || j.Status == IngestJobStatusProcessing
}
