package jobs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/loader"
	"github.com/cloo-solutions/studyrag/internal/service"
)

const (
	// MaxRetries is the maximum number of attempts for a failed ingest job
	MaxRetries = 3
)

// IngestJobRepository defines the interface for ingest job persistence
type IngestJobRepository interface {
	// GetPendingJobs retrieves and claims pending ingest jobs
	GetPendingJobs(ctx context.Context) ([]*domain.IngestJob, error)

	// UpdateJobStatus updates the status of an ingest job
	UpdateJobStatus(ctx context.Context, jobID string, status domain.IngestJobStatus, errMsg string) error

	// IncrementRetries increments the retry count for a job
	IncrementRetries(ctx context.Context, jobID string) error

	SetDocumentID(ctx context.Context, jobID, documentID string) error
}

// DocumentLoader extracts records from raw file bytes.
type DocumentLoader interface {
	LoadBytes(name string, data []byte) ([]domain.Record, error)
}

// DocumentIngester chunks, embeds and stores a loaded document.
type DocumentIngester interface {
	AddDocument(ctx context.Context, input service.AddDocumentInput) (*service.AddDocumentOutput, error)
}

// IngestWorker processes queued files
type IngestWorker struct {
	repo     IngestJobRepository
	loader   DocumentLoader
	ingester DocumentIngester
	readFile func(string) ([]byte, error)
}

// NewIngestWorker creates a new IngestWorker instance
func NewIngestWorker(repo IngestJobRepository, loader DocumentLoader, ingester DocumentIngester) *IngestWorker {
	return &IngestWorker{
		repo:     repo,
		loader:   loader,
		ingester: ingester,
		readFile: os.ReadFile,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *IngestWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.GetPendingJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("ingest: processing %d pending jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("ingest: error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *IngestWorker) processJob(ctx context.Context, job *domain.IngestJob) error {
	name := filepath.Base(job.Path)

	format, err := domain.FormatFromPath(name)
	if err != nil {
		return w.failPermanently(ctx, job, err)
	}

	data, err := w.readFile(job.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return w.failPermanently(ctx, job, err)
	}
	if err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	records, err := w.loader.LoadBytes(name, data)
	if err != nil {
		// extraction is deterministic, retrying the same bytes cannot help
		return w.failPermanently(ctx, job, err)
	}

	out, err := w.ingester.AddDocument(ctx, service.AddDocumentInput{
		Name:        name,
		Format:      format,
		Intent:      job.Intent,
		Records:     records,
		Raw:         data,
		ContentType: loader.ContentType(format),
	})
	if err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	if err := w.repo.SetDocumentID(ctx, job.ID, out.Document.ID); err != nil {
		return fmt.Errorf("failed to link document: %w", err)
	}
	if err := w.repo.UpdateJobStatus(ctx, job.ID, domain.IngestJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	log.Printf("ingest: %s indexed as %s (%d chunks)", name, out.Document.ID, out.ChunksCreated)
	return nil
}

func (w *IngestWorker) failPermanently(ctx context.Context, job *domain.IngestJob, jobErr error) error {
	log.Printf("ingest: job %s for %s cannot be processed: %v", job.ID, job.Path, jobErr)
	if err := w.repo.UpdateJobStatus(ctx, job.ID, domain.IngestJobStatusFailed, jobErr.Error()); err != nil {
		return fmt.Errorf("failed to update job status to failed: %w", err)
	}
	return nil
}

// handleJobFailure handles a failed job with retry logic
func (w *IngestWorker) handleJobFailure(ctx context.Context, job *domain.IngestJob, jobErr error) error {
	log.Printf("ingest: job %s failed: %v", job.ID, jobErr)

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		log.Printf("ingest: job %s exceeded max retries (%d), marking as failed", job.ID, MaxRetries)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateJobStatus(ctx, job.ID, domain.IngestJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	log.Printf("ingest: job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.UpdateJobStatus(ctx, job.ID, domain.IngestJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}
