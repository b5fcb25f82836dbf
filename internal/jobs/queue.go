package jobs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/google/uuid"
)

// IngestQueue is an in-memory job list. Enqueueing a path that already has
// an active job returns that job instead of adding a duplicate.
type IngestQueue struct {
	mu        sync.Mutex
	jobs      map[string]*domain.IngestJob
	batchSize int
	now       func() time.Time
	notify    func()
}

func NewIngestQueue(batchSize int) *IngestQueue {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &IngestQueue{
		jobs:      make(map[string]*domain.IngestJob),
		batchSize: batchSize,
		now:       time.Now,
	}
}

// OnEnqueue registers fn to run after each newly added job, typically the
// ingest worker's Wake.
func (q *IngestQueue) OnEnqueue(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notify = fn
}

func (q *IngestQueue) Enqueue(path string, intent domain.Intent) *domain.IngestJob {
	job, added, notify := q.add(path, intent)
	if added && notify != nil {
		notify()
	}
	return job
}

func (q *IngestQueue) add(path string, intent domain.Intent) (*domain.IngestJob, bool, func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, job := range q.jobs {
		if job.Path == path && job.IsActive() {
			cp := *job
			return &cp, false, nil
		}
	}

	now := q.now().UTC()
	job := &domain.IngestJob{
		ID:        uuid.NewString(),
		Path:      path,
		Intent:    intent.OrDefault(),
		Status:    domain.IngestJobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	q.jobs[job.ID] = job
	cp := *job
	return &cp, true, q.notify
}

// GetPendingJobs claims up to one batch of pending jobs, oldest first, and
// marks them processing.
func (q *IngestQueue) GetPendingJobs(_ context.Context) ([]*domain.IngestJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := make([]*domain.IngestJob, 0)
	for _, job := range q.jobs {
		if job.Status == domain.IngestJobStatusPending {
			pending = append(pending, job)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if len(pending) > q.batchSize {
		pending = pending[:q.batchSize]
	}

	claimed := make([]*domain.IngestJob, 0, len(pending))
	for _, job := range pending {
		job.Status = domain.IngestJobStatusProcessing
		job.UpdatedAt = q.now().UTC()
		cp := *job
		claimed = append(claimed, &cp)
	}
	return claimed, nil
}

func (q *IngestQueue) UpdateJobStatus(_ context.Context, jobID string, status domain.IngestJobStatus, errMsg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[jobID]
	if !ok {
		return domain.NewDomainError(domain.ErrCodeNotFound, "ingest job not found")
	}
	job.Status = status
	job.Error = errMsg
	job.UpdatedAt = q.now().UTC()
	return nil
}

func (q *IngestQueue) IncrementRetries(_ context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[jobID]
	if !ok {
		return domain.NewDomainError(domain.ErrCodeNotFound, "ingest job not found")
	}
	job.Retries++
	return nil
}

// SetDocumentID links a completed job to the document it produced.
func (q *IngestQueue) SetDocumentID(_ context.Context, jobID, documentID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[jobID]
	if !ok {
		return domain.NewDomainError(domain.ErrCodeNotFound, "ingest job not found")
	}
	job.DocumentID = documentID
	return nil
}

func (q *IngestQueue) Get(jobID string) (*domain.IngestJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[jobID]
	if !ok {
		return nil, false
	}
	cp := *job
	return &cp, true
}

// List returns every job, oldest first.
func (q *IngestQueue) List() []*domain.IngestJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*domain.IngestJob, 0, len(q.jobs))
	for _, job := range q.jobs {
		cp := *job
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Forget drops finished jobs last updated before cutoff.
func (q *IngestQueue) Forget(cutoff time.Time) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := 0
	for id, job := range q.jobs {
		if !job.IsActive() && job.UpdatedAt.Before(cutoff) {
			delete(q.jobs, id)
			removed++
		}
	}
	return removed
}
