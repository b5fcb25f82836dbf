package jobs

import (
	"context"
	"log"
	"time"
)

// SessionPruner is implemented by service.SessionStore.
type SessionPruner interface {
	Prune(maxIdle time.Duration) int
}

// Janitor drops chat sessions idle for longer than maxIdle and forgets
// finished ingest jobs older than the same window.
type Janitor struct {
	sessions SessionPruner
	queue    *IngestQueue
	maxIdle  time.Duration
	now      func() time.Time
}

func NewJanitor(sessions SessionPruner, queue *IngestQueue, maxIdle time.Duration) *Janitor {
	return &Janitor{sessions: sessions, queue: queue, maxIdle: maxIdle, now: time.Now}
}

// ProcessJobs implements the JobProcessor interface
func (j *Janitor) ProcessJobs(_ context.Context) error {
	if n := j.sessions.Prune(j.maxIdle); n > 0 {
		log.Printf("session: pruned %d idle sessions", n)
	}
	if j.queue != nil {
		if n := j.queue.Forget(j.now().Add(-j.maxIdle)); n > 0 {
			log.Printf("ingest: forgot %d finished jobs", n)
		}
	}
	return nil
}
