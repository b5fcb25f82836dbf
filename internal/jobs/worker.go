package jobs

import (
	"context"
	"log"
	"sync"
	"time"
)

// JobProcessor handles one batch of background work per call.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker calls its processor on every tick, and immediately after Wake.
type Worker struct {
	name      string
	processor JobProcessor
	interval  time.Duration

	wake     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewWorker(name string, processor JobProcessor, interval time.Duration) *Worker {
	return &Worker{
		name:      name,
		processor: processor,
		interval:  interval,
		wake:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs until ctx is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.done)

	log.Printf("worker: %s running every %v", w.name, w.interval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("worker: %s stopped: %v", w.name, ctx.Err())
			return
		case <-w.stop:
			log.Printf("worker: %s stopped", w.name)
			return
		case <-ticker.C:
		case <-w.wake:
		}

		if err := w.processor.ProcessJobs(ctx); err != nil {
			log.Printf("worker: %s: %v", w.name, err)
		}
	}
}

// Wake asks for a run before the next tick. Calls made while a run is
// already requested are coalesced.
func (w *Worker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Stop waits for the current run to finish. It is safe to call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}
