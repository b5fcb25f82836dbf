// Package watcher queues study documents dropped into a folder.
package watcher

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before it is queued.
const DefaultDebounce = 500 * time.Millisecond

// Enqueuer accepts files for ingestion.
type Enqueuer interface {
	Enqueue(path string, intent domain.Intent) *domain.IngestJob
}

// Watcher turns create and write events on supported files into ingest
// jobs. Bursts of events for one file collapse into a single job.
type Watcher struct {
	fs       *fsnotify.Watcher
	dir      string
	intent   domain.Intent
	queue    Enqueuer
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func New(dir string, intent domain.Intent, queue Enqueuer) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch dir %s is not a directory", dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	return &Watcher{
		fs:       fw,
		dir:      dir,
		intent:   intent.OrDefault(),
		queue:    queue,
		debounce: DefaultDebounce,
		pending:  make(map[string]*time.Timer),
	}, nil
}

// SetDebounce overrides DefaultDebounce.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// ScanExisting queues the supported files already in the directory and
// returns how many were queued.
func (w *Watcher) ScanExisting() (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", w.dir, err)
	}

	queued := 0
	for _, e := range entries {
		if e.IsDir() || !accepts(e.Name()) {
			continue
		}
		w.queue.Enqueue(filepath.Join(w.dir, e.Name()), w.intent)
		queued++
	}
	return queued, nil
}

// Run blocks until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch: %v", err)
		}
	}
}

func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !accepts(event.Name) {
		return
	}

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.schedule(event.Name)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// indexed chunks stay until the knowledge base is cleared
		w.cancel(event.Name)
		log.Printf("watch: %s removed, its chunks remain indexed", filepath.Base(event.Name))
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		job := w.queue.Enqueue(path, w.intent)
		log.Printf("watch: queued %s as job %s", filepath.Base(path), job.ID)
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// accepts skips hidden files, editor lock files and unsupported formats.
func accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$") {
		return false
	}
	_, err := domain.FormatFromPath(base)
	return err == nil
}
