package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/service"
)

// SnapshotKey is where the in-memory index is persisted.
const SnapshotKey = "snapshots/index.json"

// Snapshotter is an index that can serialise itself.
type Snapshotter interface {
	Dirty() bool
	Snapshot() ([]byte, uint64, error)
	MarkPersisted(rev uint64)
}

// Restorer loads a serialised index.
type Restorer interface {
	Restore(data []byte) error
}

// SnapshotWorker writes the index to object storage whenever it changed
// since the last write.
type SnapshotWorker struct {
	source  Snapshotter
	objects service.ObjectStore
}

func NewSnapshotWorker(source Snapshotter, objects service.ObjectStore) *SnapshotWorker {
	return &SnapshotWorker{source: source, objects: objects}
}

// ProcessJobs implements the JobProcessor interface
func (w *SnapshotWorker) ProcessJobs(ctx context.Context) error {
	if !w.source.Dirty() {
		return nil
	}

	data, rev, err := w.source.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to serialise index: %w", err)
	}
	if err := w.objects.Put(ctx, SnapshotKey, data, "application/json"); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	w.source.MarkPersisted(rev)

	log.Printf("snapshot: wrote %d bytes at revision %d", len(data), rev)
	return nil
}

// RestoreSnapshot loads the persisted index into target. It reports false
// when no snapshot exists yet.
func RestoreSnapshot(ctx context.Context, objects service.ObjectStore, target Restorer) (bool, error) {
	data, err := objects.Get(ctx, SnapshotKey)
	if errors.Is(err, domain.ErrObjectNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if err := target.Restore(data); err != nil {
		return false, fmt.Errorf("failed to restore snapshot: %w", err)
	}
	return true, nil
}
