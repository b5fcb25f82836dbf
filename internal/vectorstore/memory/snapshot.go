package memory

import (
	"encoding/json"
	"fmt"

	"github.com/cloo-solutions/studyrag/internal/domain"
)

const snapshotVersion = 1

type snapshot struct {
	Version   int                   `json:"version"`
	Dimension int                   `json:"dimension"`
	Chunks    []domain.IndexedChunk `json:"chunks"`
	Documents []*domain.Document    `json:"documents"`
	Pairs     []*domain.QAPair      `json:"qa_pairs"`
}

// Snapshot serialises the store. The returned rev is passed to
// MarkPersisted once the bytes are safely stored.
func (s *Store) Snapshot() ([]byte, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		Version:   snapshotVersion,
		Dimension: s.dimension,
		Chunks:    s.chunks,
		Documents: make([]*domain.Document, 0, len(s.docOrder)),
		Pairs:     s.pairs,
	}
	if snap.Chunks == nil {
		snap.Chunks = []domain.IndexedChunk{}
	}
	if snap.Pairs == nil {
		snap.Pairs = []*domain.QAPair{}
	}
	for _, id := range s.docOrder {
		snap.Documents = append(snap.Documents, s.documents[id])
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, s.rev, nil
}

// Restore replaces the store contents with a snapshot. The store is
// initialised and clean afterwards.
func (s *Store) Restore(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	for _, c := range snap.Chunks {
		if len(c.Embedding) != snap.Dimension {
			return fmt.Errorf("chunk %s: %w", c.ID, ErrDimensionMismatch)
		}
	}
	for i, d := range snap.Documents {
		if d == nil {
			return fmt.Errorf("snapshot document %d is null", i)
		}
	}
	for i, p := range snap.Pairs {
		if p == nil {
			return fmt.Errorf("snapshot qa pair %d is null", i)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearLocked()
	s.dimension = snap.Dimension
	s.chunks = snap.Chunks
	for _, d := range snap.Documents {
		s.documents[d.ID] = d
		s.docOrder = append(s.docOrder, d.ID)
	}
	s.pairs = snap.Pairs
	s.initialized = true
	s.rev++
	s.savedRev = s.rev
	return nil
}
