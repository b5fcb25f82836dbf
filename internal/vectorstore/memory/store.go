// Package memory is an in-process vector index using brute-force cosine
// similarity. It also keeps document records and collected QA pairs so a
// single snapshot captures the whole knowledge base.
package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/cloo-solutions/studyrag/internal/domain"
)

var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrInvalidDimension  = errors.New("invalid dimension")
)

// Store is safe for concurrent use. Writers are serialised by mu.
type Store struct {
	mu          sync.RWMutex
	dimension   int
	initialized bool

	chunks    []domain.IndexedChunk
	documents map[string]*domain.Document
	docOrder  []string
	pairs     []*domain.QAPair

	// rev counts mutations; savedRev is the rev last persisted.
	rev      uint64
	savedRev uint64
}

// NewStore returns an uninitialised store. A dimension of 0 accepts the
// dimension of the first upserted vector.
func NewStore(dimension int) *Store {
	return &Store{
		dimension: dimension,
		documents: make(map[string]*domain.Document),
	}
}

// Init marks the store initialised and empty.
func (s *Store) Init(dimension int) error {
	if dimension < 0 {
		return ErrInvalidDimension
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.clearLocked()
	s.initialized = true
	s.rev++
	return nil
}

func (s *Store) Upsert(_ context.Context, chunks []domain.IndexedChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertLocked(chunks)
}

func (s *Store) upsertLocked(chunks []domain.IndexedChunk) error {
	dim := s.dimension
	for _, c := range chunks {
		if dim == 0 {
			dim = len(c.Embedding)
		}
		if len(c.Embedding) != dim || dim == 0 {
			return ErrDimensionMismatch
		}
	}
	s.dimension = dim

	byID := make(map[string]int, len(s.chunks))
	for i, c := range s.chunks {
		if c.ID != "" {
			byID[c.ID] = i
		}
	}
	for _, c := range chunks {
		if i, ok := byID[c.ID]; ok && c.ID != "" {
			s.chunks[i] = c
			continue
		}
		s.chunks = append(s.chunks, c)
	}
	s.initialized = true
	s.rev++
	return nil
}

// Search returns the k chunks most similar to embedding, best first.
func (s *Store) Search(_ context.Context, embedding []float32, k int) ([]domain.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchLocked(embedding, k)
}

func (s *Store) searchLocked(embedding []float32, k int) ([]domain.SearchHit, error) {
	if k <= 0 {
		k = 4
	}
	if len(s.chunks) == 0 {
		return []domain.SearchHit{}, nil
	}
	if len(embedding) != s.dimension {
		return nil, ErrDimensionMismatch
	}

	hits := make([]domain.SearchHit, len(s.chunks))
	for i, c := range s.chunks {
		hits[i] = domain.SearchHit{Chunk: c, Score: cosine(c.Embedding, embedding)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func (s *Store) Stats(_ context.Context) (domain.IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statsLocked(), nil
}

func (s *Store) statsLocked() domain.IndexStats {
	if !s.initialized {
		return domain.IndexStats{Status: domain.IndexStatusUninitialized}
	}
	docs := make(map[string]struct{})
	for _, c := range s.chunks {
		docs[c.DocumentID] = struct{}{}
	}
	stats := domain.IndexStats{
		Status:    domain.IndexStatusEmpty,
		Documents: len(docs),
		Vectors:   len(s.chunks),
	}
	if stats.Vectors > 0 {
		stats.Status = domain.IndexStatusActive
	}
	return stats
}

// Clear drops every vector. The store stays initialised.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearChunksLocked()
	return nil
}

func (s *Store) clearChunksLocked() {
	s.chunks = nil
	s.initialized = true
	s.rev++
}

func (s *Store) clearLocked() {
	s.chunks = nil
	s.documents = make(map[string]*domain.Document)
	s.docOrder = nil
	s.pairs = nil
}

// Dirty reports whether anything changed since the last MarkPersisted.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rev != s.savedRev
}

// MarkPersisted records that the snapshot taken at rev has been saved.
func (s *Store) MarkPersisted(rev uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rev > s.savedRev {
		s.savedRev = rev
	}
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
