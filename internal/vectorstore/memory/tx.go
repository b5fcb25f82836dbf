package memory

import (
	"context"
	"maps"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/service"
)

// WithTx runs fn holding the store's write lock. Any error restores the
// state from before fn ran.
func (s *Store) WithTx(_ context.Context, fn func(repos service.TxRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := struct {
		chunks      []domain.IndexedChunk
		documents   map[string]*domain.Document
		docOrder    []string
		initialized bool
		dimension   int
		rev         uint64
	}{
		chunks:      append([]domain.IndexedChunk(nil), s.chunks...),
		documents:   maps.Clone(s.documents),
		docOrder:    append([]string(nil), s.docOrder...),
		initialized: s.initialized,
		dimension:   s.dimension,
		rev:         s.rev,
	}

	if err := fn(&txRepos{s: s}); err != nil {
		s.chunks = saved.chunks
		s.documents = saved.documents
		s.docOrder = saved.docOrder
		s.initialized = saved.initialized
		s.dimension = saved.dimension
		s.rev = saved.rev
		return err
	}
	return nil
}

type txRepos struct {
	s *Store
}

func (t *txRepos) Documents() service.DocumentRepository {
	return &DocumentStore{s: t.s, locked: true}
}

func (t *txRepos) Chunks() service.VectorStore {
	return &txChunks{s: t.s}
}

// txChunks operates on a store whose lock is already held.
type txChunks struct {
	s *Store
}

func (c *txChunks) Upsert(_ context.Context, chunks []domain.IndexedChunk) error {
	return c.s.upsertLocked(chunks)
}

func (c *txChunks) Search(_ context.Context, embedding []float32, k int) ([]domain.SearchHit, error) {
	return c.s.searchLocked(embedding, k)
}

func (c *txChunks) Stats(_ context.Context) (domain.IndexStats, error) {
	return c.s.statsLocked(), nil
}

func (c *txChunks) Clear(_ context.Context) error {
	c.s.clearChunksLocked()
	return nil
}
