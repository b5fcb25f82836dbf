package memory

import (
	"context"

	"github.com/cloo-solutions/studyrag/internal/domain"
)

// QAStore is the training-pair view of a Store.
type QAStore struct {
	s *Store
}

func (s *Store) QAPairs() *QAStore {
	return &QAStore{s: s}
}

func (q *QAStore) Add(_ context.Context, pair *domain.QAPair) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()

	stored := *pair
	q.s.pairs = append(q.s.pairs, &stored)
	q.s.rev++
	return nil
}

func (q *QAStore) List(_ context.Context) ([]*domain.QAPair, error) {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()

	out := make([]*domain.QAPair, 0, len(q.s.pairs))
	for _, p := range q.s.pairs {
		pair := *p
		out = append(out, &pair)
	}
	return out, nil
}

func (q *QAStore) DeleteAll(_ context.Context) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()

	q.s.pairs = nil
	q.s.rev++
	return nil
}
