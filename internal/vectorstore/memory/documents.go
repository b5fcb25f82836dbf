package memory

import (
	"context"

	"github.com/cloo-solutions/studyrag/internal/domain"
)

// DocumentStore is the document-record view of a Store.
type DocumentStore struct {
	s      *Store
	locked bool
}

func (s *Store) Documents() *DocumentStore {
	return &DocumentStore{s: s}
}

func (d *DocumentStore) lock() func() {
	if d.locked {
		return func() {}
	}
	d.s.mu.Lock()
	return d.s.mu.Unlock
}

func (d *DocumentStore) rlock() func() {
	if d.locked {
		return func() {}
	}
	d.s.mu.RLock()
	return d.s.mu.RUnlock
}

func (d *DocumentStore) Create(_ context.Context, doc *domain.Document) error {
	defer d.lock()()

	if _, ok := d.s.documents[doc.ID]; ok {
		return domain.NewDomainError(domain.ErrCodeAlreadyExists, "document already exists")
	}
	stored := *doc
	d.s.documents[doc.ID] = &stored
	d.s.docOrder = append(d.s.docOrder, doc.ID)
	d.s.rev++
	return nil
}

func (d *DocumentStore) GetByID(_ context.Context, id string) (*domain.Document, error) {
	defer d.rlock()()

	doc, ok := d.s.documents[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	out := *doc
	return &out, nil
}

// List returns documents in insertion order.
func (d *DocumentStore) List(_ context.Context) ([]*domain.Document, error) {
	defer d.rlock()()

	out := make([]*domain.Document, 0, len(d.s.docOrder))
	for _, id := range d.s.docOrder {
		doc := *d.s.documents[id]
		out = append(out, &doc)
	}
	return out, nil
}

func (d *DocumentStore) DeleteAll(_ context.Context) error {
	defer d.lock()()

	d.s.documents = make(map[string]*domain.Document)
	d.s.docOrder = nil
	d.s.rev++
	return nil
}
