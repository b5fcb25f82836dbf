package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/telemetry"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// VectorStore persists embedded chunks and answers similarity queries.
type VectorStore interface {
	Upsert(ctx context.Context, chunks []domain.IndexedChunk) error
	Search(ctx context.Context, embedding []float32, k int) ([]domain.SearchHit, error)
	Stats(ctx context.Context) (domain.IndexStats, error)
	Clear(ctx context.Context) error
}

// IndexService embeds chunks and queries through a VectorStore.
type IndexService struct {
	client EmbeddingClient
	store  VectorStore
}

func NewIndexService(client EmbeddingClient, store VectorStore) *IndexService {
	return &IndexService{client: client, store: store}
}

// Embed produces indexed chunks for a document without storing them.
func (s *IndexService) Embed(ctx context.Context, documentID string, chunks []domain.Chunk, metadata map[string]string) ([]domain.IndexedChunk, error) {
	indexed := make([]domain.IndexedChunk, 0, len(chunks))
	for _, c := range chunks {
		embedding, err := s.client.GenerateEmbedding(ctx, c.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk %d: %w", c.Index, err)
		}

		meta := make(map[string]string, len(metadata)+2)
		for k, v := range metadata {
			meta[k] = v
		}
		meta["document_id"] = documentID
		meta["chunk_index"] = strconv.Itoa(c.Index)

		indexed = append(indexed, domain.IndexedChunk{
			DocumentID: documentID,
			Index:      c.Index,
			Content:    c.Content,
			Metadata:   meta,
			Embedding:  embedding,
		})
	}
	return indexed, nil
}

// Add embeds and stores chunks in one step.
func (s *IndexService) Add(ctx context.Context, documentID string, chunks []domain.Chunk, metadata map[string]string) (int, error) {
	indexed, err := s.Embed(ctx, documentID, chunks, metadata)
	if err != nil {
		return 0, err
	}
	if err := s.store.Upsert(ctx, indexed); err != nil {
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}
	return len(indexed), nil
}

// Search embeds the query and returns the k nearest passages with the
// store's similarity as the relevance score.
func (s *IndexService) Search(ctx context.Context, query string, k int) ([]domain.RetrievedSource, error) {
	ctx, span := telemetry.StartSpan(ctx, "IndexService.Search", telemetry.SpanAttributes{Operation: "search"})
	defer span.End()

	embedding, err := s.client.GenerateEmbedding(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := s.store.Search(ctx, embedding, k)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	sources := make([]domain.RetrievedSource, 0, len(hits))
	for _, hit := range hits {
		sources = append(sources, domain.RetrievedSource{
			Content:  hit.Chunk.Content,
			Score:    domain.Score(hit.Score),
			Metadata: hit.Chunk.Metadata,
		})
	}
	return sources, nil
}

func (s *IndexService) Stats(ctx context.Context) (domain.IndexStats, error) {
	return s.store.Stats(ctx)
}

func (s *IndexService) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}
