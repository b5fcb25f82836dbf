package service

import (
	"context"
	"fmt"
	"log"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/telemetry"
)

// ObjectStore keeps raw uploads, snapshots and training exports.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// DocumentObjectKey is where the raw upload for a document is stored.
func DocumentObjectKey(documentID, name string) string {
	return path.Join("documents", documentID, path.Base(name))
}

// AddDocumentInput is an extracted document ready for indexing.
type AddDocumentInput struct {
	Name        string
	Format      domain.DocumentFormat
	Intent      domain.Intent
	Records     []domain.Record
	Raw         []byte
	ContentType string
}

// AddDocumentOutput reports what an ingestion produced.
type AddDocumentOutput struct {
	Status             string           `json:"status"`
	Document           *domain.Document `json:"document"`
	DocumentsProcessed int              `json:"documents_processed"`
	ChunksCreated      int              `json:"chunks_created"`
	SplitInfo          []*SplitInfo     `json:"split_info"`
}

// KnowledgeBaseService ingests documents and exposes the index lifecycle.
type KnowledgeBaseService struct {
	chunker  *ChunkingService
	index    *IndexService
	docs     DocumentRepository
	txRunner TxRunner
	objects  ObjectStore
	uuidGen  UUIDGenerator
}

func NewKnowledgeBaseService(chunker *ChunkingService, index *IndexService, docs DocumentRepository, txRunner TxRunner) *KnowledgeBaseService {
	return &KnowledgeBaseService{
		chunker:  chunker,
		index:    index,
		docs:     docs,
		txRunner: txRunner,
		uuidGen:  &DefaultUUIDGenerator{},
	}
}

// SetObjectStore enables raw upload retention.
func (s *KnowledgeBaseService) SetObjectStore(objects ObjectStore) {
	s.objects = objects
}

// SetUUIDGenerator replaces the id source (for testing).
func (s *KnowledgeBaseService) SetUUIDGenerator(gen UUIDGenerator) {
	s.uuidGen = gen
}

// AddDocument chunks every record with the intent's adjusted policy,
// embeds the chunks and stores the document and its vectors atomically.
func (s *KnowledgeBaseService) AddDocument(ctx context.Context, input AddDocumentInput) (*AddDocumentOutput, error) {
	intent := input.Intent.OrDefault()
	docID := s.uuidGen.NewString()

	ctx, span := telemetry.StartSpan(ctx, "KnowledgeBaseService.AddDocument", telemetry.SpanAttributes{
		Intent:     string(intent),
		DocumentID: docID,
		Operation:  "add_document",
	})
	defer span.End()

	if strings.TrimSpace(input.Name) == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "document name is required")
	}

	infos := make([]*SplitInfo, 0, len(input.Records))
	var indexed []domain.IndexedChunk
	var content strings.Builder
	next := 0

	for _, rec := range input.Records {
		if strings.TrimSpace(rec.Text) == "" {
			continue
		}
		if content.Len() > 0 {
			content.WriteString("\n\n")
		}
		content.WriteString(rec.Text)

		info := s.chunker.SplitInfo(rec.Text, intent)
		infos = append(infos, info)

		// chunk indexes run across the whole document
		chunks := make([]domain.Chunk, len(info.Chunks))
		for i, c := range info.Chunks {
			c.Index = next
			next++
			chunks[i] = c
		}

		meta := map[string]string{
			"source": input.Name,
			"intent": string(intent),
		}
		if rec.Page > 0 {
			meta["page"] = strconv.Itoa(rec.Page)
		}

		embedded, err := s.index.Embed(ctx, docID, chunks, meta)
		if err != nil {
			span.SetError(err)
			return nil, err
		}
		indexed = append(indexed, embedded...)
	}

	if len(indexed) == 0 {
		return nil, domain.ErrEmptyContent
	}

	for i := range indexed {
		indexed[i].ID = s.uuidGen.NewString()
	}

	doc := &domain.Document{
		ID:         docID,
		Name:       input.Name,
		Format:     input.Format,
		Intent:     intent,
		ChunkCount: len(indexed),
		CharCount:  utf8.RuneCountInString(content.String()),
		Content:    content.String(),
		CreatedAt:  time.Now().UTC(),
	}

	if s.objects != nil && len(input.Raw) > 0 {
		key := DocumentObjectKey(docID, input.Name)
		if err := s.objects.Put(ctx, key, input.Raw, input.ContentType); err != nil {
			log.Printf("ingest: failed to store raw upload for %s: %v", input.Name, err)
		} else {
			doc.ObjectKey = key
		}
	}

	err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Documents().Create(ctx, doc); err != nil {
			return fmt.Errorf("failed to create document: %w", err)
		}
		if err := repos.Chunks().Upsert(ctx, indexed); err != nil {
			return fmt.Errorf("failed to store chunks: %w", err)
		}
		return nil
	})
	if err != nil {
		span.SetError(err)
		if doc.ObjectKey != "" {
			if delErr := s.objects.Delete(ctx, doc.ObjectKey); delErr != nil {
				log.Printf("ingest: failed to remove orphaned object %s: %v", doc.ObjectKey, delErr)
			}
		}
		return nil, err
	}

	return &AddDocumentOutput{
		Status:             "success",
		Document:           doc,
		DocumentsProcessed: len(infos),
		ChunksCreated:      len(indexed),
		SplitInfo:          infos,
	}, nil
}

// Stats reports the index state. An empty index has zero counts.
func (s *KnowledgeBaseService) Stats(ctx context.Context) (domain.IndexStats, error) {
	stats, err := s.index.Stats(ctx)
	if err != nil {
		return domain.IndexStats{}, err
	}
	if stats.IsEmpty() {
		return domain.IndexStats{Status: domain.IndexStatusEmpty}, nil
	}
	stats.Status = domain.IndexStatusActive
	return stats, nil
}

// Clear removes every vector and document record.
func (s *KnowledgeBaseService) Clear(ctx context.Context) error {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeBaseService.Clear", telemetry.SpanAttributes{Operation: "clear"})
	defer span.End()

	docs, err := s.docs.List(ctx)
	if err != nil {
		span.SetError(err)
		return err
	}

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Chunks().Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear vectors: %w", err)
		}
		return repos.Documents().DeleteAll(ctx)
	})
	if err != nil {
		span.SetError(err)
		return err
	}

	if s.objects != nil {
		for _, d := range docs {
			if d.ObjectKey == "" {
				continue
			}
			if err := s.objects.Delete(ctx, d.ObjectKey); err != nil {
				log.Printf("ingest: failed to delete object %s: %v", d.ObjectKey, err)
			}
		}
	}
	return nil
}

func (s *KnowledgeBaseService) ListDocuments(ctx context.Context) ([]*domain.Document, error) {
	return s.docs.List(ctx)
}

func (s *KnowledgeBaseService) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return s.docs.GetByID(ctx, id)
}

// CombinedContent joins the text of the given documents, or of every
// document when ids is empty, separated by blank lines.
func (s *KnowledgeBaseService) CombinedContent(ctx context.Context, ids []string) (string, error) {
	var docs []*domain.Document
	if len(ids) == 0 {
		all, err := s.docs.List(ctx)
		if err != nil {
			return "", err
		}
		docs = all
	} else {
		for _, id := range ids {
			d, err := s.docs.GetByID(ctx, id)
			if err != nil {
				return "", err
			}
			docs = append(docs, d)
		}
	}

	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if strings.TrimSpace(d.Content) != "" {
			parts = append(parts, d.Content)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}
