package domain

// IndexStatus describes the lifecycle of the vector index.
type IndexStatus string

const (
	IndexStatusUninitialized IndexStatus = "uninitialized"
	IndexStatusEmpty         IndexStatus = "empty"
	IndexStatusActive        IndexStatus = "active"
)

// IndexStats is a point-in-time view of the index.
type IndexStats struct {
	Status    IndexStatus `json:"status"`
	Documents int         `json:"documents_count"`
	Vectors   int         `json:"vectors_count"`
}

// IsEmpty reports whether nothing has been indexed.
func (s IndexStats) IsEmpty() bool {
	return s.Vectors == 0
}

// IndexedChunk is a chunk stored in the index with its embedding.
type IndexedChunk struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id"`
	Index      int               `json:"chunk_index"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Embedding  []float32         `json:"embedding,omitempty"`
}

// SearchHit is an indexed chunk matched by a similarity search.
type SearchHit struct {
	Chunk IndexedChunk
	Score float64
}
