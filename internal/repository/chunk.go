package repository

import (
	"context"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChunkRepository stores embedded chunks in a pgvector column and
// searches them by cosine distance.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx pgx.Tx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

func (r *ChunkRepository) Upsert(ctx context.Context, chunks []domain.IndexedChunk) error {
	for _, c := range chunks {
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		metadata := c.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}
		_, err := r.db.Exec(ctx,
			`INSERT INTO chunks (id, document_id, chunk_index, content, metadata, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO UPDATE
			 SET content = EXCLUDED.content, metadata = EXCLUDED.metadata, embedding = EXCLUDED.embedding`,
			id, c.DocumentID, c.Index, c.Content, metadata, pgvector.NewVector(c.Embedding),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Search returns the k nearest chunks with cosine similarity as score.
func (r *ChunkRepository) Search(ctx context.Context, embedding []float32, k int) ([]domain.SearchHit, error) {
	if k <= 0 {
		k = 4
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, document_id, chunk_index, content, metadata, 1 - (embedding <=> $1) AS score
		 FROM chunks
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(embedding), k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hits := []domain.SearchHit{}
	for rows.Next() {
		var hit domain.SearchHit
		if err := rows.Scan(&hit.Chunk.ID, &hit.Chunk.DocumentID, &hit.Chunk.Index, &hit.Chunk.Content, &hit.Chunk.Metadata, &hit.Score); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// Stats never reports uninitialised: the schema exists once migrations ran.
func (r *ChunkRepository) Stats(ctx context.Context) (domain.IndexStats, error) {
	var stats domain.IndexStats
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT document_id) FROM chunks`,
	).Scan(&stats.Vectors, &stats.Documents)
	if err != nil {
		return domain.IndexStats{}, err
	}
	stats.Status = domain.IndexStatusEmpty
	if stats.Vectors > 0 {
		stats.Status = domain.IndexStatusActive
	}
	return stats, nil
}

func (r *ChunkRepository) Clear(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM chunks`)
	return err
}
