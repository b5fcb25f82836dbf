package repository

import (
	"context"
	"errors"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

func (r *DocumentRepository) Create(ctx context.Context, d *domain.Document) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO documents (id, name, format, intent, chunk_count, char_count, content, object_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, d.Name, d.Format, d.Intent, d.ChunkCount, d.CharCount, d.Content, nullableString(d.ObjectKey), d.CreatedAt,
	)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var d domain.Document
	var objectKey *string
	err := r.db.QueryRow(ctx,
		`SELECT id, name, format, intent, chunk_count, char_count, content, object_key, created_at
		 FROM documents WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.Name, &d.Format, &d.Intent, &d.ChunkCount, &d.CharCount, &d.Content, &objectKey, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	if objectKey != nil {
		d.ObjectKey = *objectKey
	}
	return &d, nil
}

// List returns every document, oldest first.
func (r *DocumentRepository) List(ctx context.Context) ([]*domain.Document, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, format, intent, chunk_count, char_count, content, object_key, created_at
		 FROM documents ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []*domain.Document{}
	for rows.Next() {
		var d domain.Document
		var objectKey *string
		if err := rows.Scan(&d.ID, &d.Name, &d.Format, &d.Intent, &d.ChunkCount, &d.CharCount, &d.Content, &objectKey, &d.CreatedAt); err != nil {
			return nil, err
		}
		if objectKey != nil {
			d.ObjectKey = *objectKey
		}
		results = append(results, &d)
	}
	return results, rows.Err()
}

func (r *DocumentRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM documents`)
	return err
}
