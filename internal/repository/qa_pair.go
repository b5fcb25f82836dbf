package repository

import (
	"context"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type QAPairRepository struct {
	db dbtx
}

func NewQAPairRepository(pool *pgxpool.Pool) *QAPairRepository {
	return &QAPairRepository{db: pool}
}

func (r *QAPairRepository) Add(ctx context.Context, p *domain.QAPair) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO qa_pairs (id, context, question, answer, intent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Context, p.Question, p.Answer, nullableString(string(p.Intent)), p.CreatedAt,
	)
	return err
}

func (r *QAPairRepository) List(ctx context.Context) ([]*domain.QAPair, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, context, question, answer, intent, created_at FROM qa_pairs ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []*domain.QAPair{}
	for rows.Next() {
		var p domain.QAPair
		var intent *string
		if err := rows.Scan(&p.ID, &p.Context, &p.Question, &p.Answer, &intent, &p.CreatedAt); err != nil {
			return nil, err
		}
		if intent != nil {
			p.Intent = domain.Intent(*intent)
		}
		results = append(results, &p)
	}
	return results, rows.Err()
}

func (r *QAPairRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM qa_pairs`)
	return err
}
