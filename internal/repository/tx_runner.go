package repository

import (
	"context"

	"github.com/cloo-solutions/studyrag/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ingestTxOptions keeps a document row and its chunks invisible to
// searches until both are written.
var ingestTxOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

// TxRunner runs knowledge base writes in one postgres transaction.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// WithTx commits when fn returns nil and rolls back otherwise.
func (r *TxRunner) WithTx(ctx context.Context, fn func(repos service.TxRepositories) error) error {
	return pgx.BeginTxFunc(ctx, r.pool, ingestTxOptions, func(tx pgx.Tx) error {
		return fn(txRepos{tx: tx})
	})
}

type txRepos struct {
	tx pgx.Tx
}

func (r txRepos) Documents() service.DocumentRepository {
	return NewDocumentRepositoryWithTx(r.tx)
}

func (r txRepos) Chunks() service.VectorStore {
	return NewChunkRepositoryWithTx(r.tx)
}
