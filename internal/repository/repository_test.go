//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/service"
	"github.com/cloo-solutions/studyrag/internal/testutil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	pc := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { _ = pc.Terminate(ctx) })

	return testutil.NewTestPool(ctx, t, pc)
}

func unitVector(hot int) []float32 {
	v := make([]float32, 1536)
	v[hot] = 1
	return v
}

func newDocument(name string) *domain.Document {
	return &domain.Document{
		ID:         uuid.NewString(),
		Name:       name,
		Format:     domain.FormatText,
		Intent:     domain.IntentFactual,
		ChunkCount: 1,
		CharCount:  5,
		Content:    "hello",
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestDocumentRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(ctx, t)
	repo := NewDocumentRepository(pool)

	doc := newDocument("a.txt")
	doc.ObjectKey = "documents/" + doc.ID + "/a.txt"
	require.NoError(t, repo.Create(ctx, doc))

	got, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Name, got.Name)
	assert.Equal(t, doc.ObjectKey, got.ObjectKey)
	assert.Equal(t, domain.IntentFactual, got.Intent)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	require.NoError(t, repo.DeleteAll(ctx))
	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestChunkRepository_SearchAndStats(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(ctx, t)
	docs := NewDocumentRepository(pool)
	chunks := NewChunkRepository(pool)

	stats, err := chunks.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.IndexStatusEmpty, stats.Status)

	doc := newDocument("b.txt")
	require.NoError(t, docs.Create(ctx, doc))
	require.NoError(t, chunks.Upsert(ctx, []domain.IndexedChunk{
		{ID: uuid.NewString(), DocumentID: doc.ID, Index: 0, Content: "zero", Metadata: map[string]string{"source": "b.txt"}, Embedding: unitVector(0)},
		{ID: uuid.NewString(), DocumentID: doc.ID, Index: 1, Content: "one", Embedding: unitVector(1)},
	}))

	hits, err := chunks.Search(ctx, unitVector(1), 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "one", hits[0].Chunk.Content)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.InDelta(t, 0.0, hits[1].Score, 1e-6)
	assert.Equal(t, "b.txt", hits[1].Chunk.Metadata["source"])

	stats, err = chunks.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.IndexStats{Status: domain.IndexStatusActive, Documents: 1, Vectors: 2}, stats)

	require.NoError(t, chunks.Clear(ctx))
	stats, err = chunks.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, stats.IsEmpty())
}

func TestTxRunner_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(ctx, t)
	runner := NewTxRunner(pool)

	doc := newDocument("c.txt")
	boom := errors.New("boom")
	err := runner.WithTx(ctx, func(repos service.TxRepositories) error {
		require.NoError(t, repos.Documents().Create(ctx, doc))
		require.NoError(t, repos.Chunks().Upsert(ctx, []domain.IndexedChunk{
			{DocumentID: doc.ID, Content: "x", Embedding: unitVector(2)},
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = NewDocumentRepository(pool).GetByID(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	stats, err := NewChunkRepository(pool).Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Vectors)
}

func TestQAPairRepository(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(ctx, t)
	repo := NewQAPairRepository(pool)

	require.NoError(t, repo.Add(ctx, &domain.QAPair{
		ID:        uuid.NewString(),
		Context:   "ctx",
		Question:  "q",
		Answer:    "a",
		Intent:    domain.IntentSummary,
		CreatedAt: time.Now().UTC(),
	}))

	pairs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, domain.IntentSummary, pairs[0].Intent)

	require.NoError(t, testutil.TruncateAll(ctx, pool))
	pairs, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}
