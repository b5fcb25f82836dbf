package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSessionPruner struct {
	mock.Mock
}

func (m *MockSessionPruner) Prune(maxIdle time.Duration) int {
	args := m.Called(maxIdle)
	return args.Int(0)
}

func TestJanitor_PrunesSessionsAndForgetsFinishedJobs(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	q := NewIngestQueue(10)
	q.now = func() time.Time { return start }
	done := q.Enqueue("/watch/old.md", domain.IntentFactual)
	require.NoError(t, q.UpdateJobStatus(ctx, done.ID, domain.IngestJobStatusCompleted, ""))
	pending := q.Enqueue("/watch/new.md", domain.IntentFactual)

	sessions := new(MockSessionPruner)
	sessions.On("Prune", time.Hour).Return(2)

	j := NewJanitor(sessions, q, time.Hour)
	j.now = func() time.Time { return start.Add(2 * time.Hour) }

	require.NoError(t, j.ProcessJobs(ctx))

	_, ok := q.Get(done.ID)
	assert.False(t, ok)
	_, ok = q.Get(pending.ID)
	assert.True(t, ok)
	sessions.AssertExpectations(t)
}

func TestJanitor_KeepsRecentJobs(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	q := NewIngestQueue(10)
	q.now = func() time.Time { return start }
	done := q.Enqueue("/watch/a.md", domain.IntentFactual)
	require.NoError(t, q.UpdateJobStatus(ctx, done.ID, domain.IngestJobStatusFailed, "boom"))

	sessions := new(MockSessionPruner)
	sessions.On("Prune", time.Hour).Return(0)

	j := NewJanitor(sessions, q, time.Hour)
	j.now = func() time.Time { return start.Add(30 * time.Minute) }

	require.NoError(t, j.ProcessJobs(ctx))

	_, ok := q.Get(done.ID)
	assert.True(t, ok)
}

func TestJanitor_WithoutQueue(t *testing.T) {
	sessions := new(MockSessionPruner)
	sessions.On("Prune", time.Minute).Return(0)

	assert.NoError(t, NewJanitor(sessions, nil, time.Minute).ProcessJobs(context.Background()))
	sessions.AssertExpectations(t)
}
