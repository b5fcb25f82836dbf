package service

import (
	"sync"
	"testing"
	"time"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_Lifecycle(t *testing.T) {
	store := NewSessionStore()

	id := store.Create()
	history, err := store.Get(id)
	require.NoError(t, err)
	assert.Empty(t, history)

	turns := []domain.Message{
		{Role: domain.RoleUser, Content: "q"},
		{Role: domain.RoleAssistant, Content: "a"},
	}
	store.Update(id, turns)
	turns[0].Content = "mutated"

	history, err = store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "q", history[0].Content)

	history[1].Content = "also mutated"
	again, _ := store.Get(id)
	assert.Equal(t, "a", again[1].Content)

	require.NoError(t, store.Clear(id))
	history, err = store.Get(id)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSessionStore_UnknownSession(t *testing.T) {
	store := NewSessionStore()

	_, err := store.Get("nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, store.Clear("nope"), domain.ErrSessionNotFound)
}

func TestSessionStore_Prune(t *testing.T) {
	store := NewSessionStore()
	store.Create()
	store.Create()

	assert.Equal(t, 0, store.Prune(time.Hour))
	assert.Equal(t, 2, store.Len())

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 2, store.Prune(time.Millisecond))
	assert.Equal(t, 0, store.Len())
}

func TestSessionStore_ConcurrentAppendsAllLand(t *testing.T) {
	store := NewSessionStore()
	id := store.Create()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Append(id,
				domain.Message{Role: domain.RoleUser, Content: "q"},
				domain.Message{Role: domain.RoleAssistant, Content: "a"},
			)
		}()
	}
	wg.Wait()

	history, err := store.Get(id)
	require.NoError(t, err)
	assert.Len(t, history, 40)
}

func TestSessionStore_AppendRecreatesPrunedSession(t *testing.T) {
	store := NewSessionStore()

	store.Append("gone", domain.Message{Role: domain.RoleUser, Content: "q"})

	history, err := store.Get("gone")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
