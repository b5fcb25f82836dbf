package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ service.ObjectStore  = (*FileStore)(nil)
	_ service.Presigner    = (*FileStore)(nil)
	_ service.ObjectLister = (*FileStore)(nil)
	_ service.ObjectStore  = (*S3Client)(nil)
	_ service.Presigner    = (*S3Client)(nil)
	_ service.ObjectLister = (*S3Client)(nil)
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestFileStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)

	require.NoError(t, store.Put(ctx, "documents/doc-1/notes.txt", []byte("hello"), "text/plain"))

	exists, err := store.Exists(ctx, "documents/doc-1/notes.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := store.Get(ctx, "documents/doc-1/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, store.Delete(ctx, "documents/doc-1/notes.txt"))
	exists, err = store.Exists(ctx, "documents/doc-1/notes.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileStore_PutOverwrites(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)

	require.NoError(t, store.Put(ctx, "snapshots/index.json", []byte("v1"), ""))
	require.NoError(t, store.Put(ctx, "snapshots/index.json", []byte("v2"), ""))

	data, err := store.Get(ctx, "snapshots/index.json")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	entries, err := os.ReadDir(filepath.Join(store.Root(), "snapshots"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_GetMissing(t *testing.T) {
	_, err := newFileStore(t).Get(context.Background(), "missing.json")

	assert.ErrorIs(t, err, domain.ErrObjectNotFound)
}

func TestFileStore_DeleteMissingIsNoop(t *testing.T) {
	assert.NoError(t, newFileStore(t).Delete(context.Background(), "missing.json"))
}

func TestFileStore_KeysStayInsideRoot(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)

	require.NoError(t, store.Put(ctx, "../../escape.txt", []byte("x"), ""))

	_, err := os.Stat(filepath.Join(store.Root(), "escape.txt"))
	assert.NoError(t, err)
}

func TestFileStore_EmptyKey(t *testing.T) {
	err := newFileStore(t).Put(context.Background(), "", []byte("x"), "")

	assert.True(t, domain.HasCode(err, domain.ErrCodeValidation))
}

func TestFileStore_PresignGet(t *testing.T) {
	store := newFileStore(t)

	url, err := store.PresignGet(context.Background(), "training/export.jsonl")

	require.NoError(t, err)
	assert.Equal(t, "file://"+filepath.ToSlash(filepath.Join(store.Root(), "training", "export.jsonl")), url)
}

func TestFileStore_ListUnderPrefix(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)

	require.NoError(t, store.Put(ctx, "training/a.json", []byte("[]"), ""))
	require.NoError(t, store.Put(ctx, "training/b.jsonl", []byte("{}\n"), ""))
	require.NoError(t, store.Put(ctx, "snapshots/index.json", []byte("{}"), ""))
	require.NoError(t, os.WriteFile(filepath.Join(store.Root(), "training", ".put-123"), []byte("partial"), 0o644))

	objects, err := store.List(ctx, "training/")
	require.NoError(t, err)

	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		keys = append(keys, o.Key)
	}
	assert.ElementsMatch(t, []string{"training/a.json", "training/b.jsonl"}, keys)
	for _, o := range objects {
		if o.Key == "training/a.json" {
			assert.Equal(t, int64(2), o.Size)
		}
	}
}

func TestFileStore_ListMissingPrefix(t *testing.T) {
	objects, err := newFileStore(t).List(context.Background(), "training/")

	require.NoError(t, err)
	assert.Empty(t, objects)
}
