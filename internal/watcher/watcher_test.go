package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingQueue struct {
	mu      sync.Mutex
	paths   []string
	intents []domain.Intent
	ch      chan string
}

func newRecordingQueue() *recordingQueue {
	return &recordingQueue{ch: make(chan string, 16)}
}

func (q *recordingQueue) Enqueue(path string, intent domain.Intent) *domain.IngestJob {
	q.mu.Lock()
	q.paths = append(q.paths, path)
	q.intents = append(q.intents, intent)
	q.mu.Unlock()
	q.ch <- path
	return &domain.IngestJob{ID: "job-" + filepath.Base(path), Path: path, Intent: intent}
}

func (q *recordingQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.paths)
}

func startWatcher(t *testing.T, dir string, queue Enqueuer) *Watcher {
	t.Helper()
	w, err := New(dir, domain.IntentSummary, queue)
	require.NoError(t, err)
	w.SetDebounce(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		w.Close()
	})
	return w
}

func TestNew_RejectsMissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), domain.IntentFactual, newRecordingQueue())

	assert.Error(t, err)
}

func TestNew_RejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := New(path, domain.IntentFactual, newRecordingQueue())

	assert.Error(t, err)
}

func TestWatcher_QueuesNewFile(t *testing.T) {
	dir := t.TempDir()
	queue := newRecordingQueue()
	startWatcher(t, dir, queue)

	path := filepath.Join(dir, "lecture.md")
	require.NoError(t, os.WriteFile(path, []byte("# Lecture"), 0o600))

	select {
	case got := <-queue.ch:
		assert.Equal(t, path, got)
		assert.Equal(t, []domain.Intent{domain.IntentSummary}, queue.intents)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for enqueue")
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	queue := newRecordingQueue()
	startWatcher(t, dir, queue)

	path := filepath.Join(dir, "notes.txt")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("draft"), 0o600))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-queue.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for enqueue")
	}
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 1, queue.count())
}

func TestWatcher_IgnoresUnsupportedAndHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	queue := newRecordingQueue()
	startWatcher(t, dir, queue)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.json"), []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".notes.md.swp"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "~$essay.docx"), []byte("x"), 0o600))

	select {
	case got := <-queue.ch:
		t.Fatalf("unexpected enqueue of %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_ScanExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.html"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.csv"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.md"), 0o700))

	queue := newRecordingQueue()
	w, err := New(dir, "", queue)
	require.NoError(t, err)
	defer w.Close()

	n, err := w.ScanExisting()

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "a.pdf"), filepath.Join(dir, "b.html")}, queue.paths)
	assert.Equal(t, []domain.Intent{domain.DefaultIntent, domain.DefaultIntent}, queue.intents)
}

func TestAccepts(t *testing.T) {
	assert.True(t, accepts("/x/notes.TXT"))
	assert.True(t, accepts("/x/page.htm"))
	assert.False(t, accepts("/x/.hidden.md"))
	assert.False(t, accepts("/x/~$lock.docx"))
	assert.False(t, accepts("/x/archive.zip"))
}
