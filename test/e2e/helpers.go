//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/cloo-solutions/studyrag/internal/api/handlers"
	"github.com/cloo-solutions/studyrag/internal/cli/client"
	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/jobs"
	"github.com/cloo-solutions/studyrag/internal/loader"
	"github.com/cloo-solutions/studyrag/internal/repository"
	"github.com/cloo-solutions/studyrag/internal/server"
	"github.com/cloo-solutions/studyrag/internal/service"
	"github.com/cloo-solutions/studyrag/internal/storage"
	"github.com/cloo-solutions/studyrag/internal/testutil"
	"github.com/cloo-solutions/studyrag/internal/vectorstore/memory"
)

const (
	testToken    = "e2e-token"
	embeddingDim = 1536
)

// scriptedModel embeds text as a hashed bag of words and answers with
// canned text, so runs are deterministic and need no provider.
type scriptedModel struct {
	mu       sync.Mutex
	prompts  [][]domain.Message
	answer   string
	exercise string
}

func newScriptedModel() *scriptedModel {
	return &scriptedModel{
		answer: "Goroutines are lightweight threads managed by the Go runtime.",
		exercise: `Here you go:
{"exercises": [
  {"question": "What schedules goroutines?", "type": "choice", "options": ["the OS", "the Go runtime"], "answer": "the Go runtime", "explanation": "Goroutines are multiplexed onto OS threads by the runtime."},
  {"question": "Channels are used to ____ between goroutines.", "type": "fill_in", "answer": "communicate", "explanation": "Share memory by communicating."},
  {"question": "Why are goroutines cheap?", "type": "short_answer", "answer": "They start with small stacks.", "explanation": "Stacks grow on demand."}
]}`,
	}
}

func (m *scriptedModel) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, embeddingDim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if word == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%embeddingDim]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}

func (m *scriptedModel) Complete(_ context.Context, messages []domain.Message, _ domain.GenerationOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, messages)
	last := messages[len(messages)-1].Content
	if strings.Contains(last, "practice exercises") {
		return m.exercise, nil
	}
	return m.answer, nil
}

func (m *scriptedModel) lastPrompt() []domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return nil
	}
	return m.prompts[len(m.prompts)-1]
}

// storageBackend is the persistence a test environment runs on.
type storageBackend struct {
	vectors service.VectorStore
	docs    service.DocumentRepository
	tx      service.TxRunner
	qa      service.QARepository
	objects service.ObjectStore
}

// E2ETestEnv is a running API server with its collaborators exposed.
type E2ETestEnv struct {
	T       *testing.T
	Ctx     context.Context
	Server  *httptest.Server
	API     *client.APIClient
	Model   *scriptedModel
	Queue   *jobs.IngestQueue
	Ingest  *jobs.IngestWorker
	Memory  *memory.Store
	Objects service.ObjectStore
	DataDir string

	BinaryDir string
	cleanups  []func()
}

// SetupMemoryEnv starts a server on the in-memory backend with objects in
// a temp directory.
func SetupMemoryEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()
	dataDir := t.TempDir()

	objects, err := storage.NewFileStore(filepath.Join(dataDir, "objects"))
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}

	store := memory.NewStore(embeddingDim)
	env := startEnv(t, ctx, storageBackend{
		vectors: store,
		docs:    store.Documents(),
		tx:      store,
		qa:      store.QAPairs(),
		objects: objects,
	})
	env.Memory = store
	env.DataDir = dataDir
	return env
}

// SetupPostgresEnv starts Postgres and RustFS containers and a server on
// the pgvector backend with S3 objects.
func SetupPostgresEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewObjectStoreContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC)

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     s3C.AccessKey,
		SecretAccessKey: s3C.SecretKey,
		Bucket:          "e2e-objects",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	env := startEnv(t, ctx, storageBackend{
		vectors: repository.NewChunkRepository(pool),
		docs:    repository.NewDocumentRepository(pool),
		tx:      repository.NewTxRunner(pool),
		qa:      repository.NewQAPairRepository(pool),
		objects: s3Client,
	})
	env.cleanups = append(env.cleanups,
		func() { _ = s3C.Terminate(ctx) },
		func() { _ = pgC.Terminate(ctx) },
	)
	return env
}

func startEnv(t *testing.T, ctx context.Context, b storageBackend) *E2ETestEnv {
	model := newScriptedModel()

	chunker := service.NewChunkingService(service.DefaultStrategyTable())
	index := service.NewIndexService(model, b.vectors)
	kb := service.NewKnowledgeBaseService(chunker, index, b.docs, b.tx)
	kb.SetObjectStore(b.objects)
	training := service.NewTrainingService(b.qa, b.objects)
	answers := service.NewAnswerServiceWithRecorder(index, model, service.DefaultPromptTable(), service.AnswerConfig{
		K:           4,
		Threshold:   0,
		Temperature: 0.7,
	}, training)
	exercises := service.NewExerciseService(model)
	sessions := service.NewSessionStore()
	docLoader := loader.New()
	queue := jobs.NewIngestQueue(5)

	router := server.NewRouter(server.RouterConfig{
		APIToken:        testToken,
		ChunkHandler:    handlers.NewChunkHandler(chunker),
		DocumentHandler: handlers.NewDocumentHandler(kb, docLoader),
		AnswerHandler:   handlers.NewAnswerHandler(answers, sessions),
		ExerciseHandler: handlers.NewExerciseHandler(exercises, kb),
		TrainingHandler: handlers.NewTrainingHandler(training),
		JobHandler:      handlers.NewJobHandler(queue),
	})
	srv := httptest.NewServer(router)

	return &E2ETestEnv{
		T:       t,
		Ctx:     ctx,
		Server:  srv,
		API:     client.NewAPIClientWithConfig(testToken, srv.URL),
		Model:   model,
		Queue:   queue,
		Ingest:  jobs.NewIngestWorker(queue, docLoader, kb),
		Objects: b.objects,
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.Server != nil {
		e.Server.Close()
	}
	for _, fn := range e.cleanups {
		fn()
	}
	if e.BinaryDir != "" {
		os.RemoveAll(e.BinaryDir)
	}
}

// WriteFile creates a file in a temp directory and returns its path.
func (e *E2ETestEnv) WriteFile(name, content string) string {
	path := filepath.Join(e.T.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		e.T.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// BuildCLI builds the studyrag binary.
func (e *E2ETestEnv) BuildCLI() {
	tmpDir, err := os.MkdirTemp("", "studyrag-e2e-*")
	if err != nil {
		e.T.Fatalf("failed to create temp dir: %v", err)
	}
	e.BinaryDir = tmpDir

	cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, "studyrag"), "./cmd/studyrag")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build studyrag: %v\n%s", err, out)
	}
}

// RunCLI runs the studyrag binary against the test server with an
// isolated config directory.
func (e *E2ETestEnv) RunCLI(args ...string) (string, error) {
	home := e.T.TempDir()
	cmd := exec.Command(filepath.Join(e.BinaryDir, "studyrag"), args...)
	cmd.Dir = home
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("STUDYRAG_API_TOKEN=%s", testToken),
		fmt.Sprintf("STUDYRAG_API_URL=%s", e.Server.URL),
		"HOME="+home,
		"XDG_CONFIG_HOME="+filepath.Join(home, ".config"),
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}
