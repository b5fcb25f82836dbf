package admin

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cloo-solutions/studyrag/internal/api/handlers"
	"github.com/cloo-solutions/studyrag/internal/config"
	"github.com/cloo-solutions/studyrag/internal/database"
	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/jobs"
	"github.com/cloo-solutions/studyrag/internal/loader"
	"github.com/cloo-solutions/studyrag/internal/openai"
	"github.com/cloo-solutions/studyrag/internal/repository"
	"github.com/cloo-solutions/studyrag/internal/server"
	"github.com/cloo-solutions/studyrag/internal/service"
	"github.com/cloo-solutions/studyrag/internal/storage"
	"github.com/cloo-solutions/studyrag/internal/telemetry"
	"github.com/cloo-solutions/studyrag/internal/vectorstore/memory"
	"github.com/cloo-solutions/studyrag/internal/watcher"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
)

const (
	ingestPollInterval  = 2 * time.Second
	janitorPollInterval = 10 * time.Minute
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the studyrag API server with its background workers",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().String("watch", "", "Directory to watch for new documents (overrides STUDYRAG_WATCH_DIR)")
	cmd.Flags().String("tables", "", "YAML file with strategy and prompt overrides (overrides STUDYRAG_TABLES_FILE)")

	return cmd
}

// backend is the storage the services run on: Postgres with pgvector, or
// the in-memory store persisted through snapshots.
type backend struct {
	vectors  service.VectorStore
	docs     service.DocumentRepository
	tx       service.TxRunner
	qa       service.QARepository
	snapshot *memory.Store
	close    func()
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyServeFlags(cmd, cfg)

	flushTelemetry := telemetry.Init(telemetry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Debug:       cfg.Debug,
	})
	defer flushTelemetry()

	tables, err := config.LoadTables(cfg.TablesFile)
	if err != nil {
		return err
	}
	strategies, prompts, err := tables.Build()
	if err != nil {
		return fmt.Errorf("invalid tables file: %w", err)
	}

	objects, err := newObjectStore(ctx, cfg)
	if err != nil {
		return err
	}

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	store, err := newBackend(ctx, cfg, objects, !noMigrate)
	if err != nil {
		return err
	}
	defer store.close()

	var model interface {
		service.EmbeddingClient
		service.LanguageModel
	} = &unavailableModel{}
	if cfg.HasOpenAI() {
		model = openai.NewClientWithConfig(openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			BaseURL:             cfg.OpenAIBaseURL,
			ChatModel:           cfg.ChatModel,
			EmbeddingModel:      goopenai.EmbeddingModel(cfg.EmbeddingModel),
			EmbeddingDimensions: cfg.EmbeddingDimensions,
		})
		log.Printf("model provider ready (chat: %s, embeddings: %s)", cfg.ChatModel, cfg.EmbeddingModel)
	} else {
		log.Println("no OpenAI API key configured: answer and exercise calls will report the model as unavailable")
	}

	chunker := service.NewChunkingService(strategies)
	index := service.NewIndexService(model, store.vectors)
	kb := service.NewKnowledgeBaseService(chunker, index, store.docs, store.tx)
	kb.SetObjectStore(objects)
	training := service.NewTrainingService(store.qa, objects)
	answers := service.NewAnswerServiceWithRecorder(index, model, prompts, service.AnswerConfig{
		K:           cfg.RetrievalK,
		Threshold:   cfg.RelevanceThreshold,
		Temperature: cfg.Temperature,
	}, training)
	exercises := service.NewExerciseService(model)
	sessions := service.NewSessionStore()
	docLoader := loader.NewWithLimit(cfg.MaxUploadBytes)

	queue := jobs.NewIngestQueue(5)
	ingest := jobs.NewWorker("ingest", jobs.NewIngestWorker(queue, docLoader, kb), ingestPollInterval)
	queue.OnEnqueue(ingest.Wake)
	workers := []*jobs.Worker{
		ingest,
		jobs.NewWorker("janitor", jobs.NewJanitor(sessions, queue, cfg.SessionIdle), janitorPollInterval),
	}
	if store.snapshot != nil {
		workers = append(workers, jobs.NewWorker("snapshot", jobs.NewSnapshotWorker(store.snapshot, objects), cfg.SnapshotInterval))
	}
	for _, w := range workers {
		go w.Start(ctx)
	}

	if cfg.HasWatchDir() {
		intent, _ := domain.ParseIntent(cfg.WatchIntent)
		fw, err := watcher.New(cfg.WatchDir, intent, queue)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", cfg.WatchDir, err)
		}
		defer fw.Close()

		n, err := fw.ScanExisting()
		if err != nil {
			log.Printf("watcher: initial scan failed: %v", err)
		}
		log.Printf("watching %s (%d existing files queued)", cfg.WatchDir, n)

		go func() {
			if err := fw.Run(ctx); err != nil {
				log.Printf("watcher stopped: %v", err)
			}
		}()
	}

	router := server.NewRouter(server.RouterConfig{
		APIToken:        cfg.APIToken,
		MaxBodyBytes:    cfg.MaxUploadBytes + 1<<20,
		ChunkHandler:    handlers.NewChunkHandler(chunker),
		DocumentHandler: handlers.NewDocumentHandler(kb, docLoader),
		AnswerHandler:   handlers.NewAnswerHandler(answers, sessions),
		ExerciseHandler: handlers.NewExerciseHandler(exercises, kb),
		TrainingHandler: handlers.NewTrainingHandler(training),
		JobHandler:      handlers.NewJobHandler(queue),
	})
	if cfg.APIToken == "" {
		log.Println("STUDYRAG_API_TOKEN is not set: the API accepts unauthenticated requests")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	for _, w := range workers {
		w.Stop()
	}
	cancel()

	if store.snapshot != nil {
		if err := jobs.NewSnapshotWorker(store.snapshot, objects).ProcessJobs(shutdownCtx); err != nil {
			log.Printf("final snapshot failed: %v", err)
		}
	}

	log.Println("server exited")
	return nil
}

func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if port, _ := cmd.Flags().GetString("port"); port != "" && port != "8080" {
		cfg.Port = port
	}
	if dir, _ := cmd.Flags().GetString("watch"); dir != "" {
		cfg.WatchDir = dir
	}
	if path, _ := cmd.Flags().GetString("tables"); path != "" {
		cfg.TablesFile = path
	}
}

// newObjectStore returns S3 when configured and a directory under DataDir
// otherwise.
func newObjectStore(ctx context.Context, cfg *config.Config) (service.ObjectStore, error) {
	if !cfg.HasS3() {
		root := filepath.Join(cfg.DataDir, "objects")
		fs, err := storage.NewFileStore(root)
		if err != nil {
			return nil, fmt.Errorf("failed to open object directory: %w", err)
		}
		log.Printf("storing objects under %s", root)
		return fs, nil
	}

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
	}
	log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
	return s3Client, nil
}

func newBackend(ctx context.Context, cfg *config.Config, objects service.ObjectStore, migrateUp bool) (*backend, error) {
	if !cfg.HasDatabase() {
		store := memory.NewStore(cfg.EmbeddingDimensions)
		restored, err := jobs.RestoreSnapshot(ctx, objects, store)
		if err != nil {
			return nil, err
		}
		if restored {
			stats, _ := store.Stats(ctx)
			log.Printf("restored index snapshot (%d documents, %d vectors)", stats.Documents, stats.Vectors)
		}
		return &backend{
			vectors:  store,
			docs:     store.Documents(),
			tx:       store,
			qa:       store.QAPairs(),
			snapshot: store,
			close:    func() {},
		}, nil
	}

	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
		Attempts: cfg.DBConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("connected to database")

	if migrateUp {
		if err := runMigrations(cfg.DatabaseURL, defaultMigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &backend{
		vectors: repository.NewChunkRepository(pool),
		docs:    repository.NewDocumentRepository(pool),
		tx:      repository.NewTxRunner(pool),
		qa:      repository.NewQAPairRepository(pool),
		close:   pool.Close,
	}, nil
}

// unavailableModel stands in for the provider when no API key is set.
type unavailableModel struct{}

func (m *unavailableModel) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, domain.ErrModelUnavailable
}

func (m *unavailableModel) Complete(ctx context.Context, messages []domain.Message, opts domain.GenerationOptions) (string, error) {
	return "", domain.ErrModelUnavailable
}
