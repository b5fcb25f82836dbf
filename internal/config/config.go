package config

import (
	"fmt"
	"log"
	"time"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
	APIToken string `envconfig:"API_TOKEN"`

	// Empty selects the in-memory index
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"1"`
	// Attempts made while postgres is still starting up
	DBConnectAttempts int `envconfig:"DB_CONNECT_ATTEMPTS" default:"5"`
	DataDir     string `envconfig:"DATA_DIR" default:"./data"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"studyrag-data"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL       string `envconfig:"OPENAI_BASE_URL"`
	ChatModel           string `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`

	RetrievalK         int     `envconfig:"RETRIEVAL_K" default:"4"`
	RelevanceThreshold float64 `envconfig:"RELEVANCE_THRESHOLD" default:"0.7"`
	Temperature        float32 `envconfig:"TEMPERATURE" default:"0.7"`
	TablesFile         string  `envconfig:"TABLES_FILE"`

	WatchDir         string        `envconfig:"WATCH_DIR"`
	WatchIntent      string        `envconfig:"WATCH_INTENT" default:"factual"`
	SnapshotInterval time.Duration `envconfig:"SNAPSHOT_INTERVAL" default:"30s"`
	SessionIdle      time.Duration `envconfig:"SESSION_IDLE" default:"24h"`
	MaxUploadBytes   int64         `envconfig:"MAX_UPLOAD_BYTES" default:"20971520"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("STUDYRAG", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.RetrievalK <= 0:
		return fmt.Errorf("invalid config: RETRIEVAL_K must be positive, got %d", c.RetrievalK)
	case c.RelevanceThreshold < 0 || c.RelevanceThreshold > 1:
		return fmt.Errorf("invalid config: RELEVANCE_THRESHOLD must be in [0, 1], got %v", c.RelevanceThreshold)
	case c.Temperature < 0 || c.Temperature > 2:
		return fmt.Errorf("invalid config: TEMPERATURE must be in [0, 2], got %v", c.Temperature)
	case c.EmbeddingDimensions <= 0:
		return fmt.Errorf("invalid config: EMBEDDING_DIMENSIONS must be positive, got %d", c.EmbeddingDimensions)
	case c.SnapshotInterval <= 0:
		return fmt.Errorf("invalid config: SNAPSHOT_INTERVAL must be positive, got %v", c.SnapshotInterval)
	case c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns:
		return fmt.Errorf("invalid config: DB_MIN_CONNS/DB_MAX_CONNS out of range (%d/%d)", c.DBMinConns, c.DBMaxConns)
	case c.DBConnectAttempts <= 0:
		return fmt.Errorf("invalid config: DB_CONNECT_ATTEMPTS must be positive, got %d", c.DBConnectAttempts)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("invalid config: MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if _, err := domain.ParseIntent(c.WatchIntent); err != nil {
		return fmt.Errorf("invalid config: WATCH_INTENT %q: %w", c.WatchIntent, err)
	}
	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

func (c *Config) HasWatchDir() bool {
	return c.WatchDir != ""
}
