package server

import (
	"net/http"

	"github.com/cloo-solutions/studyrag/internal/api"
	"github.com/cloo-solutions/studyrag/internal/api/handlers"
	"github.com/cloo-solutions/studyrag/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 25 * 1024 * 1024

type RouterConfig struct {
	APIToken        string
	MaxBodyBytes    int64
	ChunkHandler    *handlers.ChunkHandler
	DocumentHandler *handlers.DocumentHandler
	AnswerHandler   *handlers.AnswerHandler
	ExerciseHandler *handlers.ExerciseHandler
	TrainingHandler *handlers.TrainingHandler
	JobHandler      *handlers.JobHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.TokenAuth(cfg.APIToken))

		r.Route("/chunks", func(r chi.Router) {
			r.Post("/", cfg.ChunkHandler.Chunk)
			r.Post("/info", cfg.ChunkHandler.Info)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", cfg.DocumentHandler.Upload)
			r.Get("/", cfg.DocumentHandler.List)
			r.Get("/{id}", cfg.DocumentHandler.Get)
		})

		r.Get("/index/stats", cfg.DocumentHandler.Stats)
		r.Delete("/index", cfg.DocumentHandler.Clear)

		r.Post("/answer", cfg.AnswerHandler.Answer)
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/{id}", cfg.AnswerHandler.GetSession)
			r.Delete("/{id}", cfg.AnswerHandler.ClearSession)
		})

		r.Post("/exercises", cfg.ExerciseHandler.Generate)

		r.Route("/training", func(r chi.Router) {
			r.Get("/stats", cfg.TrainingHandler.Stats)
			r.Post("/export", cfg.TrainingHandler.Export)
			r.Post("/load", cfg.TrainingHandler.Load)
			r.Get("/exports", cfg.TrainingHandler.Exports)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", cfg.JobHandler.Enqueue)
			r.Get("/", cfg.JobHandler.List)
			r.Get("/{id}", cfg.JobHandler.Get)
		})
	})

	return r
}
