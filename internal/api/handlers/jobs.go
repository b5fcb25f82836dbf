package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/cloo-solutions/studyrag/internal/api"
	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/pagination"
	"github.com/go-chi/chi/v5"
)

type IngestQueue interface {
	Enqueue(path string, intent domain.Intent) *domain.IngestJob
	Get(jobID string) (*domain.IngestJob, bool)
	List() []*domain.IngestJob
}

type JobHandler struct {
	queue IngestQueue
}

func NewJobHandler(queue IngestQueue) *JobHandler {
	return &JobHandler{queue: queue}
}

type EnqueueJobRequest struct {
	Path   string `json:"path"`
	Intent string `json:"intent"`
}

// Enqueue schedules ingestion of a file on the server's filesystem.
func (h *JobHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req EnqueueJobRequest
	if err := decodeJSON(r, &req); err != nil {
		api.HandleError(w, err)
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		api.Error(w, http.StatusBadRequest, "path is required")
		return
	}
	intent, err := parseIntent(req.Intent)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if _, err := domain.FormatFromPath(req.Path); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, h.queue.Enqueue(req.Path, intent))
}

// List pages through jobs, oldest first.
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	cursor, limit, err := pageParams(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := pagination.Page(h.queue.List(), cursor, limit, func(j *domain.IngestJob) (string, time.Time) {
		return j.ID, j.CreatedAt
	})
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	api.Success(w, http.StatusOK, page)
}

func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, ok := h.queue.Get(chi.URLParam(r, "id"))
	if !ok {
		api.Error(w, http.StatusNotFound, "job not found")
		return
	}
	api.Success(w, http.StatusOK, job)
}
