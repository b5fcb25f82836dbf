package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/cloo-solutions/studyrag/internal/api"
	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/service"
)

type TrainingService interface {
	Stats(ctx context.Context) (domain.TrainingStats, error)
	Export(ctx context.Context, format domain.TrainingFormat, name string) (*service.TrainingExport, error)
	Load(ctx context.Context, key string) (int, error)
	Exports(ctx context.Context) ([]domain.StoredObject, error)
}

type TrainingHandler struct {
	svc TrainingService
}

func NewTrainingHandler(svc TrainingService) *TrainingHandler {
	return &TrainingHandler{svc: svc}
}

type ExportTrainingRequest struct {
	Format string `json:"format"`
	Name   string `json:"name"`
}

type LoadTrainingRequest struct {
	Key string `json:"key"`
}

type LoadTrainingResponse struct {
	Key    string `json:"key"`
	Loaded int    `json:"loaded"`
}

func (h *TrainingHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, stats)
}

// Export writes the collected pairs to object storage. The format
// defaults to json.
func (h *TrainingHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportTrainingRequest
	if err := decodeJSON(r, &req); err != nil {
		api.HandleError(w, err)
		return
	}

	format := domain.TrainingFormat(strings.ToLower(strings.TrimSpace(req.Format)))
	if format == "" {
		format = domain.TrainingFormatJSON
	}

	out, err := h.svc.Export(r.Context(), format, req.Name)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, out)
}

// Exports lists the stored export files, newest first.
func (h *TrainingHandler) Exports(w http.ResponseWriter, r *http.Request) {
	objects, err := h.svc.Exports(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, objects)
}

func (h *TrainingHandler) Load(w http.ResponseWriter, r *http.Request) {
	var req LoadTrainingRequest
	if err := decodeJSON(r, &req); err != nil {
		api.HandleError(w, err)
		return
	}
	if strings.TrimSpace(req.Key) == "" {
		api.Error(w, http.StatusBadRequest, "key is required")
		return
	}

	n, err := h.svc.Load(r.Context(), req.Key)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, LoadTrainingResponse{Key: req.Key, Loaded: n})
}
