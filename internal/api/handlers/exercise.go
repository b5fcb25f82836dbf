package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/cloo-solutions/studyrag/internal/api"
	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/service"
)

type ExerciseService interface {
	Generate(ctx context.Context, content string) ([]domain.Exercise, error)
}

type ContentSource interface {
	CombinedContent(ctx context.Context, ids []string) (string, error)
}

type ExerciseHandler struct {
	svc     ExerciseService
	content ContentSource
}

func NewExerciseHandler(svc ExerciseService, content ContentSource) *ExerciseHandler {
	return &ExerciseHandler{svc: svc, content: content}
}

type ExerciseRequest struct {
	Content     string   `json:"content"`
	DocumentIDs []string `json:"document_ids"`
}

type ExerciseResponse struct {
	Exercises []domain.Exercise `json:"exercises"`
	Preview   string            `json:"preview"`
}

// Generate builds exercises from inline content, or from the stored text
// of the listed documents (all documents when none are listed).
func (h *ExerciseHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req ExerciseRequest
	if err := decodeJSON(r, &req); err != nil {
		api.HandleError(w, err)
		return
	}

	content := req.Content
	if strings.TrimSpace(content) == "" {
		combined, err := h.content.CombinedContent(r.Context(), req.DocumentIDs)
		if err != nil {
			api.HandleError(w, err)
			return
		}
		content = combined
	}

	exercises, err := h.svc.Generate(r.Context(), content)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ExerciseResponse{
		Exercises: exercises,
		Preview:   service.PreviewContent(content),
	})
}
