package handlers

import (
	"net/http"

	"github.com/cloo-solutions/studyrag/internal/api"
	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/service"
)

type ChunkService interface {
	Chunk(text string, intent domain.Intent) []domain.Chunk
	SplitInfo(text string, intent domain.Intent) *service.SplitInfo
}

type ChunkHandler struct {
	svc ChunkService
}

func NewChunkHandler(svc ChunkService) *ChunkHandler {
	return &ChunkHandler{svc: svc}
}

type ChunkRequest struct {
	Text   string `json:"text"`
	Intent string `json:"intent"`
}

type ChunkResponse struct {
	Intent domain.Intent  `json:"intent"`
	Chunks []domain.Chunk `json:"chunks"`
}

func (h *ChunkHandler) decode(w http.ResponseWriter, r *http.Request) (*ChunkRequest, domain.Intent, bool) {
	var req ChunkRequest
	if err := decodeJSON(r, &req); err != nil {
		api.HandleError(w, err)
		return nil, "", false
	}
	intent, err := parseIntent(req.Intent)
	if err != nil {
		api.HandleError(w, err)
		return nil, "", false
	}
	return &req, intent, true
}

// Chunk splits text with the policy for the requested intent.
func (h *ChunkHandler) Chunk(w http.ResponseWriter, r *http.Request) {
	req, intent, ok := h.decode(w, r)
	if !ok {
		return
	}

	chunks := h.svc.Chunk(req.Text, intent)
	if chunks == nil {
		chunks = []domain.Chunk{}
	}
	api.Success(w, http.StatusOK, ChunkResponse{Intent: intent, Chunks: chunks})
}

// Info returns the chunks together with the features and policies used.
func (h *ChunkHandler) Info(w http.ResponseWriter, r *http.Request) {
	req, intent, ok := h.decode(w, r)
	if !ok {
		return
	}
	api.Success(w, http.StatusOK, h.svc.SplitInfo(req.Text, intent))
}
