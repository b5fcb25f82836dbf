package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/cloo-solutions/studyrag/internal/api"
	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/service"
	"github.com/go-chi/chi/v5"
)

type AnswerService interface {
	Answer(ctx context.Context, input service.AnswerInput) *service.AnswerOutput
}

type SessionStore interface {
	Create() string
	Get(id string) ([]domain.Message, error)
	Append(id string, turns ...domain.Message)
	Clear(id string) error
}

type AnswerHandler struct {
	svc      AnswerService
	sessions SessionStore
}

func NewAnswerHandler(svc AnswerService, sessions SessionStore) *AnswerHandler {
	return &AnswerHandler{svc: svc, sessions: sessions}
}

type AnswerRequest struct {
	Question  string `json:"question"`
	Intent    string `json:"intent"`
	SessionID string `json:"session_id"`
}

type AnswerResponse struct {
	SessionID string `json:"session_id"`
	*domain.Answer
}

type SessionResponse struct {
	SessionID string           `json:"session_id"`
	History   []domain.Message `json:"history"`
}

// Answer runs one question against the session history. Answer failures
// are reported in the payload with status "error", not as HTTP errors.
func (h *AnswerHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		api.HandleError(w, err)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	intent, err := parseIntent(req.Intent)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	var history []domain.Message
	if sessionID == "" {
		sessionID = h.sessions.Create()
	} else {
		history, err = h.sessions.Get(sessionID)
		if err != nil {
			api.HandleError(w, err)
			return
		}
	}

	out := h.svc.Answer(r.Context(), service.AnswerInput{
		Question: req.Question,
		Intent:   intent,
		History:  history,
	})
	if out.Answer.Status == domain.AnswerStatusSuccess && len(out.History) > len(history) {
		h.sessions.Append(sessionID, out.History[len(history):]...)
	}

	api.Success(w, http.StatusOK, AnswerResponse{SessionID: sessionID, Answer: out.Answer})
}

func (h *AnswerHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	history, err := h.sessions.Get(id)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if history == nil {
		history = []domain.Message{}
	}
	api.Success(w, http.StatusOK, SessionResponse{SessionID: id, History: history})
}

// ClearSession empties the history of a session and keeps the id usable.
func (h *AnswerHandler) ClearSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(chi.URLParam(r, "id")); err != nil {
		api.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
