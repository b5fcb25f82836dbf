package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"time"

	"github.com/cloo-solutions/studyrag/internal/api"
	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/loader"
	"github.com/cloo-solutions/studyrag/internal/pagination"
	"github.com/cloo-solutions/studyrag/internal/service"
	"github.com/go-chi/chi/v5"
)

const multipartMemory = 8 << 20

type KnowledgeBaseService interface {
	AddDocument(ctx context.Context, input service.AddDocumentInput) (*service.AddDocumentOutput, error)
	ListDocuments(ctx context.Context) ([]*domain.Document, error)
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	Stats(ctx context.Context) (domain.IndexStats, error)
	Clear(ctx context.Context) error
}

type DocumentLoader interface {
	LoadBytes(name string, data []byte) ([]domain.Record, error)
}

type DocumentHandler struct {
	svc    KnowledgeBaseService
	loader DocumentLoader
}

func NewDocumentHandler(svc KnowledgeBaseService, l DocumentLoader) *DocumentHandler {
	return &DocumentHandler{svc: svc, loader: l}
}

// Upload ingests a multipart file under the intent given in the form.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.HandleError(w, domain.ErrPayloadTooLarge)
			return
		}
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	intent, err := parseIntent(r.FormValue("intent"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	name := filepath.Base(header.Filename)
	format, err := domain.FormatFromPath(name)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}

	records, err := h.loader.LoadBytes(name, data)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	out, err := h.svc.AddDocument(r.Context(), service.AddDocumentInput{
		Name:        name,
		Format:      format,
		Intent:      intent,
		Records:     records,
		Raw:         data,
		ContentType: loader.ContentType(format),
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, out)
}

// List pages through document metadata, oldest first, without the
// extracted text.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	cursor, limit, err := pageParams(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	docs, err := h.svc.ListDocuments(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	summaries := make([]domain.Document, 0, len(docs))
	for _, d := range docs {
		s := *d
		s.Content = ""
		summaries = append(summaries, s)
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].ID < summaries[j].ID
		}
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})

	page, err := pagination.Page(summaries, cursor, limit, func(d domain.Document) (string, time.Time) {
		return d.ID, d.CreatedAt
	})
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	api.Success(w, http.StatusOK, page)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "document id is required")
		return
	}

	doc, err := h.svc.GetDocument(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, doc)
}

func (h *DocumentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, stats)
}

// Clear empties the index and the document records.
func (h *DocumentHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Clear(r.Context()); err != nil {
		api.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
