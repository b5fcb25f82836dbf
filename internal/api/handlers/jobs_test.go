package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobHandler_Enqueue(t *testing.T) {
	queue := jobs.NewIngestQueue(5)
	handler := NewJobHandler(queue)

	req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(`{"path":"/data/notes.pdf","intent":"summary"}`))
	w := httptest.NewRecorder()
	handler.Enqueue(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	var resp struct {
		Data domain.IngestJob `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.IngestJobStatusPending, resp.Data.Status)
	assert.Equal(t, domain.IntentSummary, resp.Data.Intent)

	_, ok := queue.Get(resp.Data.ID)
	assert.True(t, ok)
}

func TestJobHandler_Enqueue_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"missing path", `{}`, http.StatusBadRequest},
		{"invalid intent", `{"path":"a.txt","intent":"poetry"}`, http.StatusBadRequest},
		{"unsupported file", `{"path":"a.png"}`, http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := jobs.NewIngestQueue(5)
			handler := NewJobHandler(queue)

			req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			handler.Enqueue(w, req)

			assert.Equal(t, tt.code, w.Code)
			assert.Empty(t, queue.List())
		})
	}
}

func TestJobHandler_ListAndGet(t *testing.T) {
	queue := jobs.NewIngestQueue(5)
	handler := NewJobHandler(queue)
	job := queue.Enqueue("/data/a.txt", domain.IntentFactual)

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest(http.MethodGet, "/jobs", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), job.ID)

	w = httptest.NewRecorder()
	handler.Get(w, withURLParam(httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID, nil), "id", job.ID))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.Get(w, withURLParam(httptest.NewRequest(http.MethodGet, "/jobs/nope", nil), "id", "nope"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJobHandler_List_Empty(t *testing.T) {
	handler := NewJobHandler(jobs.NewIngestQueue(5))

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest(http.MethodGet, "/jobs", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"items":[]`)
	assert.Contains(t, w.Body.String(), `"has_more":false`)
}

func TestJobHandler_List_InvalidCursor(t *testing.T) {
	handler := NewJobHandler(jobs.NewIngestQueue(5))

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest(http.MethodGet, "/jobs?cursor=%25%25", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid cursor")
}
