package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkHandler_Chunk_Success(t *testing.T) {
	mockSvc := new(MockChunkService)
	handler := NewChunkHandler(mockSvc)

	chunks := []domain.Chunk{{Index: 0, Content: "Alpha.", Start: 0, End: 6}}
	mockSvc.On("Chunk", "Alpha.", domain.IntentSummary).Return(chunks)

	req := httptest.NewRequest(http.MethodPost, "/chunks", strings.NewReader(`{"text":"Alpha.","intent":"summary"}`))
	w := httptest.NewRecorder()

	handler.Chunk(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data ChunkResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.IntentSummary, resp.Data.Intent)
	assert.Equal(t, chunks, resp.Data.Chunks)
	mockSvc.AssertExpectations(t)
}

func TestChunkHandler_Chunk_DefaultIntent(t *testing.T) {
	mockSvc := new(MockChunkService)
	handler := NewChunkHandler(mockSvc)

	mockSvc.On("Chunk", "", domain.DefaultIntent).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/chunks", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	handler.Chunk(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"chunks":[]`)
	mockSvc.AssertExpectations(t)
}

func TestChunkHandler_Chunk_InvalidIntent(t *testing.T) {
	mockSvc := new(MockChunkService)
	handler := NewChunkHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/chunks", strings.NewReader(`{"text":"x","intent":"poetry"}`))
	w := httptest.NewRecorder()

	handler.Chunk(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid intent")
	mockSvc.AssertNotCalled(t, "Chunk")
}

func TestChunkHandler_Chunk_InvalidJSON(t *testing.T) {
	handler := NewChunkHandler(new(MockChunkService))

	req := httptest.NewRequest(http.MethodPost, "/chunks", strings.NewReader(`{invalid`))
	w := httptest.NewRecorder()

	handler.Chunk(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestChunkHandler_Info(t *testing.T) {
	mockSvc := new(MockChunkService)
	handler := NewChunkHandler(mockSvc)

	info := &service.SplitInfo{Intent: domain.IntentDefinition, ChunksCount: 2, AvgChunkSize: 120}
	mockSvc.On("SplitInfo", "text", domain.IntentDefinition).Return(info)

	req := httptest.NewRequest(http.MethodPost, "/chunks/info", strings.NewReader(`{"text":"text","intent":"Definition"}`))
	w := httptest.NewRecorder()

	handler.Info(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "definition", data["intent"])
	assert.Equal(t, float64(2), data["chunks_count"])
	mockSvc.AssertExpectations(t)
}
