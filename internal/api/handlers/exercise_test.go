package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testExercises() []domain.Exercise {
	return []domain.Exercise{{
		Question:    "Which organelle produces ATP?",
		Type:        domain.ExerciseTypeChoice,
		Options:     []string{"Nucleus", "Mitochondrion"},
		Answer:      "Mitochondrion",
		Explanation: "Cellular respiration happens there.",
	}}
}

func TestExerciseHandler_Generate_InlineContent(t *testing.T) {
	mockSvc := new(MockExerciseService)
	mockKB := new(MockKnowledgeBaseService)
	handler := NewExerciseHandler(mockSvc, mockKB)

	mockSvc.On("Generate", mock.Anything, "Cells make ATP.").Return(testExercises(), nil)

	req := httptest.NewRequest(http.MethodPost, "/exercises", strings.NewReader(`{"content":"Cells make ATP."}`))
	w := httptest.NewRecorder()
	handler.Generate(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data ExerciseResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Exercises, 1)
	assert.Equal(t, "Mitochondrion", resp.Data.Exercises[0].Answer)
	assert.Equal(t, "Cells make ATP.", resp.Data.Preview)
	mockKB.AssertNotCalled(t, "CombinedContent", mock.Anything, mock.Anything)
}

func TestExerciseHandler_Generate_FromDocuments(t *testing.T) {
	mockSvc := new(MockExerciseService)
	mockKB := new(MockKnowledgeBaseService)
	handler := NewExerciseHandler(mockSvc, mockKB)

	mockKB.On("CombinedContent", mock.Anything, []string{"doc-1", "doc-2"}).Return("one\n\ntwo", nil)
	mockSvc.On("Generate", mock.Anything, "one\n\ntwo").Return(testExercises(), nil)

	req := httptest.NewRequest(http.MethodPost, "/exercises", strings.NewReader(`{"document_ids":["doc-1","doc-2"]}`))
	w := httptest.NewRecorder()
	handler.Generate(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockKB.AssertExpectations(t)
	mockSvc.AssertExpectations(t)
}

func TestExerciseHandler_Generate_EmptyBodyUsesAllDocuments(t *testing.T) {
	mockSvc := new(MockExerciseService)
	mockKB := new(MockKnowledgeBaseService)
	handler := NewExerciseHandler(mockSvc, mockKB)

	mockKB.On("CombinedContent", mock.Anything, []string(nil)).Return("", nil)
	mockSvc.On("Generate", mock.Anything, "").Return([]domain.Exercise{}, domain.ErrEmptyContent)

	req := httptest.NewRequest(http.MethodPost, "/exercises", nil)
	w := httptest.NewRecorder()
	handler.Generate(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "content is empty")
}

func TestExerciseHandler_Generate_ModelFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"unparseable output", domain.ErrParseFailure, http.StatusBadGateway},
		{"model down", domain.ErrModelUnavailable, http.StatusServiceUnavailable},
		{"no valid items", domain.ErrNoValidExercises, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockExerciseService)
			handler := NewExerciseHandler(mockSvc, new(MockKnowledgeBaseService))
			mockSvc.On("Generate", mock.Anything, "text").Return([]domain.Exercise{}, tt.err)

			req := httptest.NewRequest(http.MethodPost, "/exercises", strings.NewReader(`{"content":"text"}`))
			w := httptest.NewRecorder()
			handler.Generate(w, req)

			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestExerciseHandler_Generate_UnknownDocument(t *testing.T) {
	mockKB := new(MockKnowledgeBaseService)
	handler := NewExerciseHandler(new(MockExerciseService), mockKB)

	mockKB.On("CombinedContent", mock.Anything, []string{"nope"}).Return("", domain.ErrDocumentNotFound)

	req := httptest.NewRequest(http.MethodPost, "/exercises", strings.NewReader(`{"document_ids":["nope"]}`))
	w := httptest.NewRecorder()
	handler.Generate(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
