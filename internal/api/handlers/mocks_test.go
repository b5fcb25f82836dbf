package handlers

import (
	"context"
	"net/http"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
)

type MockChunkService struct {
	mock.Mock
}

func (m *MockChunkService) Chunk(text string, intent domain.Intent) []domain.Chunk {
	args := m.Called(text, intent)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.Chunk)
}

func (m *MockChunkService) SplitInfo(text string, intent domain.Intent) *service.SplitInfo {
	args := m.Called(text, intent)
	return args.Get(0).(*service.SplitInfo)
}

type MockKnowledgeBaseService struct {
	mock.Mock
}

func (m *MockKnowledgeBaseService) AddDocument(ctx context.Context, input service.AddDocumentInput) (*service.AddDocumentOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AddDocumentOutput), args.Error(1)
}

func (m *MockKnowledgeBaseService) ListDocuments(ctx context.Context) ([]*domain.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Document), args.Error(1)
}

func (m *MockKnowledgeBaseService) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockKnowledgeBaseService) Stats(ctx context.Context) (domain.IndexStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.IndexStats), args.Error(1)
}

func (m *MockKnowledgeBaseService) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockKnowledgeBaseService) CombinedContent(ctx context.Context, ids []string) (string, error) {
	args := m.Called(ctx, ids)
	return args.String(0), args.Error(1)
}

type MockDocumentLoader struct {
	mock.Mock
}

func (m *MockDocumentLoader) LoadBytes(name string, data []byte) ([]domain.Record, error) {
	args := m.Called(name, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Record), args.Error(1)
}

type MockAnswerService struct {
	mock.Mock
}

func (m *MockAnswerService) Answer(ctx context.Context, input service.AnswerInput) *service.AnswerOutput {
	args := m.Called(ctx, input)
	return args.Get(0).(*service.AnswerOutput)
}

type MockExerciseService struct {
	mock.Mock
}

func (m *MockExerciseService) Generate(ctx context.Context, content string) ([]domain.Exercise, error) {
	args := m.Called(ctx, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Exercise), args.Error(1)
}

type MockTrainingService struct {
	mock.Mock
}

func (m *MockTrainingService) Stats(ctx context.Context) (domain.TrainingStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.TrainingStats), args.Error(1)
}

func (m *MockTrainingService) Export(ctx context.Context, format domain.TrainingFormat, name string) (*service.TrainingExport, error) {
	args := m.Called(ctx, format, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TrainingExport), args.Error(1)
}

func (m *MockTrainingService) Load(ctx context.Context, key string) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

func (m *MockTrainingService) Exports(ctx context.Context) ([]domain.StoredObject, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StoredObject), args.Error(1)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
