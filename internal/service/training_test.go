package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockQARepository struct {
	mock.Mock
}

func (m *MockQARepository) Add(ctx context.Context, pair *domain.QAPair) error {
	args := m.Called(ctx, pair)
	return args.Error(0)
}

func (m *MockQARepository) List(ctx context.Context) ([]*domain.QAPair, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.QAPair), args.Error(1)
}

func (m *MockQARepository) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type presigningObjectStore struct {
	MockObjectStore
}

func (p *presigningObjectStore) PresignGet(ctx context.Context, key string) (string, error) {
	args := p.Called(ctx, key)
	return args.String(0), args.Error(1)
}

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func newTrainingService(repo QARepository, objects ObjectStore) *TrainingService {
	svc := NewTrainingService(repo, objects)
	svc.uuidGen = &sequenceUUIDGen{ids: []string{"qa-1", "qa-2"}}
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func samplePairs() []*domain.QAPair {
	return []*domain.QAPair{
		{ID: "1", Context: "abcd", Question: "q?", Answer: "yes"},
		{ID: "2", Context: "", Question: "why?", Answer: "because"},
	}
}

func TestTrainingService_Record(t *testing.T) {
	repo := new(MockQARepository)
	svc := newTrainingService(repo, nil)
	ctx := context.Background()

	repo.On("Add", ctx, mock.MatchedBy(func(p *domain.QAPair) bool {
		return p.ID == "qa-1" && p.CreatedAt.Equal(fixedNow)
	})).Return(nil)

	require.NoError(t, svc.Record(ctx, &domain.QAPair{Question: "q", Answer: "a"}))
	assert.ErrorIs(t, svc.Record(ctx, &domain.QAPair{Question: "q"}), domain.ErrMissingRequiredField)
	repo.AssertNumberOfCalls(t, "Add", 1)
}

func TestComputeTrainingStats(t *testing.T) {
	assert.Equal(t, domain.TrainingStats{}, ComputeTrainingStats(nil))

	stats := ComputeTrainingStats(samplePairs())

	assert.Equal(t, 2, stats.TotalPairs)
	assert.InDelta(t, 2.0, stats.AvgContextLength, 1e-9)
	assert.InDelta(t, 3.0, stats.AvgQuestionLength, 1e-9)
	assert.InDelta(t, 5.0, stats.AvgAnswerLength, 1e-9)
}

func TestEncodeTraining_ChatML(t *testing.T) {
	data, err := EncodeTraining(samplePairs(), domain.TrainingFormatChatML)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first chatMLLine
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.Len(t, first.Messages, 3)
	assert.Equal(t, domain.RoleSystem, first.Messages[0].Role)
	assert.Equal(t, "Context:\nabcd\n\nQuestion: q?", first.Messages[1].Content)
	assert.Equal(t, "yes", first.Messages[2].Content)

	var second chatMLLine
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "why?", second.Messages[1].Content)
}

func TestEncodeTraining_JSON(t *testing.T) {
	data, err := EncodeTraining(nil, domain.TrainingFormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	_, err = EncodeTraining(nil, "csv")
	assert.ErrorIs(t, err, domain.ErrInvalidTrainingFmt)
}

func TestTrainingService_Export(t *testing.T) {
	repo := new(MockQARepository)
	objects := new(presigningObjectStore)
	svc := newTrainingService(repo, objects)
	ctx := context.Background()

	repo.On("List", ctx).Return(samplePairs(), nil)
	objects.On("Put", ctx, "training/training_data_20240301_093000.jsonl", mock.Anything, "application/x-ndjson").Return(nil)
	objects.On("PresignGet", ctx, "training/training_data_20240301_093000.jsonl").Return("https://example.test/dl", nil)

	out, err := svc.Export(ctx, domain.TrainingFormatChatML, "")

	require.NoError(t, err)
	assert.Equal(t, "training/training_data_20240301_093000.jsonl", out.Key)
	assert.Equal(t, 2, out.Pairs)
	assert.Equal(t, "https://example.test/dl", out.DownloadURL)
	objects.AssertExpectations(t)
}

func TestTrainingService_ExportInvalidFormat(t *testing.T) {
	svc := newTrainingService(new(MockQARepository), new(MockObjectStore))

	_, err := svc.Export(context.Background(), "xml", "x")

	assert.ErrorIs(t, err, domain.ErrInvalidTrainingFmt)
}

func TestTrainingService_Load(t *testing.T) {
	repo := new(MockQARepository)
	objects := new(MockObjectStore)
	svc := newTrainingService(repo, objects)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(samplePairs()))
	objects.On("Get", ctx, "training/old.json").Return(buf.Bytes(), nil)
	repo.On("DeleteAll", ctx).Return(nil)
	repo.On("Add", ctx, mock.Anything).Return(nil)

	n, err := svc.Load(ctx, "training/old.json")

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	repo.AssertNumberOfCalls(t, "Add", 2)
}

func TestTrainingService_LoadRejectsNonArray(t *testing.T) {
	objects := new(MockObjectStore)
	svc := newTrainingService(new(MockQARepository), objects)
	objects.On("Get", mock.Anything, "bad.json").Return([]byte(`{"not":"array"}`), nil)

	_, err := svc.Load(context.Background(), "bad.json")

	assert.True(t, domain.HasCode(err, domain.ErrCodeValidation))
}

func TestTrainingObjectKey(t *testing.T) {
	assert.Equal(t, "training/export.json", TrainingObjectKey("export.json", domain.TrainingFormatJSON, fixedNow))
	assert.Equal(t, "training/export.jsonl", TrainingObjectKey("export", domain.TrainingFormatChatML, fixedNow))
	assert.Equal(t, "training/passwd.json", TrainingObjectKey("../../etc/passwd", domain.TrainingFormatJSON, fixedNow))
	assert.Equal(t, "training/training_data_20240301_093000.json", TrainingObjectKey(" ", domain.TrainingFormatJSON, fixedNow))
}

type listingObjectStore struct {
	MockObjectStore
}

func (l *listingObjectStore) List(ctx context.Context, prefix string) ([]domain.StoredObject, error) {
	args := l.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StoredObject), args.Error(1)
}

func TestTrainingService_ExportsNewestFirst(t *testing.T) {
	ctx := context.Background()
	objects := new(listingObjectStore)
	svc := newTrainingService(new(MockQARepository), objects)

	objects.On("List", ctx, TrainingPrefix).Return([]domain.StoredObject{
		{Key: "training/old.json", ModifiedAt: fixedNow.Add(-time.Hour)},
		{Key: "training/new.jsonl", ModifiedAt: fixedNow},
	}, nil)

	exports, err := svc.Exports(ctx)

	require.NoError(t, err)
	require.Len(t, exports, 2)
	assert.Equal(t, "training/new.jsonl", exports[0].Key)
	assert.Equal(t, "training/old.json", exports[1].Key)
}

func TestTrainingService_ExportsNeedsListableStore(t *testing.T) {
	svc := newTrainingService(new(MockQARepository), new(MockObjectStore))

	_, err := svc.Exports(context.Background())

	assert.True(t, domain.HasCode(err, domain.ErrCodeInternalError))
}
