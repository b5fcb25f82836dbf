package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloo-solutions/studyrag/internal/domain"
)

const chatMLSystemPrompt = "You are a study assistant. Answer the question using the provided context."

// QARepository stores collected question/answer pairs.
type QARepository interface {
	Add(ctx context.Context, pair *domain.QAPair) error
	List(ctx context.Context) ([]*domain.QAPair, error)
	DeleteAll(ctx context.Context) error
}

// Presigner hands out download links for stored objects.
type Presigner interface {
	PresignGet(ctx context.Context, key string) (string, error)
}

// ObjectLister enumerates stored objects under a key prefix.
type ObjectLister interface {
	List(ctx context.Context, prefix string) ([]domain.StoredObject, error)
}

// TrainingPrefix is the object key prefix of every export.
const TrainingPrefix = "training/"

// TrainingExport is the result of writing collected pairs to the object store.
type TrainingExport struct {
	Key         string                `json:"key"`
	Format      domain.TrainingFormat `json:"format"`
	Pairs       int                   `json:"pairs"`
	DownloadURL string                `json:"download_url,omitempty"`
}

// TrainingService collects answered questions as fine-tuning data.
type TrainingService struct {
	repo    QARepository
	objects ObjectStore
	uuidGen UUIDGenerator
	now     func() time.Time
}

func NewTrainingService(repo QARepository, objects ObjectStore) *TrainingService {
	return &TrainingService{
		repo:    repo,
		objects: objects,
		uuidGen: &DefaultUUIDGenerator{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Record implements QARecorder.
func (s *TrainingService) Record(ctx context.Context, pair *domain.QAPair) error {
	if strings.TrimSpace(pair.Question) == "" || strings.TrimSpace(pair.Answer) == "" {
		return domain.ErrMissingRequiredField
	}
	if pair.ID == "" {
		pair.ID = s.uuidGen.NewString()
	}
	if pair.CreatedAt.IsZero() {
		pair.CreatedAt = s.now()
	}
	return s.repo.Add(ctx, pair)
}

// Stats returns pair count and average character lengths.
func (s *TrainingService) Stats(ctx context.Context) (domain.TrainingStats, error) {
	pairs, err := s.repo.List(ctx)
	if err != nil {
		return domain.TrainingStats{}, err
	}
	return ComputeTrainingStats(pairs), nil
}

func ComputeTrainingStats(pairs []*domain.QAPair) domain.TrainingStats {
	if len(pairs) == 0 {
		return domain.TrainingStats{}
	}
	var ctxLen, qLen, aLen int
	for _, p := range pairs {
		ctxLen += utf8.RuneCountInString(p.Context)
		qLen += utf8.RuneCountInString(p.Question)
		aLen += utf8.RuneCountInString(p.Answer)
	}
	n := float64(len(pairs))
	return domain.TrainingStats{
		TotalPairs:        len(pairs),
		AvgContextLength:  float64(ctxLen) / n,
		AvgQuestionLength: float64(qLen) / n,
		AvgAnswerLength:   float64(aLen) / n,
	}
}

// EncodeTraining renders pairs in the requested format. JSON is an indented array;
// ChatML is one {"messages":[...]} object per line.
func EncodeTraining(pairs []*domain.QAPair, format domain.TrainingFormat) ([]byte, error) {
	switch format {
	case domain.TrainingFormatJSON:
		if pairs == nil {
			pairs = []*domain.QAPair{}
		}
		return json.MarshalIndent(pairs, "", "  ")
	case domain.TrainingFormatChatML:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		for _, p := range pairs {
			if err := enc.Encode(chatMLRecord(p)); err != nil {
				return nil, err
			}
		}
		return buf.Bytes(), nil
	default:
		return nil, domain.ErrInvalidTrainingFmt
	}
}

type chatMLLine struct {
	Messages []domain.Message `json:"messages"`
}

func chatMLRecord(p *domain.QAPair) chatMLLine {
	user := p.Question
	if strings.TrimSpace(p.Context) != "" {
		user = "Context:\n" + p.Context + "\n\nQuestion: " + p.Question
	}
	return chatMLLine{Messages: []domain.Message{
		{Role: domain.RoleSystem, Content: chatMLSystemPrompt},
		{Role: domain.RoleUser, Content: user},
		{Role: domain.RoleAssistant, Content: p.Answer},
	}}
}

// Export writes every pair to training/<name> in the object store. An
// empty name gets a timestamped default.
func (s *TrainingService) Export(ctx context.Context, format domain.TrainingFormat, name string) (*TrainingExport, error) {
	if !format.IsValid() {
		return nil, domain.ErrInvalidTrainingFmt
	}
	if s.objects == nil {
		return nil, domain.NewDomainError(domain.ErrCodeInternalError, "no object store configured")
	}

	pairs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	data, err := EncodeTraining(pairs, format)
	if err != nil {
		return nil, fmt.Errorf("failed to encode training data: %w", err)
	}

	key := TrainingObjectKey(name, format, s.now())
	contentType := "application/json"
	if format == domain.TrainingFormatChatML {
		contentType = "application/x-ndjson"
	}
	if err := s.objects.Put(ctx, key, data, contentType); err != nil {
		return nil, fmt.Errorf("failed to store training export: %w", err)
	}

	out := &TrainingExport{Key: key, Format: format, Pairs: len(pairs)}
	if p, ok := s.objects.(Presigner); ok {
		url, err := p.PresignGet(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create download url: %w", err)
		}
		out.DownloadURL = url
	}
	return out, nil
}

// Exports lists previous exports, newest first.
func (s *TrainingService) Exports(ctx context.Context) ([]domain.StoredObject, error) {
	lister, ok := s.objects.(ObjectLister)
	if !ok {
		return nil, domain.NewDomainError(domain.ErrCodeInternalError, "object store cannot list exports")
	}
	objects, err := lister.List(ctx, TrainingPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list training exports: %w", err)
	}
	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].ModifiedAt.After(objects[j].ModifiedAt)
	})
	return objects, nil
}

// Load replaces the collected pairs with a JSON export read from the
// object store.
func (s *TrainingService) Load(ctx context.Context, key string) (int, error) {
	if s.objects == nil {
		return 0, domain.NewDomainError(domain.ErrCodeInternalError, "no object store configured")
	}
	data, err := s.objects.Get(ctx, key)
	if err != nil {
		return 0, err
	}

	var pairs []*domain.QAPair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return 0, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "training file is not a JSON array of pairs", err)
	}

	if err := s.repo.DeleteAll(ctx); err != nil {
		return 0, err
	}
	for _, p := range pairs {
		p.ID = ""
		if err := s.Record(ctx, p); err != nil {
			return 0, fmt.Errorf("failed to load pair: %w", err)
		}
	}
	return len(pairs), nil
}

// TrainingObjectKey builds the object key for an export.
func TrainingObjectKey(name string, format domain.TrainingFormat, at time.Time) string {
	ext := ".json"
	if format == domain.TrainingFormatChatML {
		ext = ".jsonl"
	}
	name = strings.TrimSpace(name)
	if name != "" {
		name = path.Base(name)
	}
	if name == "" || name == "." || name == "/" {
		name = "training_data_" + at.Format("20060102_150405")
	}
	name = strings.TrimSuffix(strings.TrimSuffix(name, ".jsonl"), ".json")
	return TrainingPrefix + name + ext
}
