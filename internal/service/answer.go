package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/telemetry"
)

// Retriever is the read side of the vector index.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]domain.RetrievedSource, error)
	Stats(ctx context.Context) (domain.IndexStats, error)
}

// LanguageModel generates a completion for a message sequence.
type LanguageModel interface {
	Complete(ctx context.Context, messages []domain.Message, opts domain.GenerationOptions) (string, error)
}

// QARecorder receives every successful question/answer exchange.
type QARecorder interface {
	Record(ctx context.Context, pair *domain.QAPair) error
}

// AnswerConfig holds the retrieval and generation parameters.
type AnswerConfig struct {
	K           int
	Threshold   float64
	Temperature float32
}

func DefaultAnswerConfig() AnswerConfig {
	return AnswerConfig{
		K:           4,
		Threshold:   0.7,
		Temperature: 0.7,
	}
}

// AnswerInput is one question. History is owned by the caller and is
// never mutated.
type AnswerInput struct {
	Question string
	Intent   domain.Intent
	History  []domain.Message
}

// AnswerOutput carries the answer and the history with this exchange
// appended. On error the history is returned unchanged.
type AnswerOutput struct {
	Answer  *domain.Answer
	History []domain.Message
}

// AnswerService turns a question into a grounded answer.
type AnswerService struct {
	retriever Retriever
	llm       LanguageModel
	prompts   PromptTable
	cfg       AnswerConfig
	recorder  QARecorder
}

func NewAnswerService(retriever Retriever, llm LanguageModel, prompts PromptTable, cfg AnswerConfig) *AnswerService {
	return NewAnswerServiceWithRecorder(retriever, llm, prompts, cfg, nil)
}

func NewAnswerServiceWithRecorder(retriever Retriever, llm LanguageModel, prompts PromptTable, cfg AnswerConfig, recorder QARecorder) *AnswerService {
	defaults := DefaultAnswerConfig()
	if cfg.K <= 0 {
		cfg.K = defaults.K
	}
	if cfg.Threshold < 0 {
		cfg.Threshold = 0
	}
	return &AnswerService{
		retriever: retriever,
		llm:       llm,
		prompts:   prompts,
		cfg:       cfg,
		recorder:  recorder,
	}
}

// Answer never returns a Go error: every failure is reported through an
// error-status answer.
func (s *AnswerService) Answer(ctx context.Context, input AnswerInput) (out *AnswerOutput) {
	intent := input.Intent.OrDefault()
	ctx, span := telemetry.StartSpan(ctx, "AnswerService.Answer", telemetry.SpanAttributes{
		Intent:    string(intent),
		Operation: "answer",
	})
	defer span.End()

	history := input.History
	fail := func(err error) *AnswerOutput {
		span.SetError(err)
		return &AnswerOutput{
			Answer:  domain.NewErrorAnswer(errorCode(err), readableError(err)),
			History: history,
		}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("answer: recovered from panic: %v", r)
			out = fail(domain.NewDomainError(domain.ErrCodeInternalError, fmt.Sprintf("unexpected failure: %v", r)))
		}
	}()

	question := strings.TrimSpace(input.Question)
	if question == "" {
		return fail(domain.NewDomainError(domain.ErrCodeValidation, "question is empty"))
	}

	stats, err := s.retriever.Stats(ctx)
	if err != nil {
		return fail(fmt.Errorf("failed to read index stats: %w", err))
	}
	if stats.IsEmpty() {
		return fail(domain.ErrEmptyIndex)
	}

	telemetry.AddBreadcrumb(ctx, "answer", "retrieving passages")
	retrieved, err := s.retriever.Search(ctx, question, s.cfg.K)
	if err != nil {
		return fail(fmt.Errorf("retrieval failed: %w", err))
	}
	sources := FilterByThreshold(retrieved, s.cfg.Threshold)

	telemetry.AddBreadcrumb(ctx, "answer", fmt.Sprintf("generating with %d of %d passages", len(sources), len(retrieved)))
	messages := s.prompts.ComposeAnswerMessages(intent, question, sources, history)
	text, err := s.llm.Complete(ctx, messages, domain.GenerationOptions{Temperature: s.cfg.Temperature})
	if err != nil {
		return fail(err)
	}

	if s.recorder != nil {
		pair := &domain.QAPair{
			Context:  JoinSources(sources),
			Question: question,
			Answer:   text,
			Intent:   intent,
		}
		if err := s.recorder.Record(ctx, pair); err != nil {
			log.Printf("answer: failed to record qa pair: %v", err)
		}
	}

	updated := make([]domain.Message, 0, len(history)+2)
	updated = append(updated, history...)
	updated = append(updated,
		domain.Message{Role: domain.RoleUser, Content: question},
		domain.Message{Role: domain.RoleAssistant, Content: text},
	)

	return &AnswerOutput{
		Answer: &domain.Answer{
			Status:  domain.AnswerStatusSuccess,
			Text:    text,
			Sources: sources,
		},
		History: updated,
	}
}

// FilterByThreshold drops sources whose known score is below threshold.
// Sources without a score are kept. The result is never nil.
func FilterByThreshold(sources []domain.RetrievedSource, threshold float64) []domain.RetrievedSource {
	kept := make([]domain.RetrievedSource, 0, len(sources))
	for _, src := range sources {
		if src.Score != nil && *src.Score < threshold {
			continue
		}
		kept = append(kept, src)
	}
	return kept
}

// JoinSources concatenates passage text in source order.
func JoinSources(sources []domain.RetrievedSource) string {
	parts := make([]string, 0, len(sources))
	for _, src := range sources {
		parts = append(parts, strings.TrimSpace(src.Content))
	}
	return strings.Join(parts, "\n\n")
}

func errorCode(err error) string {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return domain.ErrCodeInternalError
}

func readableError(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "the request was cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "the request timed out"
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		if domainErr.Err != nil {
			return domainErr.Message + ": " + domainErr.Err.Error()
		}
		return domainErr.Message
	}
	return err.Error()
}
