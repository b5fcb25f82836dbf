package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/telemetry"
)

const (
	// ExercisesPerBatch is how many items the model is asked for.
	ExercisesPerBatch = 3

	previewLength = 500
)

// DefaultExerciseOptions are the sampling settings for exercise generation.
func DefaultExerciseOptions() domain.GenerationOptions {
	return domain.GenerationOptions{
		Temperature: 0.7,
		MaxTokens:   2000,
		TopP:        0.8,
		TopK:        50,
	}
}

const exercisePromptTemplate = `Create %d practice exercises from the study material below. Each exercise needs:
1. a question
2. options (choice questions only)
3. the correct answer
4. an explanation

Study material:
%s

Reply with JSON only, in exactly this shape:
{
  "exercises": [
    {
      "question": "question text",
      "type": "choice | fill_in | short_answer",
      "options": ["option A", "option B", "option C", "option D"],
      "answer": "correct answer",
      "explanation": "why the answer is correct"
    }
  ]
}
Include "options" only for choice questions.`

// ExerciseService generates quiz items from study material.
type ExerciseService struct {
	llm  LanguageModel
	opts domain.GenerationOptions
}

func NewExerciseService(llm LanguageModel) *ExerciseService {
	return &ExerciseService{llm: llm, opts: DefaultExerciseOptions()}
}

// Generate returns the valid exercises in the model output. It never
// returns both items and an error: on any failure the slice is empty and
// the error says why.
func (s *ExerciseService) Generate(ctx context.Context, content string) ([]domain.Exercise, error) {
	ctx, span := telemetry.StartSpan(ctx, "ExerciseService.Generate", telemetry.SpanAttributes{
		Operation: "generate_exercises",
	})
	defer span.End()

	if strings.TrimSpace(content) == "" {
		return []domain.Exercise{}, domain.ErrEmptyContent
	}

	prompt := fmt.Sprintf(exercisePromptTemplate, ExercisesPerBatch, content)
	messages := []domain.Message{{Role: domain.RoleUser, Content: prompt}}

	text, err := s.llm.Complete(ctx, messages, s.opts)
	if err != nil {
		span.SetError(err)
		return []domain.Exercise{}, err
	}

	exercises, err := ParseExercises(text)
	if err != nil {
		span.SetError(err)
		return []domain.Exercise{}, err
	}
	return exercises, nil
}

// ParseExercises extracts the exercises object from raw model output. The
// text between the first '{' and the last '}' is parsed; if that fails it
// is parsed once more with newlines collapsed to spaces. Invalid items are
// dropped and logged.
func ParseExercises(output string) ([]domain.Exercise, error) {
	start := strings.Index(output, "{")
	end := strings.LastIndex(output, "}")
	if start < 0 || end <= start {
		log.Printf("exercise: no JSON object in model output")
		return []domain.Exercise{}, domain.ErrParseFailure
	}
	candidate := output[start : end+1]

	var payload struct {
		Exercises []json.RawMessage `json:"exercises"`
	}
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		collapsed := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(candidate)
		if err2 := json.Unmarshal([]byte(collapsed), &payload); err2 != nil {
			log.Printf("exercise: model output is not valid JSON: %v", err2)
			return []domain.Exercise{}, domain.NewDomainErrorWithCause(domain.ErrCodeParseFailure, domain.ErrParseFailure.Message, err2)
		}
	}

	exercises := make([]domain.Exercise, 0, len(payload.Exercises))
	for i, raw := range payload.Exercises {
		ex, err := domain.ParseExercise(raw)
		if err != nil {
			log.Printf("exercise: dropping item %d: %v", i+1, err)
			continue
		}
		exercises = append(exercises, *ex)
	}

	if len(exercises) == 0 {
		return []domain.Exercise{}, domain.ErrNoValidExercises
	}
	return exercises, nil
}

// PreviewContent returns the first 500 characters of content followed by
// an ellipsis when it is longer.
func PreviewContent(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength]) + "..."
}
