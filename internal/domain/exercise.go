package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ExerciseType is the kind of quiz item.
type ExerciseType string

const (
	ExerciseTypeChoice      ExerciseType = "choice"
	ExerciseTypeFillIn      ExerciseType = "fill_in"
	ExerciseTypeShortAnswer ExerciseType = "short_answer"
)

// exerciseTypeAliases maps the labels models emit to canonical types.
var exerciseTypeAliases = map[string]ExerciseType{
	"choice":          ExerciseTypeChoice,
	"multiple_choice": ExerciseTypeChoice,
	"选择题":             ExerciseTypeChoice,
	"fill_in":         ExerciseTypeFillIn,
	"fill-in":         ExerciseTypeFillIn,
	"fill_in_blank":   ExerciseTypeFillIn,
	"填空题":             ExerciseTypeFillIn,
	"short_answer":    ExerciseTypeShortAnswer,
	"short-answer":    ExerciseTypeShortAnswer,
	"简答题":             ExerciseTypeShortAnswer,
}

// ParseExerciseType normalises a type label.
func ParseExerciseType(raw string) (ExerciseType, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, " ", "_")
	if t, ok := exerciseTypeAliases[key]; ok {
		return t, nil
	}
	return "", NewDomainError(ErrCodeValidation, fmt.Sprintf("unknown exercise type %q", raw))
}

// Exercise is one validated quiz item.
type Exercise struct {
	Question    string       `json:"question"`
	Type        ExerciseType `json:"type"`
	Options     []string     `json:"options,omitempty"`
	Answer      string       `json:"answer"`
	Explanation string       `json:"explanation"`
}

// ParseExercise validates a single raw item. The item must be a JSON object
// with non-empty question, type, answer and explanation fields; choice items
// also need a non-empty options list.
func ParseExercise(raw json.RawMessage) (*Exercise, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, NewDomainError(ErrCodeValidation, "exercise item is not an object")
	}

	question, err := requiredText(fields, "question")
	if err != nil {
		return nil, err
	}
	typeLabel, err := requiredText(fields, "type")
	if err != nil {
		return nil, err
	}
	answer, err := requiredText(fields, "answer")
	if err != nil {
		return nil, err
	}
	explanation, err := requiredText(fields, "explanation")
	if err != nil {
		return nil, err
	}

	exType, err := ParseExerciseType(typeLabel)
	if err != nil {
		return nil, err
	}

	var options []string
	if rawOptions, ok := fields["options"]; ok && !isJSONNull(rawOptions) {
		if err := json.Unmarshal(rawOptions, &options); err != nil {
			return nil, NewDomainError(ErrCodeValidation, "exercise options must be a list of strings")
		}
	}
	if exType == ExerciseTypeChoice && len(options) == 0 {
		return nil, ErrMissingOptions
	}

	return &Exercise{
		Question:    question,
		Type:        exType,
		Options:     options,
		Answer:      answer,
		Explanation: explanation,
	}, nil
}

// requiredText reads a non-empty field. Strings are taken as-is; other
// scalars (numbers, booleans) keep their JSON text.
func requiredText(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok || isJSONNull(raw) {
		return "", NewDomainError(ErrCodeValidation, fmt.Sprintf("exercise field %q is missing", name))
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || trimmed[0] == '{' || trimmed[0] == '[' {
			return "", NewDomainError(ErrCodeValidation, fmt.Sprintf("exercise field %q must be text", name))
		}
		s = string(trimmed)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", NewDomainError(ErrCodeValidation, fmt.Sprintf("exercise field %q is empty", name))
	}
	return s, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
