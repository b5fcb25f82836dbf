package domain

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// RetrievedSource is a passage returned by the index together with its
// similarity score. A nil Score means the index did not report one.
type RetrievedSource struct {
	Content  string            `json:"content"`
	Score    *float64          `json:"relevance_score,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ScoreOrZero returns the score, or 0 when unknown.
func (s RetrievedSource) ScoreOrZero() float64 {
	if s.Score == nil {
		return 0
	}
	return *s.Score
}

// Score builds a known score pointer.
func Score(v float64) *float64 {
	return &v
}

// AnswerStatus reports whether an answer call succeeded.
type AnswerStatus string

const (
	AnswerStatusSuccess AnswerStatus = "success"
	AnswerStatusError   AnswerStatus = "error"
)

// Answer is the result of a question answering call.
type Answer struct {
	Status  AnswerStatus      `json:"status"`
	Text    string            `json:"answer,omitempty"`
	Sources []RetrievedSource `json:"sources"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
}

// NewErrorAnswer builds an error-status answer carrying a readable message.
func NewErrorAnswer(code, message string) *Answer {
	return &Answer{
		Status:  AnswerStatusError,
		Sources: []RetrievedSource{},
		Code:    code,
		Message: message,
	}
}

// GenerationOptions are the sampling knobs passed to the language model.
// Zero values leave the provider default in place.
type GenerationOptions struct {
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	TopP        float32 `json:"top_p,omitempty"`
	TopK        int     `json:"top_k,omitempty"`
}
