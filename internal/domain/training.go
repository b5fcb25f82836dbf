package domain

import "time"

// QAPair is a question/answer exchange kept for fine-tuning data.
type QAPair struct {
	ID        string    `json:"id"`
	Context   string    `json:"context"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Intent    Intent    `json:"intent,omitempty"`
	CreatedAt time.Time `json:"timestamp"`
}

// TrainingStats summarises collected QA pairs.
type TrainingStats struct {
	TotalPairs        int     `json:"total_pairs"`
	AvgContextLength  float64 `json:"avg_context_length"`
	AvgQuestionLength float64 `json:"avg_question_length"`
	AvgAnswerLength   float64 `json:"avg_answer_length"`
}

// TrainingFormat is an export format for collected pairs.
type TrainingFormat string

const (
	TrainingFormatJSON   TrainingFormat = "json"
	TrainingFormatChatML TrainingFormat = "chatml"
)

func (f TrainingFormat) IsValid() bool {
	return f == TrainingFormatJSON || f == TrainingFormatChatML
}

// StoredObject describes an object in the object store.
type StoredObject struct {
	Key        string    `json:"key"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}
