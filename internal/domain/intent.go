package domain

// Intent is the declared kind of question a document is prepared for.
type Intent string

const (
	IntentFactual     Intent = "factual"
	IntentInferential Intent = "inferential"
	IntentSummary     Intent = "summary"
	IntentComparison  Intent = "comparison"
	IntentDefinition  Intent = "definition"
	IntentProcedural  Intent = "procedural"
	IntentOpinion     Intent = "opinion"
)

// DefaultIntent is used whenever a caller supplies an unknown intent.
const DefaultIntent = IntentFactual

// AllIntents lists every intent in display order.
func AllIntents() []Intent {
	return []Intent{
		IntentFactual,
		IntentInferential,
		IntentSummary,
		IntentComparison,
		IntentDefinition,
		IntentProcedural,
		IntentOpinion,
	}
}

func (i Intent) IsValid() bool {
	switch i {
	case IntentFactual, IntentInferential, IntentSummary, IntentComparison,
		IntentDefinition, IntentProcedural, IntentOpinion:
		return true
	default:
		return false
	}
}

// ParseIntent validates a raw intent string.
func ParseIntent(raw string) (Intent, error) {
	i := Intent(raw)
	if !i.IsValid() {
		return "", ErrInvalidIntent
	}
	return i, nil
}

// OrDefault returns the intent itself when valid, DefaultIntent otherwise.
func (i Intent) OrDefault() Intent {
	if i.IsValid() {
		return i
	}
	return DefaultIntent
}
