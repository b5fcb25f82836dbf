package service

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/studyrag/internal/domain"
)

// SupplementMarker labels any knowledge the model adds beyond the
// retrieved passages.
const SupplementMarker = "Supplementary note:"

const answerSystemPrompt = "You are a study assistant. You answer questions about the learner's own documents and keep what the documents say apart from what you add yourself."

// PromptTable maps intents to answer-composition instructions. It is
// read-only after construction.
type PromptTable struct {
	instructions map[domain.Intent]string
}

// DefaultPromptTable returns the built-in instruction for every intent.
func DefaultPromptTable() PromptTable {
	return PromptTable{instructions: map[domain.Intent]string{
		domain.IntentFactual: `Answer the question from the document content below. You may add your own knowledge where it helps.
1. Use what the documents state explicitly as the primary basis.
2. If the documents are insufficient, supplement with relevant knowledge.
3. Label anything from your own knowledge with "` + SupplementMarker + `".
4. Make the answer accurate, complete and substantive.`,

		domain.IntentInferential: `Reason over the document content below and interpret it in depth, drawing on your own knowledge.
1. Use the document content as the basis of every inference.
2. Extend and explain it with reasonable knowledge of your own.
3. Keep what the documents say distinct from your own reasoning.
4. Offer analysis with real depth.`,

		domain.IntentSummary: `Summarise the document content below and add your professional perspective.
1. Extract the key information from the documents.
2. Add relevant background knowledge.
3. Give professional analysis and recommendations.
4. Keep the summary comprehensive.`,

		domain.IntentComparison: `Compare the different viewpoints or methods in the document content below and add your professional analysis.
1. Base the comparison on the document content.
2. Add relevant professional knowledge and experience.
3. Analyse the differences in depth.
4. Close with a recommendation or conclusion.`,

		domain.IntentDefinition: `Explain the concepts or terms in the document content below and supplement them with related knowledge.
1. Start from the definitions given in the documents.
2. Add professional explanation and examples.
3. Describe wider areas of application.
4. Keep the explanation accurate and easy to follow.`,

		domain.IntentProcedural: `Describe in detail the process or steps in the document content below and add best practices.
1. Lay out the basic flow as the documents describe it.
2. Add professional experience and practical tips.
3. Point out pitfalls and things to watch for.
4. Keep the instructions clear and actionable.`,

		domain.IntentOpinion: `Analyse the viewpoints and arguments in the document content below and give a professional assessment.
1. Identify the main viewpoints in the documents.
2. Add relevant professional knowledge and experience.
3. Evaluate the arguments in depth.
4. Close with a recommendation or conclusion.`,
	}}
}

// WithOverrides returns a copy of the table with the given instructions
// replaced.
func (t PromptTable) WithOverrides(overrides map[domain.Intent]string) (PromptTable, error) {
	instructions := make(map[domain.Intent]string, len(t.instructions))
	for intent, text := range t.instructions {
		instructions[intent] = text
	}
	for intent, text := range overrides {
		if !intent.IsValid() {
			return PromptTable{}, domain.NewDomainError(domain.ErrCodeValidation, fmt.Sprintf("unknown intent %q in prompt table", intent))
		}
		if strings.TrimSpace(text) == "" {
			return PromptTable{}, domain.NewDomainError(domain.ErrCodeValidation, fmt.Sprintf("empty prompt for intent %q", intent))
		}
		instructions[intent] = text
	}
	return PromptTable{instructions: instructions}, nil
}

// Instruction returns the instruction for intent, falling back to factual.
func (t PromptTable) Instruction(intent domain.Intent) string {
	if text, ok := t.instructions[intent]; ok {
		return text
	}
	if text, ok := t.instructions[domain.DefaultIntent]; ok {
		return text
	}
	return DefaultPromptTable().instructions[domain.DefaultIntent]
}

// ComposeAnswerPrompt builds the user prompt for one question. Passages
// are numbered in the order of the returned source list.
func (t PromptTable) ComposeAnswerPrompt(intent domain.Intent, question string, sources []domain.RetrievedSource) string {
	var b strings.Builder

	b.WriteString(t.Instruction(intent))
	b.WriteString("\n\nDocument content:\n")
	if len(sources) == 0 {
		b.WriteString("(no relevant passages were found in the knowledge base)\n")
	}
	for i, src := range sources {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, strings.TrimSpace(src.Content))
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n\nWhen answering:\n")
	b.WriteString("1. Quote and rely on the numbered passages first.\n")
	b.WriteString("2. Supplement with your own knowledge only where the passages fall short.\n")
	fmt.Fprintf(&b, "3. Start every part that comes from your own knowledge with \"%s\".\n", SupplementMarker)
	b.WriteString("4. Make the answer accurate and complete.\n")
	if len(sources) == 0 {
		fmt.Fprintf(&b, "No passages are available, so every claim in your answer must be marked with \"%s\".\n", SupplementMarker)
	}

	return b.String()
}

// ComposeAnswerMessages assembles system instruction, prior turns and the
// composed prompt into one model request.
func (t PromptTable) ComposeAnswerMessages(intent domain.Intent, question string, sources []domain.RetrievedSource, history []domain.Message) []domain.Message {
	messages := make([]domain.Message, 0, len(history)+2)
	messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: answerSystemPrompt})
	messages = append(messages, history...)
	messages = append(messages, domain.Message{
		Role:    domain.RoleUser,
		Content: t.ComposeAnswerPrompt(intent, question, sources),
	})
	return messages
}

func (t PromptTable) Entries() map[domain.Intent]string {
	out := make(map[domain.Intent]string, len(t.instructions))
	for intent, text := range t.instructions {
		out[intent] = text
	}
	return out
}
