package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntentConstants(t *testing.T) {
	assert.Len(t, AllIntents(), 7)
	for _, intent := range AllIntents() {
		assert.True(t, intent.IsValid(), string(intent))
	}
	assert.False(t, Intent("poetry").IsValid())
	assert.Equal(t, IntentFactual, Intent("poetry").OrDefault())
	assert.Equal(t, IntentSummary, IntentSummary.OrDefault())
}

func TestParseIntent(t *testing.T) {
	got, err := ParseIntent("comparison")
	assert.NoError(t, err)
	assert.Equal(t, IntentComparison, got)

	_, err = ParseIntent("")
	assert.Equal(t, ErrInvalidIntent, err)
}

func TestChunkingPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		policy  ChunkingPolicy
		wantErr bool
	}{
		{"valid", ChunkingPolicy{TargetSize: 300, Overlap: 50, Granularity: GranularitySentence}, false},
		{"zero overlap", ChunkingPolicy{TargetSize: 300, Overlap: 0, Granularity: GranularityParagraph}, false},
		{"zero size", ChunkingPolicy{TargetSize: 0, Overlap: 0, Granularity: GranularitySentence}, true},
		{"overlap equals size", ChunkingPolicy{TargetSize: 100, Overlap: 100, Granularity: GranularitySentence}, true},
		{"negative overlap", ChunkingPolicy{TargetSize: 100, Overlap: -1, Granularity: GranularitySentence}, true},
		{"bad granularity", ChunkingPolicy{TargetSize: 100, Overlap: 10, Granularity: "word"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, HasCode(err, ErrCodeValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]DocumentFormat{
		"notes.txt":        FormatText,
		"README.md":        FormatMarkdown,
		"paper.PDF":        FormatPDF,
		"report.docx":      FormatDOCX,
		"page.htm":         FormatHTML,
		"dir/nested.html":  FormatHTML,
	}
	for path, expected := range tests {
		got, err := FormatFromPath(path)
		assert.NoError(t, err, path)
		assert.Equal(t, expected, got, path)
	}

	_, err := FormatFromPath("slides.pptx")
	assert.True(t, HasCode(err, ErrCodeUnsupportedFormat))
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewDomainErrorWithCause(ErrCodeModelUnavailable, "chat completion failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "MODEL_UNAVAILABLE")
	assert.True(t, HasCode(err, ErrCodeModelUnavailable))
	assert.False(t, HasCode(cause, ErrCodeModelUnavailable))
}
