package service

import (
	"testing"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStrategyTable(t *testing.T) {
	table := DefaultStrategyTable()

	entries := table.Entries()
	assert.Len(t, entries, 7)
	for _, intent := range domain.AllIntents() {
		policy, ok := entries[intent]
		require.True(t, ok, "missing %s", intent)
		assert.NoError(t, policy.Validate())
	}

	assert.Equal(t, domain.ChunkingPolicy{TargetSize: 300, Overlap: 50, Granularity: domain.GranularitySentence}, table.Policy(domain.IntentFactual))
	assert.Equal(t, domain.ChunkingPolicy{TargetSize: 1000, Overlap: 100, Granularity: domain.GranularityParagraph}, table.Policy(domain.IntentSummary))
}

func TestStrategyTable_UnknownIntentFallsBackToFactual(t *testing.T) {
	table := DefaultStrategyTable()

	assert.Equal(t, table.Policy(domain.IntentFactual), table.Policy(domain.Intent("poetry")))
}

func TestStrategyTable_WithOverrides(t *testing.T) {
	base := DefaultStrategyTable()

	t.Run("replaces entry", func(t *testing.T) {
		custom := domain.ChunkingPolicy{TargetSize: 123, Overlap: 12, Granularity: domain.GranularityParagraph}
		table, err := base.WithOverrides(map[domain.Intent]domain.ChunkingPolicy{domain.IntentOpinion: custom})
		require.NoError(t, err)
		assert.Equal(t, custom, table.Policy(domain.IntentOpinion))
		assert.Equal(t, 700, base.Policy(domain.IntentOpinion).TargetSize)
	})

	t.Run("rejects unknown intent", func(t *testing.T) {
		_, err := base.WithOverrides(map[domain.Intent]domain.ChunkingPolicy{
			"poetry": {TargetSize: 100, Overlap: 0, Granularity: domain.GranularitySentence},
		})
		assert.True(t, domain.HasCode(err, domain.ErrCodeValidation))
	})

	t.Run("rejects invalid policy", func(t *testing.T) {
		_, err := base.WithOverrides(map[domain.Intent]domain.ChunkingPolicy{
			domain.IntentFactual: {TargetSize: 100, Overlap: 100, Granularity: domain.GranularitySentence},
		})
		assert.Error(t, err)
	})
}

func TestAdjustPolicy(t *testing.T) {
	factual := domain.ChunkingPolicy{TargetSize: 300, Overlap: 50, Granularity: domain.GranularitySentence}
	summary := domain.ChunkingPolicy{TargetSize: 1000, Overlap: 100, Granularity: domain.GranularityParagraph}
	opinion := domain.ChunkingPolicy{TargetSize: 700, Overlap: 150, Granularity: domain.GranularityParagraph}

	longSentences := domain.TextFeatures{Sentences: domain.LengthStats{Mean: 150}}
	technical := domain.TextFeatures{TechnicalDensity: 0.2}
	code := domain.TextFeatures{HasCode: true, CodeBlocks: 1}

	tests := []struct {
		name     string
		base     domain.ChunkingPolicy
		features domain.TextFeatures
		expected domain.ChunkingPolicy
	}{
		{
			name:     "no features leaves policy unchanged",
			base:     factual,
			features: domain.TextFeatures{},
			expected: factual,
		},
		{
			name:     "long sentences",
			base:     factual,
			features: longSentences,
			expected: domain.ChunkingPolicy{TargetSize: 450, Overlap: 50, Granularity: domain.GranularitySentence},
		},
		{
			name:     "mean of exactly 100 does not trigger",
			base:     factual,
			features: domain.TextFeatures{Sentences: domain.LengthStats{Mean: 100}},
			expected: factual,
		},
		{
			name:     "technical density",
			base:     factual,
			features: technical,
			expected: domain.ChunkingPolicy{TargetSize: 360, Overlap: 75, Granularity: domain.GranularitySentence},
		},
		{
			name:     "density of exactly 0.1 does not trigger",
			base:     factual,
			features: domain.TextFeatures{TechnicalDensity: 0.1},
			expected: factual,
		},
		{
			name:     "code raises to floor",
			base:     opinion,
			features: code,
			expected: domain.ChunkingPolicy{TargetSize: 1000, Overlap: 150, Granularity: domain.GranularityCode},
		},
		{
			name:     "code scales above floor",
			base:     summary,
			features: code,
			expected: domain.ChunkingPolicy{TargetSize: 1300, Overlap: 100, Granularity: domain.GranularityCode},
		},
		{
			name: "rules apply in order with caps",
			base: summary,
			features: domain.TextFeatures{
				Sentences:        domain.LengthStats{Mean: 150},
				TechnicalDensity: 0.2,
				HasCode:          true,
			},
			expected: domain.ChunkingPolicy{TargetSize: 1950, Overlap: 150, Granularity: domain.GranularityCode},
		},
		{
			name: "long and technical",
			base: factual,
			features: domain.TextFeatures{
				Sentences:        domain.LengthStats{Mean: 150},
				TechnicalDensity: 0.2,
			},
			expected: domain.ChunkingPolicy{TargetSize: 540, Overlap: 75, Granularity: domain.GranularitySentence},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AdjustPolicy(tt.base, tt.features))
		})
	}
}

func TestAdjustPolicy_TechnicalOverlapCap(t *testing.T) {
	base := domain.ChunkingPolicy{TargetSize: 1000, Overlap: 250, Granularity: domain.GranularityParagraph}

	adjusted := AdjustPolicy(base, domain.TextFeatures{TechnicalDensity: 0.5})

	assert.Equal(t, 1200, adjusted.TargetSize)
	assert.Equal(t, 300, adjusted.Overlap)
}

func TestAdjustPolicy_DoesNotMutateBase(t *testing.T) {
	table := DefaultStrategyTable()
	base := table.Policy(domain.IntentFactual)

	_ = AdjustPolicy(base, domain.TextFeatures{HasCode: true})

	assert.Equal(t, domain.GranularitySentence, table.Policy(domain.IntentFactual).Granularity)
}
