package service

import (
	"fmt"
	"math"

	"github.com/cloo-solutions/studyrag/internal/domain"
)

const (
	longSentenceThreshold = 100.0
	longSentenceFactor    = 1.5
	longSentenceCap       = 2000

	technicalDensityThreshold = 0.10
	technicalSizeFactor       = 1.2
	technicalSizeCap          = 1500
	technicalOverlapFactor    = 1.5
	technicalOverlapCap       = 300

	codeSizeFactor = 1.3
	codeSizeFloor  = 1000
)

// StrategyTable maps intents to base chunking policies. It is read-only
// after construction.
type StrategyTable struct {
	policies map[domain.Intent]domain.ChunkingPolicy
}

// DefaultStrategyTable returns the built-in policy for every intent.
func DefaultStrategyTable() StrategyTable {
	return StrategyTable{policies: map[domain.Intent]domain.ChunkingPolicy{
		domain.IntentFactual:     {TargetSize: 300, Overlap: 50, Granularity: domain.GranularitySentence},
		domain.IntentInferential: {TargetSize: 800, Overlap: 200, Granularity: domain.GranularityParagraph},
		domain.IntentSummary:     {TargetSize: 1000, Overlap: 100, Granularity: domain.GranularityParagraph},
		domain.IntentComparison:  {TargetSize: 600, Overlap: 150, Granularity: domain.GranularityParagraph},
		domain.IntentDefinition:  {TargetSize: 400, Overlap: 50, Granularity: domain.GranularitySentence},
		domain.IntentProcedural:  {TargetSize: 500, Overlap: 100, Granularity: domain.GranularitySentence},
		domain.IntentOpinion:     {TargetSize: 700, Overlap: 150, Granularity: domain.GranularityParagraph},
	}}
}

// WithOverrides returns a copy of the table with the given entries
// replaced. Every override must be a known intent with a valid policy.
func (t StrategyTable) WithOverrides(overrides map[domain.Intent]domain.ChunkingPolicy) (StrategyTable, error) {
	policies := make(map[domain.Intent]domain.ChunkingPolicy, len(t.policies))
	for intent, policy := range t.policies {
		policies[intent] = policy
	}
	for intent, policy := range overrides {
		if !intent.IsValid() {
			return StrategyTable{}, domain.NewDomainError(domain.ErrCodeValidation, fmt.Sprintf("unknown intent %q in strategy table", intent))
		}
		if err := policy.Validate(); err != nil {
			return StrategyTable{}, fmt.Errorf("strategy for %s: %w", intent, err)
		}
		policies[intent] = policy
	}
	return StrategyTable{policies: policies}, nil
}

// Policy returns the base policy for intent, falling back to factual.
func (t StrategyTable) Policy(intent domain.Intent) domain.ChunkingPolicy {
	if policy, ok := t.policies[intent]; ok {
		return policy
	}
	if policy, ok := t.policies[domain.DefaultIntent]; ok {
		return policy
	}
	return DefaultStrategyTable().policies[domain.DefaultIntent]
}

// Entries returns a copy of every intent's policy.
func (t StrategyTable) Entries() map[domain.Intent]domain.ChunkingPolicy {
	out := make(map[domain.Intent]domain.ChunkingPolicy, len(t.policies))
	for intent, policy := range t.policies {
		out[intent] = policy
	}
	return out
}

// AdjustPolicy applies the feature rules to a base policy in fixed order:
// long sentences, technical density, then code. Products are floored.
func AdjustPolicy(base domain.ChunkingPolicy, features domain.TextFeatures) domain.ChunkingPolicy {
	adjusted := base

	if features.Sentences.Mean > longSentenceThreshold {
		adjusted.TargetSize = min(scale(adjusted.TargetSize, longSentenceFactor), longSentenceCap)
	}

	if features.TechnicalDensity > technicalDensityThreshold {
		adjusted.TargetSize = min(scale(adjusted.TargetSize, technicalSizeFactor), technicalSizeCap)
		adjusted.Overlap = min(scale(adjusted.Overlap, technicalOverlapFactor), technicalOverlapCap)
	}

	// code uses a floor, not a cap
	if features.HasCode {
		adjusted.Granularity = domain.GranularityCode
		adjusted.TargetSize = max(scale(adjusted.TargetSize, codeSizeFactor), codeSizeFloor)
	}

	if adjusted.TargetSize < 1 {
		adjusted.TargetSize = 1
	}
	if adjusted.Overlap >= adjusted.TargetSize {
		adjusted.Overlap = adjusted.TargetSize - 1
	}
	if adjusted.Overlap < 0 {
		adjusted.Overlap = 0
	}

	return adjusted
}

// scale floors n*factor, absorbing binary rounding so that 700*1.3 is 910.
func scale(n int, factor float64) int {
	return int(math.Floor(float64(n)*factor + 1e-9))
}
