package service

import (
	"github.com/cloo-solutions/studyrag/internal/domain"
)

// SplitInfo explains how a text was chunked.
type SplitInfo struct {
	Intent           domain.Intent         `json:"intent"`
	OriginalStrategy domain.ChunkingPolicy `json:"original_strategy"`
	AdjustedStrategy domain.ChunkingPolicy `json:"adjusted_strategy"`
	TextFeatures     domain.TextFeatures   `json:"text_features"`
	ChunksCount      int                   `json:"chunks_count"`
	AvgChunkSize     float64               `json:"avg_chunk_size"`
	Chunks           []domain.Chunk        `json:"chunks"`
}

// ChunkingService runs the analyze, adjust and split pipeline.
type ChunkingService struct {
	table    StrategyTable
	analyzer *TextAnalyzer
	splitter *Splitter
}

func NewChunkingService(table StrategyTable) *ChunkingService {
	return &ChunkingService{
		table:    table,
		analyzer: NewTextAnalyzer(),
		splitter: NewSplitter(),
	}
}

// Chunk splits text using the policy for intent adjusted to the text's
// measured features. Unknown intents use the factual policy.
func (s *ChunkingService) Chunk(text string, intent domain.Intent) []domain.Chunk {
	return s.SplitInfo(text, intent).Chunks
}

func (s *ChunkingService) SplitInfo(text string, intent domain.Intent) *SplitInfo {
	intent = intent.OrDefault()
	base := s.table.Policy(intent)
	features := s.analyzer.Analyze(text)
	adjusted := AdjustPolicy(base, features)
	chunks := s.splitter.Split(text, adjusted)

	info := &SplitInfo{
		Intent:           intent,
		OriginalStrategy: base,
		AdjustedStrategy: adjusted,
		TextFeatures:     features,
		ChunksCount:      len(chunks),
		Chunks:           chunks,
	}
	if len(chunks) > 0 {
		total := 0
		for _, c := range chunks {
			total += c.Len()
		}
		info.AvgChunkSize = float64(total) / float64(len(chunks))
	}
	return info
}

// Analyze exposes the feature measurements for text.
func (s *ChunkingService) Analyze(text string) domain.TextFeatures {
	return s.analyzer.Analyze(text)
}

func (s *ChunkingService) Table() StrategyTable {
	return s.table
}
