package domain

import "fmt"

// Granularity selects the unit the splitter works in.
type Granularity string

const (
	GranularitySentence  Granularity = "sentence"
	GranularityParagraph Granularity = "paragraph"
	GranularityCode      Granularity = "code"
)

func (g Granularity) IsValid() bool {
	switch g {
	case GranularitySentence, GranularityParagraph, GranularityCode:
		return true
	default:
		return false
	}
}

// ChunkingPolicy describes how text is split into retrieval units.
// Sizes are measured in characters (runes).
type ChunkingPolicy struct {
	TargetSize  int         `json:"target_size" yaml:"target_size"`
	Overlap     int         `json:"overlap" yaml:"overlap"`
	Granularity Granularity `json:"granularity" yaml:"granularity"`
}

// Validate checks TargetSize > 0 and 0 <= Overlap < TargetSize.
func (p ChunkingPolicy) Validate() error {
	if p.TargetSize <= 0 {
		return NewDomainError(ErrCodeValidation, "target size must be positive")
	}
	if p.Overlap < 0 || p.Overlap >= p.TargetSize {
		return NewDomainError(ErrCodeValidation,
			fmt.Sprintf("overlap %d must be in [0, %d)", p.Overlap, p.TargetSize))
	}
	if !p.Granularity.IsValid() {
		return ErrInvalidGranularity
	}
	return nil
}

// LengthStats summarises a sequence of unit lengths.
type LengthStats struct {
	Mean   float64 `json:"mean"`
	Max    int     `json:"max"`
	Min    int     `json:"min"`
	StdDev float64 `json:"std_dev"`
}

// TextFeatures are the measurements the strategy adjuster consumes.
type TextFeatures struct {
	Sentences        LengthStats `json:"sentences"`
	Paragraphs       LengthStats `json:"paragraphs"`
	TechnicalDensity float64     `json:"technical_density"`
	TechnicalTerms   int         `json:"technical_terms"`
	HasCode          bool        `json:"has_code"`
	CodeBlocks       int         `json:"code_blocks"`
	CodeRatio        float64     `json:"code_ratio"`
}

// Chunk is one contiguous retrieval unit. Start and End are rune offsets
// into the source text; Overlap counts the leading runes shared with the
// previous chunk.
type Chunk struct {
	Index   int    `json:"index"`
	Content string `json:"content"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Overlap int    `json:"overlap"`
}

// Len returns the chunk length in runes.
func (c Chunk) Len() int {
	return c.End - c.Start
}
