package service

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

var (
	technicalTermPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:function|class|method|algorithm|protocol|interface)\b`),
		regexp.MustCompile(`(?i)\b(?:API|SDK|REST|HTTP|TCP|IP)\b`),
		regexp.MustCompile(`(?i)\b(?:database|server|client|network|security)\b`),
	}

	codeBlockPattern = regexp.MustCompile("```[\\s\\S]*?```")

	paragraphBreakPattern = regexp.MustCompile(`\n[ \t\r]*\n\s*`)
)

// TextAnalyzer measures the features that drive chunking policy
// adjustment. It holds no state and is safe for concurrent use.
type TextAnalyzer struct{}

func NewTextAnalyzer() *TextAnalyzer {
	return &TextAnalyzer{}
}

// Analyze never fails; empty text yields all-zero features.
func (a *TextAnalyzer) Analyze(text string) domain.TextFeatures {
	if strings.TrimSpace(text) == "" {
		return domain.TextFeatures{}
	}

	features := domain.TextFeatures{
		Sentences:  lengthStats(sentenceLengths(text)),
		Paragraphs: lengthStats(paragraphLengths(text)),
	}

	terms := 0
	for _, pattern := range technicalTermPatterns {
		terms += len(pattern.FindAllStringIndex(text, -1))
	}
	features.TechnicalTerms = terms
	if words := len(strings.Fields(text)); words > 0 {
		features.TechnicalDensity = float64(terms) / float64(words)
	}

	blocks := codeBlockPattern.FindAllString(text, -1)
	features.CodeBlocks = len(blocks)
	features.HasCode = len(blocks) > 0
	if len(blocks) > 0 {
		inside := 0
		for _, block := range blocks {
			inside += utf8.RuneCountInString(block)
		}
		features.CodeRatio = float64(inside) / float64(utf8.RuneCountInString(text))
	}

	return features
}

// sentenceLengths returns the rune length of each trimmed sentence.
// Blank lines and CJK terminators always end a sentence; the remaining
// segments go through the Punkt tokenizer so abbreviations such as "Dr."
// or "p.m." do not.
func sentenceLengths(text string) []int {
	tokenizer := englishTokenizer()

	var lengths []int
	for _, segment := range hardSegments(text) {
		for _, sentence := range tokenizer.Tokenize(segment) {
			if n := utf8.RuneCountInString(strings.TrimSpace(sentence.Text)); n > 0 {
				lengths = append(lengths, n)
			}
		}
	}
	return lengths
}

var englishTokenizer = sync.OnceValue(func() *sentences.DefaultSentenceTokenizer {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		panic(fmt.Sprintf("load english sentence data: %v", err))
	}
	return tokenizer
})

// hardSegments cuts text after CJK terminators (and any closers that
// follow them) and at blank lines.
func hardSegments(text string) []string {
	runes := []rune(text)
	var segments []string
	start := 0

	emit := func(end int) {
		if trimmedLen(runes[start:end]) > 0 {
			segments = append(segments, string(runes[start:end]))
		}
		start = end
	}

	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; {
		case isCJKTerminator(r):
			j := i + 1
			for j < len(runes) && (isCJKTerminator(runes[j]) || isCloser(runes[j])) {
				j++
			}
			emit(j)
			i = j - 1
		case r == '\n':
			j := i + 1
			for j < len(runes) && (runes[j] == ' ' || runes[j] == '\t' || runes[j] == '\r') {
				j++
			}
			if j < len(runes) && runes[j] == '\n' {
				emit(i)
			}
		}
	}
	emit(len(runes))

	return segments
}

func paragraphLengths(text string) []int {
	var lengths []int
	for _, para := range paragraphBreakPattern.Split(text, -1) {
		if n := utf8.RuneCountInString(strings.TrimSpace(para)); n > 0 {
			lengths = append(lengths, n)
		}
	}
	return lengths
}

func lengthStats(lengths []int) domain.LengthStats {
	if len(lengths) == 0 {
		return domain.LengthStats{}
	}

	stats := domain.LengthStats{Min: lengths[0], Max: lengths[0]}
	sum := 0
	for _, n := range lengths {
		sum += n
		if n < stats.Min {
			stats.Min = n
		}
		if n > stats.Max {
			stats.Max = n
		}
	}
	stats.Mean = float64(sum) / float64(len(lengths))

	variance := 0.0
	for _, n := range lengths {
		d := float64(n) - stats.Mean
		variance += d * d
	}
	stats.StdDev = math.Sqrt(variance / float64(len(lengths)))

	return stats
}

func isCJKTerminator(r rune) bool {
	return r == '。' || r == '！' || r == '？'
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '}', '”', '’', '」', '』', '）', '》':
		return true
	}
	return false
}

func trimmedLen(runes []rune) int {
	start, end := 0, len(runes)
	for start < end && unicode.IsSpace(runes[start]) {
		start++
	}
	for end > start && unicode.IsSpace(runes[end-1]) {
		end--
	}
	return end - start
}
