package service

import (
	"strings"
	"testing"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sentencePolicy(size, overlap int) domain.ChunkingPolicy {
	return domain.ChunkingPolicy{TargetSize: size, Overlap: overlap, Granularity: domain.GranularitySentence}
}

func contents(chunks []domain.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Content
	}
	return out
}

func TestSplitter_BlankText(t *testing.T) {
	s := NewSplitter()

	assert.Empty(t, s.Split("", sentencePolicy(100, 10)))
	assert.Empty(t, s.Split(" \n\n\t", sentencePolicy(100, 10)))
}

func TestSplitter_ShortTextIsOneChunk(t *testing.T) {
	text := "A short note."
	chunks := NewSplitter().Split(text, sentencePolicy(100, 10))

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, len(text), chunks[0].End)
	assert.Zero(t, chunks[0].Overlap)
}

func TestSplitter_SentenceModeWithoutOverlap(t *testing.T) {
	text := "aaaa. bbbb. cccc. dddd."
	chunks := NewSplitter().Split(text, sentencePolicy(12, 0))

	assert.Equal(t, []string{"aaaa. bbbb.", " cccc. dddd."}, contents(chunks))
	assert.Equal(t, text, strings.Join(contents(chunks), ""))
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.LessOrEqual(t, c.Len(), 12)
	}
}

func TestSplitter_SentenceModeWithOverlap(t *testing.T) {
	text := "aaaa. bbbb. cccc. dddd."
	chunks := NewSplitter().Split(text, sentencePolicy(12, 6))

	assert.Equal(t, []string{"aaaa. bbbb.", " bbbb. cccc.", " cccc. dddd."}, contents(chunks))
	require.Len(t, chunks, 3)
	assert.Zero(t, chunks[0].Overlap)
	assert.Equal(t, 6, chunks[1].Overlap)
	assert.Equal(t, 6, chunks[2].Overlap)
	for _, c := range chunks {
		assert.LessOrEqual(t, c.Len(), 12)
		assert.Equal(t, c.Content, string([]rune(text)[c.Start:c.End]))
	}
}

func TestSplitter_CJKSentences(t *testing.T) {
	chunks := NewSplitter().Split("第一句。第二句。第三句。", sentencePolicy(8, 0))

	assert.Equal(t, []string{"第一句。第二句。", "第三句。"}, contents(chunks))
	assert.Equal(t, 8, chunks[1].Start)
	assert.Equal(t, 12, chunks[1].End)
}

func TestSplitter_UnbreakableWordStaysWhole(t *testing.T) {
	chunks := NewSplitter().Split("abcdefghij", sentencePolicy(5, 0))

	assert.Equal(t, []string{"abcdefghij"}, contents(chunks))
}

func TestSplitter_ParagraphMode(t *testing.T) {
	policy := domain.ChunkingPolicy{TargetSize: 20, Overlap: 5, Granularity: domain.GranularityParagraph}
	text := "P1 text\n\nP2 text\n\nP3 text"

	chunks := NewSplitter().Split(text, policy)

	assert.Equal(t, []string{"P1 text\n\nP2 text\n\n", "P3 text"}, contents(chunks))
	assert.Equal(t, text, strings.Join(contents(chunks), ""))
	assert.Zero(t, chunks[1].Overlap)
}

func TestSplitter_ParagraphIsNeverSplit(t *testing.T) {
	policy := domain.ChunkingPolicy{TargetSize: 10, Overlap: 0, Granularity: domain.GranularityParagraph}
	long := strings.Repeat("x", 50)

	chunks := NewSplitter().Split(long+"\n\nshort", policy)

	assert.Equal(t, []string{long + "\n\n", "short"}, contents(chunks))
}

func TestSplitter_CodeMode(t *testing.T) {
	policy := domain.ChunkingPolicy{TargetSize: 1000, Overlap: 0, Granularity: domain.GranularityCode}
	text := "Intro text.\n\n```\ncode\n```\n\nOutro."

	chunks := NewSplitter().Split(text, policy)

	assert.Equal(t, []string{"Intro text.\n\n", "```\ncode\n```", "\n\nOutro."}, contents(chunks))
	assert.Equal(t, text, strings.Join(contents(chunks), ""))
}

func TestSplitter_CodeBlockLargerThanSizeIsKept(t *testing.T) {
	policy := domain.ChunkingPolicy{TargetSize: 5, Overlap: 0, Granularity: domain.GranularityCode}
	block := "```\n" + strings.Repeat("y", 40) + "\n```"

	chunks := NewSplitter().Split(block, policy)

	assert.Equal(t, []string{block}, contents(chunks))
}

func TestSplitter_OffsetsAreRuneBased(t *testing.T) {
	text := "é. ü. ö."
	chunks := NewSplitter().Split(text, sentencePolicy(3, 0))

	runes := []rune(text)
	for _, c := range chunks {
		assert.Equal(t, c.Content, string(runes[c.Start:c.End]))
	}
	assert.Equal(t, len(runes), chunks[len(chunks)-1].End)
}

func splitterInputs() []string {
	return []string{
		"aaaa. bbbb. cccc. dddd.",
		"One sentence here. Another one follows! Does a third? Yes.\n\nA new paragraph starts. It ends.",
		"第一句。第二句很长很长很长。第三句！第四句？最后一句。",
		"Mixed 中文。And English. 再来一句。Done.",
		"Para one.\n\n\n\n\nPara two after a run of blank lines.\n  \n\nPara three.",
		"Intro text.\n\n```go\nfunc main() {\n\tprintln(1)\n}\n```\n\nMiddle.\n\n```\nraw\n```\nOutro.",
		"Short. " + strings.Repeat("x", 80) + " tail words follow. End.",
		strings.Repeat("word ", 60) + "stop.",
	}
}

func reconstruct(chunks []domain.Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(string([]rune(c.Content)[c.Overlap:]))
	}
	return b.String()
}

func TestSplitter_ReconstructsTextWithoutOverlap(t *testing.T) {
	s := NewSplitter()
	policies := []domain.ChunkingPolicy{
		sentencePolicy(10, 4),
		sentencePolicy(25, 10),
		sentencePolicy(7, 0),
		{TargetSize: 20, Overlap: 5, Granularity: domain.GranularityParagraph},
		{TargetSize: 15, Overlap: 0, Granularity: domain.GranularityCode},
		{TargetSize: 40, Overlap: 10, Granularity: domain.GranularityCode},
	}

	for _, text := range splitterInputs() {
		for _, policy := range policies {
			chunks := s.Split(text, policy)

			assert.Equal(t, text, reconstruct(chunks), "policy %+v", policy)
			for i, c := range chunks {
				assert.Equal(t, i, c.Index)
				assert.Equal(t, c.Content, string([]rune(text)[c.Start:c.End]))
				assert.LessOrEqual(t, c.Overlap, policy.Overlap)
				if i > 0 {
					assert.Equal(t, chunks[i-1].End, c.Start+c.Overlap)
				}
			}
		}
	}
}

func TestSplitter_SplitIsIdempotent(t *testing.T) {
	s := NewSplitter()

	for _, text := range splitterInputs() {
		for _, granularity := range []domain.Granularity{
			domain.GranularitySentence, domain.GranularityParagraph, domain.GranularityCode,
		} {
			policy := domain.ChunkingPolicy{TargetSize: 12, Overlap: 4, Granularity: granularity}

			assert.Equal(t, s.Split(text, policy), s.Split(text, policy))
		}
	}
}
