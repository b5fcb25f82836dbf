package service

import (
	"unicode"

	"github.com/cloo-solutions/studyrag/internal/domain"
)

// SentenceSeparators is the priority list used by sentence granularity.
// The trailing empty separator means the remaining span cannot be split.
var SentenceSeparators = []string{"\n\n", "\n", "。", "！", "？", ".", "!", "?", " ", ""}

// span is a half-open rune range [start, end) in the source text.
type span struct {
	start, end int
}

func (s span) len() int { return s.end - s.start }

// Splitter cuts text into chunks according to a ChunkingPolicy.
// All lengths are measured in runes. It is stateless.
type Splitter struct {
	separators [][]rune
}

func NewSplitter() *Splitter {
	seps := make([][]rune, len(SentenceSeparators))
	for i, sep := range SentenceSeparators {
		seps[i] = []rune(sep)
	}
	return &Splitter{separators: seps}
}

// Split returns the ordered chunks for text. Blank text yields no chunks.
func (s *Splitter) Split(text string, policy domain.ChunkingPolicy) []domain.Chunk {
	runes := []rune(text)
	if trimmedLen(runes) == 0 {
		return []domain.Chunk{}
	}

	size := policy.TargetSize
	if size < 1 {
		size = 1
	}
	overlap := policy.Overlap
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	var spans []span
	switch policy.Granularity {
	case domain.GranularityParagraph:
		spans = accumulateParagraphs(runes, span{0, len(runes)}, size)
	case domain.GranularityCode:
		spans = splitCode(runes, size)
	default:
		spans = s.splitRecursive(runes, span{0, len(runes)}, s.separators, size, overlap)
	}

	return toChunks(runes, absorbBlank(runes, spans))
}

// splitRecursive splits on the first separator present in the span,
// keeping each separator at the end of the piece before it. Pieces larger
// than size are split again with the finer separators that follow.
func (s *Splitter) splitRecursive(runes []rune, within span, seps [][]rune, size, overlap int) []span {
	chosen := -1
	for i, sep := range seps {
		if len(sep) == 0 || indexRunes(runes, sep, within.start, within.end) >= 0 {
			chosen = i
			break
		}
	}
	if chosen < 0 || len(seps[chosen]) == 0 {
		return []span{within}
	}

	sep := seps[chosen]
	finer := seps[chosen+1:]

	var pieces []span
	start := within.start
	for start < within.end {
		idx := indexRunes(runes, sep, start, within.end)
		if idx < 0 {
			pieces = append(pieces, span{start, within.end})
			break
		}
		pieces = append(pieces, span{start, idx + len(sep)})
		start = idx + len(sep)
	}

	var out, pending []span
	for _, piece := range pieces {
		if piece.len() <= size {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			out = append(out, mergePieces(pending, size, overlap)...)
			pending = nil
		}
		if len(finer) == 0 {
			out = append(out, piece)
			continue
		}
		out = append(out, s.splitRecursive(runes, piece, finer, size, overlap)...)
	}
	if len(pending) > 0 {
		out = append(out, mergePieces(pending, size, overlap)...)
	}
	return out
}

// mergePieces packs contiguous pieces into chunks of at most size runes.
// Each new chunk reopens with whole trailing pieces of the previous one
// totalling no more than overlap runes.
func mergePieces(pieces []span, size, overlap int) []span {
	var out []span
	var current []span
	total := 0

	for _, piece := range pieces {
		l := piece.len()
		if len(current) > 0 && total+l > size {
			out = append(out, span{current[0].start, current[len(current)-1].end})
			for len(current) > 0 && (total > overlap || (total+l > size && total > 0)) {
				total -= current[0].len()
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += l
	}
	if len(current) > 0 {
		out = append(out, span{current[0].start, current[len(current)-1].end})
	}
	return out
}

// accumulateParagraphs groups whole paragraphs until the next one would
// push the chunk past size. A paragraph is never split, and each chunk
// keeps the separator that follows its last paragraph.
func accumulateParagraphs(runes []rune, within span, size int) []span {
	var out []span
	chunkStart, contentStart := -1, -1

	for _, piece := range paragraphPieces(runes, within) {
		first, last := contentBounds(runes, piece)
		if first < 0 {
			if chunkStart < 0 {
				chunkStart = piece.start
			}
			continue
		}
		if contentStart >= 0 && last-contentStart > size {
			out = append(out, span{chunkStart, piece.start})
			chunkStart, contentStart = -1, -1
		}
		if chunkStart < 0 {
			chunkStart = piece.start
		}
		if contentStart < 0 {
			contentStart = first
		}
	}
	if chunkStart >= 0 {
		out = append(out, span{chunkStart, within.end})
	}
	return out
}

// splitCode emits each fenced block as its own chunk and accumulates the
// text between blocks by paragraph.
func splitCode(runes []rune, size int) []span {
	text := string(runes)
	offsets := byteToRuneOffsets(text)

	var out []span
	cursor := 0
	for _, loc := range codeBlockPattern.FindAllStringIndex(text, -1) {
		block := span{offsets[loc[0]], offsets[loc[1]]}
		if block.start > cursor {
			out = append(out, accumulateParagraphs(runes, span{cursor, block.start}, size)...)
		}
		out = append(out, block)
		cursor = block.end
	}
	if cursor < len(runes) {
		out = append(out, accumulateParagraphs(runes, span{cursor, len(runes)}, size)...)
	}
	return out
}

// paragraphPieces cuts a span at blank-line boundaries. Each piece carries
// the blank-line separator that follows it.
func paragraphPieces(runes []rune, within span) []span {
	text := string(runes[within.start:within.end])
	offsets := byteToRuneOffsets(text)

	var pieces []span
	start := within.start
	for _, loc := range paragraphBreakPattern.FindAllStringIndex(text, -1) {
		end := within.start + offsets[loc[1]]
		if end > start {
			pieces = append(pieces, span{start, end})
		}
		start = end
	}
	if start < within.end {
		pieces = append(pieces, span{start, within.end})
	}
	return pieces
}

// absorbBlank folds whitespace-only spans into the preceding span, or into
// the following one when nothing precedes them, so no data is dropped.
func absorbBlank(runes []rune, spans []span) []span {
	out := make([]span, 0, len(spans))
	carry := -1
	for _, sp := range spans {
		if first, _ := contentBounds(runes, sp); first < 0 {
			if len(out) > 0 {
				last := &out[len(out)-1]
				last.end = max(last.end, sp.end)
			} else if carry < 0 || sp.start < carry {
				carry = sp.start
			}
			continue
		}
		if carry >= 0 {
			sp.start = min(sp.start, carry)
			carry = -1
		}
		out = append(out, sp)
	}
	return out
}

func toChunks(runes []rune, spans []span) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(spans))
	prevEnd := 0
	for i, sp := range spans {
		overlap := 0
		if i > 0 && prevEnd > sp.start {
			overlap = prevEnd - sp.start
		}
		chunks = append(chunks, domain.Chunk{
			Index:   i,
			Content: string(runes[sp.start:sp.end]),
			Start:   sp.start,
			End:     sp.end,
			Overlap: overlap,
		})
		prevEnd = sp.end
	}
	return chunks
}

// contentBounds returns the first and one-past-last non-space rune
// positions in the span, or -1, -1 when it is blank.
func contentBounds(runes []rune, sp span) (int, int) {
	first, last := sp.start, sp.end
	for first < last && unicode.IsSpace(runes[first]) {
		first++
	}
	for last > first && unicode.IsSpace(runes[last-1]) {
		last--
	}
	if first == last {
		return -1, -1
	}
	return first, last
}

func indexRunes(runes, sep []rune, from, to int) int {
	n := len(sep)
	for i := from; i+n <= to; i++ {
		match := true
		for j := 0; j < n; j++ {
			if runes[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// byteToRuneOffsets maps each rune-start byte offset of s, and len(s), to
// its rune offset. Regexp matches always fall on rune boundaries.
func byteToRuneOffsets(s string) []int {
	offsets := make([]int, len(s)+1)
	r := 0
	for i := range s {
		offsets[i] = r
		r++
	}
	offsets[len(s)] = r
	return offsets
}
