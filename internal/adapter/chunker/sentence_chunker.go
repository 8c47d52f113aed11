package chunker

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"docshelf/internal/domain"
)

// SentenceChunker splits raw text into overlapping passages of at most size
// characters. Cuts prefer sentence ends, then whitespace, then a hard cut.
// Overlap is applied only on non-sentence cuts: a chunk that ends on a
// sentence boundary is semantically complete, so the next chunk starts right
// after it instead of rewinding into the finished sentence.
type SentenceChunker struct {
	size     int
	overlap  int
	minChunk int
}

// NewSentenceChunker validates the chunking parameters up front. A zero
// minChunk defaults to size/8.
func NewSentenceChunker(size, overlap, minChunk int) (*SentenceChunker, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfig, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must not be negative, got %d", domain.ErrInvalidConfig, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", domain.ErrInvalidConfig, overlap, size)
	}
	if minChunk == 0 {
		minChunk = size / 8
	}
	if minChunk < 0 || minChunk >= size-overlap {
		return nil, fmt.Errorf("%w: min chunk %d must be in [0, size-overlap)", domain.ErrInvalidConfig, minChunk)
	}
	return &SentenceChunker{size: size, overlap: overlap, minChunk: minChunk}, nil
}

// Chunk splits text into chunks with half-open [StartOffset, EndOffset)
// byte ranges. Chunk texts are exact slices of the input, offsets are
// strictly increasing, and adjacent chunks either overlap or are separated
// only by boundary whitespace. Chunk IDs are "<docID>#<index>" and depend
// only on the input text and the chunker parameters.
func (c *SentenceChunker) Chunk(doc domain.Document, text string) ([]domain.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	n := len(text)
	var chunks []domain.Chunk
	start := 0

	for start < n {
		// Fresh content past the previous chunk, ignoring any rewound
		// overlap region.
		covered := start
		if len(chunks) > 0 && chunks[len(chunks)-1].EndOffset > covered {
			covered = chunks[len(chunks)-1].EndOffset
		}

		if n-start <= c.size-c.overlap {
			if len(chunks) > 0 && n-covered < c.minChunk {
				last := &chunks[len(chunks)-1]
				last.EndOffset = n
				last.Text = text[last.StartOffset:n]
			} else {
				chunks = append(chunks, domain.Chunk{
					DocID:       doc.ID,
					StartOffset: start,
					EndOffset:   n,
					Text:        text[start:n],
				})
			}
			break
		}

		cut, atSentence := c.findCut(text, start)
		chunks = append(chunks, domain.Chunk{
			DocID:       doc.ID,
			StartOffset: start,
			EndOffset:   cut,
			Text:        text[start:cut],
		})
		start = c.nextStart(text, start, cut, atSentence)
	}

	for i := range chunks {
		chunks[i].ID = fmt.Sprintf("%s#%d", doc.ID, i)
	}
	return chunks, nil
}

// findCut picks the end of the chunk starting at start. Only called when
// more than one chunk of content remains.
func (c *SentenceChunker) findCut(text string, start int) (int, bool) {
	n := len(text)
	floor := start + c.minChunk
	budget := start + c.size - c.overlap
	if budget > n {
		budget = n
	}

	if cut := lastSentenceEnd(text, floor, budget); cut > 0 {
		return cut, true
	}

	hard := start + c.size
	if hard > n {
		hard = n
	}
	if cut := lastWhitespace(text, floor, hard); cut > 0 {
		return cut, false
	}

	// Hard cut, kept on a rune boundary.
	for hard < n && hard > start+1 && !utf8.RuneStart(text[hard]) {
		hard--
	}
	return hard, false
}

func (c *SentenceChunker) nextStart(text string, start, cut int, atSentence bool) int {
	n := len(text)
	if atSentence {
		next := cut
		for next < n {
			r, w := utf8.DecodeRuneInString(text[next:])
			if !unicode.IsSpace(r) {
				break
			}
			next += w
		}
		return next
	}

	next := cut - c.overlap
	for next > start && !utf8.RuneStart(text[next]) {
		next--
	}
	if next <= start {
		return cut
	}
	// Widen to the start of the word containing the rewind position so the
	// overlap region does not open mid-word and distort term statistics.
	aligned := next
	for aligned > start && !isWordStart(text, aligned) {
		aligned--
	}
	if aligned > start {
		return aligned
	}
	return next
}

// lastSentenceEnd returns the largest offset in (floor, ceil] that sits just
// after a sentence terminator followed by whitespace or end of text, or 0.
func lastSentenceEnd(text string, floor, ceil int) int {
	best := 0
	for i := floor; i < ceil; i++ {
		ch := text[i]
		if ch != '.' && ch != '!' && ch != '?' {
			continue
		}
		end := i + 1
		for end < len(text) && (text[end] == '"' || text[end] == '\'' || text[end] == ')') {
			end++
		}
		if end < len(text) {
			r, _ := utf8.DecodeRuneInString(text[end:])
			if !unicode.IsSpace(r) {
				continue
			}
		}
		if end > floor && end <= ceil {
			best = end
		}
	}
	return best
}

// lastWhitespace returns the start of the last whitespace run in
// (floor, ceil), or 0.
func lastWhitespace(text string, floor, ceil int) int {
	if ceil > len(text) {
		ceil = len(text)
	}
	for i := ceil - 1; i > floor; i-- {
		if !utf8.RuneStart(text[i]) {
			continue
		}
		r, _ := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			return i
		}
	}
	return 0
}

func isWordStart(text string, i int) bool {
	if i == 0 {
		return true
	}
	if !utf8.RuneStart(text[i]) {
		return false
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:i])
	return unicode.IsSpace(prev)
}
