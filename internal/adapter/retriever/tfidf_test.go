package retriever

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docshelf/internal/adapter/analyzer"
	"docshelf/internal/adapter/chunker"
	"docshelf/internal/adapter/index"
	"docshelf/internal/domain"
)

var testTokenizer = analyzer.NewTokenizer(true)

func indexedChunk(docID string, n int, text string) domain.Chunk {
	freqs, total := testTokenizer.TermFrequencies(text)
	return domain.Chunk{
		ID:          fmt.Sprintf("%s#%d", docID, n),
		DocID:       docID,
		StartOffset: 0,
		EndOffset:   len(text),
		Text:        text,
		TermFreqs:   freqs,
		TokenCount:  total,
	}
}

func buildIndex(t *testing.T, chunks ...domain.Chunk) *index.Inverted {
	t.Helper()
	ix := index.NewInverted()
	require.NoError(t, ix.Add(chunks))
	return ix
}

func TestTFIDFEqualProfilesScoreEqually(t *testing.T) {
	doc := domain.Document{ID: "animals-1a2b3c4d", Title: "animals.txt"}

	ck, err := chunker.NewSentenceChunker(40, 5, 0)
	require.NoError(t, err)
	chunks, err := ck.Chunk(doc, "Cats are mammals. Dogs are mammals too.")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	for i := range chunks {
		chunks[i].TermFreqs, chunks[i].TokenCount = testTokenizer.TermFrequencies(chunks[i].Text)
	}

	scorer := NewTFIDFScorer(buildIndex(t, chunks...), testTokenizer, false)
	results, err := scorer.Score("mammals", 2, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Greater(t, results[0].Score, 0.0)
	assert.Equal(t, results[0].Score, results[1].Score, "symmetric term profiles must score identically")

	// Equal scores fall back to start offset within the same document.
	assert.Equal(t, chunks[0].ID, results[0].Chunk.ID)
	assert.Equal(t, chunks[1].ID, results[1].Chunk.ID)
}

func TestTFIDFRanksHigherTermWeightFirst(t *testing.T) {
	ix := buildIndex(t,
		indexedChunk("a", 0, "solar panels convert sunlight"),
		indexedChunk("b", 0, "solar solar solar energy"),
		indexedChunk("c", 0, "wind turbines spin"),
	)

	scorer := NewTFIDFScorer(ix, testTokenizer, false)
	results, err := scorer.Score("solar", 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 2, "chunks without the term are not candidates")

	assert.Equal(t, "b#0", results[0].Chunk.ID)
	assert.Equal(t, "a#0", results[1].Chunk.ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestTFIDFUnknownTermsReturnNothing(t *testing.T) {
	ix := buildIndex(t, indexedChunk("a", 0, "hello world text"))
	scorer := NewTFIDFScorer(ix, testTokenizer, false)

	results, err := scorer.Score("xylophone", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestTFIDFEmptyQueryAndEmptyIndex(t *testing.T) {
	scorer := NewTFIDFScorer(index.NewInverted(), testTokenizer, false)

	results, err := scorer.Score("anything", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, results)

	ix := buildIndex(t, indexedChunk("a", 0, "hello world text"))
	scorer = NewTFIDFScorer(ix, testTokenizer, false)

	results, err = scorer.Score("the and of", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, results, "stopword-only query has no terms")
}

func TestTFIDFDocumentFilter(t *testing.T) {
	ix := buildIndex(t,
		indexedChunk("a", 0, "ocean waves crash loudly"),
		indexedChunk("b", 0, "ocean currents move heat"),
	)
	scorer := NewTFIDFScorer(ix, testTokenizer, false)

	onlyB := func(docID string) bool { return docID == "b" }
	results, err := scorer.Score("ocean", 10, onlyB)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b#0", results[0].Chunk.ID)

	none := func(string) bool { return false }
	results, err = scorer.Score("ocean", 10, none)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestTFIDFTieBreakAcrossDocuments(t *testing.T) {
	ix := buildIndex(t,
		indexedChunk("beta", 0, "ocean waves crash"),
		indexedChunk("alpha", 0, "ocean waves crash"),
	)
	scorer := NewTFIDFScorer(ix, testTokenizer, false)

	results, err := scorer.Score("ocean", 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, results[0].Score, results[1].Score)
	assert.Equal(t, "alpha", results[0].Chunk.DocID)
	assert.Equal(t, "beta", results[1].Chunk.DocID)
}

func TestTFIDFTruncatesToK(t *testing.T) {
	ix := buildIndex(t,
		indexedChunk("a", 0, "coffee beans roast slowly"),
		indexedChunk("b", 0, "coffee grounds brew fast"),
		indexedChunk("c", 0, "coffee cups stack high"),
	)
	scorer := NewTFIDFScorer(ix, testTokenizer, false)

	results, err := scorer.Score("coffee", 2, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = scorer.Score("coffee", 0, nil)
	require.NoError(t, err)
	assert.Len(t, results, 3, "k of zero means no truncation")
}

func TestTFIDFDeterministicScores(t *testing.T) {
	ix := buildIndex(t,
		indexedChunk("a", 0, "gardens need water and sunlight daily"),
		indexedChunk("a", 1, "water the garden before sunrise"),
		indexedChunk("b", 0, "sunlight drives photosynthesis in gardens"),
		indexedChunk("c", 0, "rainfall replaces manual water schedules"),
	)
	scorer := NewTFIDFScorer(ix, testTokenizer, false)

	first, err := scorer.Score("water sunlight gardens", 10, nil)
	require.NoError(t, err)
	second, err := scorer.Score("water sunlight gardens", 10, nil)
	require.NoError(t, err)

	require.Equal(t, first, second, "same corpus and query must reproduce identical scores")
}

func TestTFIDFRawAndNormalizedAgreeOnOrder(t *testing.T) {
	chunks := []domain.Chunk{
		indexedChunk("a", 0, "solar panels convert sunlight"),
		indexedChunk("b", 0, "solar solar solar energy"),
	}

	normalized := NewTFIDFScorer(buildIndex(t, chunks...), testTokenizer, false)
	raw := NewTFIDFScorer(buildIndex(t, chunks...), testTokenizer, true)

	nResults, err := normalized.Score("solar energy", 10, nil)
	require.NoError(t, err)
	rResults, err := raw.Score("solar energy", 10, nil)
	require.NoError(t, err)

	require.Len(t, nResults, len(rResults))
	for i := range nResults {
		assert.Equal(t, nResults[i].Chunk.ID, rResults[i].Chunk.ID)
	}
}
