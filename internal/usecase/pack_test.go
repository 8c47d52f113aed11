package usecase

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docshelf/internal/domain"
)

func packPassage(docID string, start int, text string, score float64) domain.RankedPassage {
	return domain.RankedPassage{
		Chunk: domain.Chunk{
			ID:          fmt.Sprintf("%s#%d", docID, start),
			DocID:       docID,
			StartOffset: start,
			EndOffset:   start + len(text),
			Text:        text,
		},
		Document: domain.Document{ID: docID, Title: docID + ".txt"},
		Score:    score,
	}
}

func TestPackRespectsBudget(t *testing.T) {
	p := NewContextPacker()

	passages := []domain.RankedPassage{
		packPassage("doc-a", 0, "alpha passage with thirty chars!!", 1.0),
		packPassage("doc-b", 0, "beta is a deliberately padded passage of roughly sixty chars!", 0.8),
		packPassage("doc-c", 0, "17 chars exactly!", 0.6),
	}

	packed, err := p.Pack("test query", passages, 40)
	require.NoError(t, err)

	assert.Equal(t, 40, packed.BudgetChars)
	assert.LessOrEqual(t, packed.UsedChars, 40)
	require.Len(t, packed.Sources, 1)
	assert.Equal(t, "17 chars exactly!", packed.Sources[0].Text, "score per char should win under a tight budget")

	packed, err = p.Pack("test query", passages, 1000)
	require.NoError(t, err)
	require.Len(t, packed.Sources, 3)
	assert.Equal(t, "doc-a", packed.Sources[0].DocID, "large budget orders sources by score")
	assert.Equal(t, "doc-b", packed.Sources[1].DocID)
	assert.Equal(t, "doc-c", packed.Sources[2].DocID)
}

func TestPackEmptyPassages(t *testing.T) {
	p := NewContextPacker()

	packed, err := p.Pack("test query", nil, 1000)
	require.NoError(t, err)

	assert.Zero(t, packed.UsedChars)
	assert.NotNil(t, packed.Sources)
	assert.Empty(t, packed.Sources)
}

func TestPackRejectsNonPositiveBudget(t *testing.T) {
	p := NewContextPacker()

	_, err := p.Pack("q", nil, 0)
	require.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = p.Pack("q", nil, -5)
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestPackMergesOverlappingPassages(t *testing.T) {
	p := NewContextPacker()

	passages := []domain.RankedPassage{
		packPassage("doc-1", 0, "abcdefghij", 0.9),
		packPassage("doc-1", 5, "fghijklmno", 0.7),
		packPassage("doc-2", 50, "zzz", 0.5),
	}

	packed, err := p.Pack("q", passages, 1000)
	require.NoError(t, err)

	require.Len(t, packed.Sources, 2)
	assert.Equal(t, "abcdefghijklmno", packed.Sources[0].Text, "overlap is stitched without duplication")
	assert.Equal(t, "chars 0-15", packed.Sources[0].Range)
	assert.Equal(t, 0.9, packed.Sources[0].Score, "merged block keeps the best score")
	assert.Equal(t, "zzz", packed.Sources[1].Text)
}

func TestPackAbsorbsContainedPassage(t *testing.T) {
	p := NewContextPacker()

	passages := []domain.RankedPassage{
		packPassage("doc-1", 0, "the quick brown fox jumps", 0.4),
		packPassage("doc-1", 4, "quick brown", 0.8),
	}

	packed, err := p.Pack("q", passages, 1000)
	require.NoError(t, err)

	require.Len(t, packed.Sources, 1)
	assert.Equal(t, "the quick brown fox jumps", packed.Sources[0].Text)
	assert.Equal(t, 0.8, packed.Sources[0].Score)
}

func TestPackUsedCharsCountsMergedText(t *testing.T) {
	p := NewContextPacker()

	passages := []domain.RankedPassage{
		packPassage("doc-1", 0, "abcdefghij", 0.9),
		packPassage("doc-1", 10, "klmnopqrst", 0.9),
	}

	packed, err := p.Pack("q", passages, 1000)
	require.NoError(t, err)

	require.Len(t, packed.Sources, 1)
	assert.Equal(t, "abcdefghijklmnopqrst", packed.Sources[0].Text)
	assert.Equal(t, 20, packed.UsedChars)
}
