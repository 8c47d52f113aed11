package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docshelf/internal/domain"
)

func passagesFor(chunkID string, score float64) []domain.RankedPassage {
	return []domain.RankedPassage{
		{
			Chunk:    domain.Chunk{ID: chunkID, DocID: "doc-1"},
			Document: domain.Document{ID: "doc-1", Title: "Doc"},
			Score:    score,
		},
	}
}

func TestCacheHitAndMiss(t *testing.T) {
	c := NewQueryCache(10, time.Minute)

	stored := passagesFor("doc-1#0", 0.9)
	c.Put("solar panels", 5, nil, 1, stored)

	got, hit := c.Get("solar panels", 5, nil, 1)
	require.True(t, hit)
	assert.Equal(t, stored, got)

	_, hit = c.Get("solar panels", 3, nil, 1)
	assert.False(t, hit, "different topK must miss")

	_, hit = c.Get("wind turbines", 5, nil, 1)
	assert.False(t, hit, "different query must miss")

	_, hit = c.Get("solar panels", 5, []string{"doc-1"}, 1)
	assert.False(t, hit, "different filter set must miss")
}

func TestCacheDocIDOrderDoesNotMatter(t *testing.T) {
	c := NewQueryCache(10, time.Minute)

	c.Put("q", 5, []string{"doc-b", "doc-a"}, 1, passagesFor("doc-a#0", 0.5))

	_, hit := c.Get("q", 5, []string{"doc-a", "doc-b"}, 1)
	assert.True(t, hit)
}

func TestCacheGenerationMismatchDropsEntry(t *testing.T) {
	c := NewQueryCache(10, time.Minute)

	c.Put("q", 5, nil, 1, passagesFor("doc-1#0", 0.5))
	require.Equal(t, 1, c.Size())

	_, hit := c.Get("q", 5, nil, 2)
	assert.False(t, hit)
	assert.Equal(t, 0, c.Size(), "stale entry should be evicted")
}

func TestCacheTTLExpiry(t *testing.T) {
	c := NewQueryCache(10, 30*time.Millisecond)

	c.Put("q", 5, nil, 1, passagesFor("doc-1#0", 0.5))
	time.Sleep(50 * time.Millisecond)

	_, hit := c.Get("q", 5, nil, 1)
	assert.False(t, hit)
	assert.Equal(t, 0, c.Size())
}

func TestCacheEvictsOldestWhenFull(t *testing.T) {
	c := NewQueryCache(2, time.Minute)

	c.Put("first", 5, nil, 1, passagesFor("a#0", 0.1))
	c.Put("second", 5, nil, 1, passagesFor("b#0", 0.2))
	c.Put("third", 5, nil, 1, passagesFor("c#0", 0.3))

	assert.Equal(t, 2, c.Size())
	_, hit := c.Get("first", 5, nil, 1)
	assert.False(t, hit)
	_, hit = c.Get("third", 5, nil, 1)
	assert.True(t, hit)
}

func TestCacheGetRefreshesRecency(t *testing.T) {
	c := NewQueryCache(2, time.Minute)

	c.Put("first", 5, nil, 1, passagesFor("a#0", 0.1))
	c.Put("second", 5, nil, 1, passagesFor("b#0", 0.2))

	_, hit := c.Get("first", 5, nil, 1)
	require.True(t, hit)

	c.Put("third", 5, nil, 1, passagesFor("c#0", 0.3))

	_, hit = c.Get("first", 5, nil, 1)
	assert.True(t, hit, "recently read entry should survive eviction")
	_, hit = c.Get("second", 5, nil, 1)
	assert.False(t, hit)
}

func TestCacheInvalidate(t *testing.T) {
	c := NewQueryCache(10, time.Minute)

	c.Put("q", 5, nil, 1, passagesFor("a#0", 0.1))
	c.Put("r", 5, nil, 1, passagesFor("b#0", 0.2))
	require.Equal(t, 2, c.Size())

	c.Invalidate()
	assert.Equal(t, 0, c.Size())

	_, hit := c.Get("q", 5, nil, 1)
	assert.False(t, hit)
}
