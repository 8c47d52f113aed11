package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"docshelf/internal/domain"
)

// QueryCache memoizes retrieval results keyed on the query text, the
// requested result count and the document filter set. Each entry records
// the index generation it was computed against, so any index mutation
// turns the whole cache stale without a scan.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
}

type cacheEntry struct {
	passages  []domain.RankedPassage
	timestamp time.Time
	indexGen  uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// cacheKey hashes the query, the result count and the sorted document ID
// set. The docID order the caller passes does not matter.
func cacheKey(query string, topK int, docIDs []string) string {
	h := sha256.New()
	h.Write([]byte(query))

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(topK))
	h.Write(buf[:])

	if len(docIDs) > 0 {
		sorted := make([]string, len(docIDs))
		copy(sorted, docIDs)
		sort.Strings(sorted)
		for _, id := range sorted {
			h.Write([]byte{0})
			h.Write([]byte(id))
		}
	}

	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}

// Get returns the cached passages for the key if they are fresh and were
// computed against the given index generation. Stale entries are dropped
// on the way out.
func (c *QueryCache) Get(query string, topK int, docIDs []string, indexGen uint64) ([]domain.RankedPassage, bool) {
	key := cacheKey(query, topK, docIDs)

	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Since(entry.timestamp) > c.ttl || entry.indexGen != indexGen {
		c.mu.Lock()
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.moveToEnd(key)
	c.mu.Unlock()

	return entry.passages, true
}

func (c *QueryCache) Put(query string, topK int, docIDs []string, indexGen uint64, passages []domain.RankedPassage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, topK, docIDs)

	if _, exists := c.entries[key]; exists {
		c.entries[key] = &cacheEntry{
			passages:  passages,
			timestamp: time.Now(),
			indexGen:  indexGen,
		}
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = &cacheEntry{
		passages:  passages,
		timestamp: time.Now(),
		indexGen:  indexGen,
	}
	c.order = append(c.order, key)
}

// Invalidate drops every entry. Generation checks already fence off
// stale results; this is for explicit operator resets.
func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
}

func (c *QueryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *QueryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
