package index

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"docshelf/internal/domain"
)

// Inverted is the in-memory inverted index. It is derived state, rebuilt
// from the persisted library on load; nothing here is written to disk.
//
// Posting lists are kept sorted by chunk ID so that an incrementally
// maintained index is deeply equal to one rebuilt from scratch over the
// same corpus, and so removal is the exact inverse of addition.
type Inverted struct {
	mu          sync.RWMutex
	chunks      map[string]domain.Chunk
	docChunks   map[string][]string
	postings    map[string][]domain.Posting
	docFreq     map[string]int
	totalTokens int
	generation  uint64
}

func NewInverted() *Inverted {
	return &Inverted{
		chunks:    make(map[string]domain.Chunk),
		docChunks: make(map[string][]string),
		postings:  make(map[string][]domain.Posting),
		docFreq:   make(map[string]int),
	}
}

// Add registers chunks incrementally. Chunks must carry their term
// frequencies; a chunk ID that is already indexed is rejected.
func (ix *Inverted) Add(chunks []domain.Chunk) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, ch := range chunks {
		if _, exists := ix.chunks[ch.ID]; exists {
			return fmt.Errorf("chunk already indexed: %s", ch.ID)
		}
	}
	for _, ch := range chunks {
		ix.addChunk(ch)
	}
	ix.generation++
	return nil
}

func (ix *Inverted) addChunk(ch domain.Chunk) {
	ix.chunks[ch.ID] = ch
	ix.docChunks[ch.DocID] = append(ix.docChunks[ch.DocID], ch.ID)
	ix.totalTokens += ch.TokenCount

	for term, tf := range ch.TermFreqs {
		ix.postings[term] = insertPosting(ix.postings[term], domain.Posting{ChunkID: ch.ID, TF: tf})
		ix.docFreq[term]++
	}
}

// RemoveDocument unindexes every chunk of the document, restoring the state
// that existed before the corresponding Add. Unknown documents are a no-op.
func (ix *Inverted) RemoveDocument(docID string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ids, ok := ix.docChunks[docID]
	if !ok {
		return nil
	}
	for _, id := range ids {
		ch, ok := ix.chunks[id]
		if !ok {
			continue
		}
		for term := range ch.TermFreqs {
			ix.postings[term] = removePosting(ix.postings[term], id)
			if len(ix.postings[term]) == 0 {
				delete(ix.postings, term)
				delete(ix.docFreq, term)
			} else {
				ix.docFreq[term]--
			}
		}
		ix.totalTokens -= ch.TokenCount
		delete(ix.chunks, id)
	}
	delete(ix.docChunks, docID)
	ix.generation++
	return nil
}

// Rebuild constructs a fresh index from chunks and swaps it in atomically.
// On error or cancellation the previous contents stay authoritative.
func (ix *Inverted) Rebuild(ctx context.Context, chunks []domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("rebuild aborted: %w", err)
	}

	fresh := NewInverted()
	seen := make(map[string]struct{}, len(chunks))

	for i, ch := range chunks {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("rebuild aborted: %w", err)
			}
		}
		if _, dup := seen[ch.ID]; dup {
			return fmt.Errorf("duplicate chunk in rebuild: %s", ch.ID)
		}
		seen[ch.ID] = struct{}{}
		fresh.addChunk(ch)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.chunks = fresh.chunks
	ix.docChunks = fresh.docChunks
	ix.postings = fresh.postings
	ix.docFreq = fresh.docFreq
	ix.totalTokens = fresh.totalTokens
	ix.generation++
	return nil
}

// Verify checks the structural invariants: document frequencies must equal
// posting list lengths, postings must reference live chunks, and the chunk
// total must match the per-document lists.
func (ix *Inverted) Verify() error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	for term, df := range ix.docFreq {
		if df != len(ix.postings[term]) {
			return fmt.Errorf("%w: term %q has df %d but %d postings",
				domain.ErrIndexInconsistency, term, df, len(ix.postings[term]))
		}
	}
	for term, list := range ix.postings {
		if _, ok := ix.docFreq[term]; !ok {
			return fmt.Errorf("%w: term %q has postings but no document frequency",
				domain.ErrIndexInconsistency, term)
		}
		for _, p := range list {
			if _, ok := ix.chunks[p.ChunkID]; !ok {
				return fmt.Errorf("%w: posting for %q references missing chunk %s",
					domain.ErrIndexInconsistency, term, p.ChunkID)
			}
		}
	}
	count := 0
	for _, ids := range ix.docChunks {
		count += len(ids)
	}
	if count != len(ix.chunks) {
		return fmt.Errorf("%w: %d chunks tracked by documents, %d indexed",
			domain.ErrIndexInconsistency, count, len(ix.chunks))
	}
	return nil
}

func (ix *Inverted) Postings(term string) []domain.Posting {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.postings[term]
}

func (ix *Inverted) DocFreq(term string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.docFreq[term]
}

func (ix *Inverted) Chunk(chunkID string) (domain.Chunk, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	ch, ok := ix.chunks[chunkID]
	return ch, ok
}

func (ix *Inverted) ChunkIDsByDoc(docID string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	ids := make([]string, len(ix.docChunks[docID]))
	copy(ids, ix.docChunks[docID])
	return ids
}

func (ix *Inverted) Stats() domain.Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	stats := domain.Stats{
		TotalDocs:   len(ix.docChunks),
		TotalChunks: len(ix.chunks),
		TotalTerms:  len(ix.docFreq),
	}
	if stats.TotalChunks > 0 {
		stats.AvgChunkLen = float64(ix.totalTokens) / float64(stats.TotalChunks)
	}
	return stats
}

func (ix *Inverted) Generation() uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.generation
}

func insertPosting(list []domain.Posting, p domain.Posting) []domain.Posting {
	i := sort.Search(len(list), func(i int) bool { return list[i].ChunkID >= p.ChunkID })
	list = append(list, domain.Posting{})
	copy(list[i+1:], list[i:])
	list[i] = p
	return list
}

func removePosting(list []domain.Posting, chunkID string) []domain.Posting {
	i := sort.Search(len(list), func(i int) bool { return list[i].ChunkID >= chunkID })
	if i >= len(list) || list[i].ChunkID != chunkID {
		return list
	}
	return append(list[:i], list[i+1:]...)
}
