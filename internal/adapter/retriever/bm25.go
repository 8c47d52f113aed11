package retriever

import (
	"math"
	"sort"

	"docshelf/internal/domain"
	"docshelf/internal/port"
)

const (
	DefaultBM25K1 = 1.2
	DefaultBM25B  = 0.75
)

// BM25Scorer ranks chunks with the Okapi BM25 formula. It shares the
// candidate discipline, tie-break and determinism guarantees of
// TFIDFScorer but weighs term saturation and chunk length instead of
// cosine angle.
type BM25Scorer struct {
	index     port.Index
	tokenizer port.Tokenizer
	k1        float64
	b         float64
}

func NewBM25Scorer(index port.Index, tokenizer port.Tokenizer, k1, b float64) *BM25Scorer {
	if k1 <= 0 {
		k1 = DefaultBM25K1
	}
	if b < 0 || b > 1 {
		b = DefaultBM25B
	}
	return &BM25Scorer{index: index, tokenizer: tokenizer, k1: k1, b: b}
}

func (s *BM25Scorer) Score(query string, k int, filter port.DocumentFilter) ([]domain.ScoredChunk, error) {
	queryFreqs, _ := s.tokenizer.TermFrequencies(query)
	if len(queryFreqs) == 0 {
		return nil, nil
	}

	stats := s.index.Stats()
	if stats.TotalChunks == 0 {
		return nil, nil
	}

	terms := make([]string, 0, len(queryFreqs))
	for term := range queryFreqs {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	scores := make(map[string]float64)
	for _, term := range terms {
		postings := s.index.Postings(term)
		if len(postings) == 0 {
			continue
		}

		n := float64(len(postings))
		N := float64(stats.TotalChunks)
		idf := math.Log((N-n+0.5)/(n+0.5) + 1)
		qtf := float64(queryFreqs[term])

		for _, posting := range postings {
			chunk, ok := s.index.Chunk(posting.ChunkID)
			if !ok {
				continue
			}
			if filter != nil && !filter(chunk.DocID) {
				continue
			}

			dl := float64(chunk.TokenCount)
			tf := float64(posting.TF)
			scores[posting.ChunkID] += qtf * idf * (tf * (s.k1 + 1)) / (tf + s.k1*(1-s.b+s.b*dl/stats.AvgChunkLen))
		}
	}

	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([]domain.ScoredChunk, 0, len(ids))
	for _, id := range ids {
		chunk, ok := s.index.Chunk(id)
		if !ok {
			continue
		}
		results = append(results, domain.ScoredChunk{Chunk: chunk, Score: scores[id]})
	}

	sortRanked(results)
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}
