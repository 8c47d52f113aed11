package retriever

import (
	"math"
	"sort"

	"docshelf/internal/domain"
	"docshelf/internal/port"
)

// TFIDFScorer ranks chunks by cosine similarity between TF-IDF weighted
// term vectors. Candidates are drawn from the posting lists of the query
// terms, so chunks sharing no term with the query are never visited.
//
// All accumulation loops run over sorted terms and sorted posting lists.
// Floating point addition order is part of the determinism contract:
// identical corpus and query must produce bit-identical scores.
type TFIDFScorer struct {
	index     port.Index
	tokenizer port.Tokenizer
	rawTF     bool
}

// NewTFIDFScorer creates a cosine TF-IDF scorer. With rawTF set, term
// weights use raw occurrence counts instead of counts divided by the
// chunk's token total.
func NewTFIDFScorer(index port.Index, tokenizer port.Tokenizer, rawTF bool) *TFIDFScorer {
	return &TFIDFScorer{index: index, tokenizer: tokenizer, rawTF: rawTF}
}

func (s *TFIDFScorer) Score(query string, k int, filter port.DocumentFilter) ([]domain.ScoredChunk, error) {
	queryFreqs, queryLen := s.tokenizer.TermFrequencies(query)
	if len(queryFreqs) == 0 {
		return nil, nil
	}

	stats := s.index.Stats()
	if stats.TotalChunks == 0 {
		return nil, nil
	}

	// Terms missing from the corpus carry zero weight, so the query
	// vector is built only from terms that have a posting list.
	terms := make([]string, 0, len(queryFreqs))
	for term := range queryFreqs {
		if s.index.DocFreq(term) > 0 {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return nil, nil
	}
	sort.Strings(terms)

	dots := make(map[string]float64)
	var queryNorm float64
	for _, term := range terms {
		idf := s.idf(term, stats.TotalChunks)
		qw := s.weight(queryFreqs[term], queryLen, idf)
		queryNorm += qw * qw

		for _, posting := range s.index.Postings(term) {
			chunk, ok := s.index.Chunk(posting.ChunkID)
			if !ok {
				continue
			}
			if filter != nil && !filter(chunk.DocID) {
				continue
			}
			dots[posting.ChunkID] += qw * s.weight(posting.TF, chunk.TokenCount, idf)
		}
	}
	queryNorm = math.Sqrt(queryNorm)

	ids := make([]string, 0, len(dots))
	for id := range dots {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([]domain.ScoredChunk, 0, len(ids))
	for _, id := range ids {
		chunk, ok := s.index.Chunk(id)
		if !ok {
			continue
		}
		norm := s.chunkNorm(chunk, stats.TotalChunks)
		if norm == 0 {
			continue
		}
		results = append(results, domain.ScoredChunk{
			Chunk: chunk,
			Score: dots[id] / (queryNorm * norm),
		})
	}

	sortRanked(results)
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *TFIDFScorer) weight(tf, tokenTotal int, idf float64) float64 {
	if s.rawTF || tokenTotal == 0 {
		return float64(tf) * idf
	}
	return float64(tf) / float64(tokenTotal) * idf
}

// idf is the smoothed inverse document frequency ln((1+N)/(1+df)) + 1.
// It stays positive even for terms present in every chunk.
func (s *TFIDFScorer) idf(term string, totalChunks int) float64 {
	df := s.index.DocFreq(term)
	if df < 1 {
		df = 1
	}
	return math.Log(float64(1+totalChunks)/float64(1+df)) + 1
}

// chunkNorm is the Euclidean norm of the chunk's full weight vector,
// including terms the query never mentions.
func (s *TFIDFScorer) chunkNorm(chunk domain.Chunk, totalChunks int) float64 {
	terms := make([]string, 0, len(chunk.TermFreqs))
	for term := range chunk.TermFreqs {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	var sum float64
	for _, term := range terms {
		w := s.weight(chunk.TermFreqs[term], chunk.TokenCount, s.idf(term, totalChunks))
		sum += w * w
	}
	return math.Sqrt(sum)
}

// sortRanked orders results by score descending, breaking ties by document
// ID and then by start offset. Equal scores always list in the same order.
func sortRanked(results []domain.ScoredChunk) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Chunk.DocID != results[j].Chunk.DocID {
			return results[i].Chunk.DocID < results[j].Chunk.DocID
		}
		return results[i].Chunk.StartOffset < results[j].Chunk.StartOffset
	})
}
