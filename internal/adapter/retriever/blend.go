package retriever

import (
	"fmt"
	"sort"

	"docshelf/internal/domain"
	"docshelf/internal/port"
)

// BlendedScorer merges a TF-IDF cosine ranking with a BM25 ranking.
// Each list is normalized by its own maximum score and combined as a
// weighted sum, so the two scales stay comparable. Weight 1 reproduces
// the plain TF-IDF scores untouched and weight 0 the plain BM25 scores.
type BlendedScorer struct {
	tfidf  port.Scorer
	bm25   port.Scorer
	weight float64
}

// NewBlendedScorer creates a blended scorer. weight is the TF-IDF share
// of the combined score and must lie in [0, 1].
func NewBlendedScorer(tfidf, bm25 port.Scorer, weight float64) (*BlendedScorer, error) {
	if weight < 0 || weight > 1 {
		return nil, fmt.Errorf("%w: blend weight %v outside [0, 1]", domain.ErrInvalidConfig, weight)
	}
	return &BlendedScorer{tfidf: tfidf, bm25: bm25, weight: weight}, nil
}

func (s *BlendedScorer) Score(query string, k int, filter port.DocumentFilter) ([]domain.ScoredChunk, error) {
	return s.ScoreWeighted(query, k, filter, s.weight)
}

// ScoreWeighted blends with an explicit TF-IDF weight, overriding the
// configured one. Intent policies pick the weight per query.
func (s *BlendedScorer) ScoreWeighted(query string, k int, filter port.DocumentFilter, weight float64) ([]domain.ScoredChunk, error) {
	if weight >= 1 {
		return s.tfidf.Score(query, k, filter)
	}
	if weight <= 0 {
		return s.bm25.Score(query, k, filter)
	}

	// Widen the candidate pool before fusing so a chunk ranked just
	// outside k by one scorer can still surface in the blend.
	candidateK := 0
	if k > 0 {
		candidateK = k * 3
		if candidateK < 20 {
			candidateK = 20
		}
	}

	tfidfResults, err := s.tfidf.Score(query, candidateK, filter)
	if err != nil {
		return nil, err
	}
	bm25Results, err := s.bm25.Score(query, candidateK, filter)
	if err != nil {
		return nil, err
	}

	fused := fuse(tfidfResults, bm25Results, weight)
	if k > 0 && len(fused) > k {
		fused = fused[:k]
	}
	return fused, nil
}

// fuse combines two rankings as weight*normalized(a) + (1-weight)*normalized(b).
// A chunk present in only one list contributes zero for the other.
func fuse(a, b []domain.ScoredChunk, weight float64) []domain.ScoredChunk {
	combined := make(map[string]float64, len(a)+len(b))
	chunks := make(map[string]domain.Chunk, len(a)+len(b))

	maxA := maxScore(a)
	for _, r := range a {
		combined[r.Chunk.ID] += weight * r.Score / maxA
		chunks[r.Chunk.ID] = r.Chunk
	}

	maxB := maxScore(b)
	for _, r := range b {
		combined[r.Chunk.ID] += (1 - weight) * r.Score / maxB
		if _, ok := chunks[r.Chunk.ID]; !ok {
			chunks[r.Chunk.ID] = r.Chunk
		}
	}

	ids := make([]string, 0, len(combined))
	for id := range combined {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fused := make([]domain.ScoredChunk, 0, len(ids))
	for _, id := range ids {
		fused = append(fused, domain.ScoredChunk{Chunk: chunks[id], Score: combined[id]})
	}
	sortRanked(fused)
	return fused
}

func maxScore(results []domain.ScoredChunk) float64 {
	max := 0.0
	for _, r := range results {
		if r.Score > max {
			max = r.Score
		}
	}
	if max == 0 {
		return 1
	}
	return max
}
