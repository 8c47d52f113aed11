package retriever

import (
	"docshelf/internal/domain"
)

// MMRReranker applies Maximal Marginal Relevance to diversify a ranked
// list. Passage similarity is the Jaccard overlap of the chunks' term
// sets, which keeps reranking free of any extra model.
type MMRReranker struct {
	lambda       float64
	dedupJaccard float64
}

// NewMMRReranker creates a reranker. lambda balances relevance against
// novelty; candidates overlapping an already selected chunk by more than
// dedupJaccard are dropped outright.
func NewMMRReranker(lambda, dedupJaccard float64) *MMRReranker {
	return &MMRReranker{
		lambda:       lambda,
		dedupJaccard: dedupJaccard,
	}
}

// Rerank selects up to k chunks maximizing
// λ*relevance(c) - (1-λ)*max_similarity(c, selected).
// Candidates must arrive in ranked order; the selection walks them in
// that order, so output is deterministic for a deterministic input.
func (r *MMRReranker) Rerank(candidates []domain.ScoredChunk, k int) []domain.ScoredChunk {
	if len(candidates) == 0 {
		return nil
	}

	if k > len(candidates) || k <= 0 {
		k = len(candidates)
	}

	// Normalize relevance to [0, 1] so lambda weighs two comparable terms.
	maxScore := candidates[0].Score
	for _, c := range candidates {
		if c.Score > maxScore {
			maxScore = c.Score
		}
	}
	if maxScore == 0 {
		maxScore = 1
	}

	selected := make([]domain.ScoredChunk, 0, k)
	remaining := make([]domain.ScoredChunk, len(candidates))
	copy(remaining, candidates)

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := -1
		bestMMR := -1e9

		for i, candidate := range remaining {
			relevance := candidate.Score / maxScore

			maxSim := 0.0
			for _, sel := range selected {
				sim := jaccardSimilarity(candidate.Chunk.TermFreqs, sel.Chunk.TermFreqs)
				if sim > maxSim {
					maxSim = sim
				}
			}

			if maxSim > r.dedupJaccard {
				continue
			}

			mmr := r.lambda*relevance - (1-r.lambda)*maxSim
			if mmr > bestMMR {
				bestMMR = mmr
				bestIdx = i
			}
		}

		if bestIdx == -1 {
			// Everything left is a near-duplicate of a selected chunk.
			break
		}

		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

// jaccardSimilarity computes |A∩B| / |A∪B| over the term sets of two
// term frequency maps.
func jaccardSimilarity(a, b map[string]int) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	intersection := 0
	for term := range a {
		if _, ok := b[term]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}
