package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/phuslu/log"

	"docshelf/internal/adapter/cache"
	"docshelf/internal/adapter/classifier"
	"docshelf/internal/adapter/retriever"
	"docshelf/internal/domain"
	"docshelf/internal/port"
)

// DefaultTopK is the result count used when the caller does not ask for
// a specific one.
const DefaultTopK = 5

// Retriever runs the query pipeline: classify the query, pick the intent
// policy, score against the index, optionally diversify, and join each
// hit back to its source document. Meta queries bypass scoring.
type Retriever struct {
	library    *Library
	classifier port.QueryClassifier
	scorer     *retriever.BlendedScorer
	reranker   port.DiversityReranker
	expander   *retriever.QueryExpander
	cache      *cache.QueryCache
}

func NewRetriever(library *Library, qc port.QueryClassifier, scorer *retriever.BlendedScorer, reranker port.DiversityReranker) *Retriever {
	return &Retriever{
		library:    library,
		classifier: qc,
		scorer:     scorer,
		reranker:   reranker,
	}
}

// WithExpander enables query expansion for thin result sets.
func (r *Retriever) WithExpander(e *retriever.QueryExpander) *Retriever {
	r.expander = e
	return r
}

// WithCache enables result memoization.
func (r *Retriever) WithCache(c *cache.QueryCache) *Retriever {
	r.cache = c
	return r
}

// Retrieve returns up to topK passages for the query, restricted to the
// given document IDs when any are passed. An empty result is a valid
// outcome, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, docIDs []string) (domain.RetrievalResult, error) {
	c := r.classifier.Classify(query)
	result := domain.RetrievalResult{
		Classification: c,
		Passages:       []domain.RankedPassage{},
	}

	policy := classifier.PolicyFor(c.Intent)
	if policy.Bypass {
		result.Bypassed = true
		return result, nil
	}

	if topK <= 0 {
		topK = DefaultTopK
	}
	k := policy.Apply(topK)

	r.library.mu.RLock()
	gen := r.library.index.Generation()
	if r.cache != nil {
		if cached, ok := r.cache.Get(query, k, docIDs, gen); ok {
			r.library.mu.RUnlock()
			log.Debug().Str("query", query).Msg("retrieval served from cache")
			result.Passages = cached
			return result, nil
		}
	}
	passages, err := r.search(ctx, query, k, docIDs, policy)
	r.library.mu.RUnlock()
	if err != nil {
		return domain.RetrievalResult{}, err
	}

	if r.cache != nil {
		r.cache.Put(query, k, docIDs, gen, passages)
	}
	result.Passages = passages
	return result, nil
}

// search runs under the library read lock.
func (r *Retriever) search(ctx context.Context, query string, k int, docIDs []string, policy classifier.Policy) ([]domain.RankedPassage, error) {
	filter := filterFor(docIDs)

	// Over-fetch when MMR follows, so diversification has candidates to
	// trade against.
	fetchK := k
	if policy.Diversify {
		fetchK = k * 2
	}

	scored, err := r.scorer.ScoreWeighted(query, fetchK, filter, policy.BlendWeight)
	if err != nil {
		return nil, err
	}

	if r.expander != nil && len(scored) < k {
		scored = r.expandSearch(ctx, query, scored, fetchK, filter, policy)
	}

	if policy.Diversify && r.reranker != nil {
		scored = r.reranker.Rerank(scored, k)
	} else if len(scored) > k {
		scored = scored[:k]
	}

	return r.toPassages(scored)
}

// expandSearch re-scores query variants and merges hits, keeping each
// chunk's best score across variants.
func (r *Retriever) expandSearch(ctx context.Context, query string, scored []domain.ScoredChunk, fetchK int, filter port.DocumentFilter, policy classifier.Policy) []domain.ScoredChunk {
	variants := r.expander.Expand(ctx, query)
	if len(variants) <= 1 {
		return scored
	}

	best := make(map[string]domain.ScoredChunk, len(scored))
	for _, sc := range scored {
		best[sc.Chunk.ID] = sc
	}

	for _, variant := range variants {
		if variant == query {
			continue
		}
		extra, err := r.scorer.ScoreWeighted(variant, fetchK, filter, policy.BlendWeight)
		if err != nil {
			log.Debug().Err(err).Str("variant", variant).Msg("variant scoring failed")
			continue
		}
		for _, sc := range extra {
			if cur, ok := best[sc.Chunk.ID]; !ok || sc.Score > cur.Score {
				best[sc.Chunk.ID] = sc
			}
		}
	}

	ids := make([]string, 0, len(best))
	for id := range best {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	merged := make([]domain.ScoredChunk, 0, len(ids))
	for _, id := range ids {
		merged = append(merged, best[id])
	}
	sortScored(merged)
	return merged
}

func (r *Retriever) toPassages(scored []domain.ScoredChunk) ([]domain.RankedPassage, error) {
	passages := make([]domain.RankedPassage, 0, len(scored))
	for _, sc := range scored {
		rec, ok := r.library.records[sc.Chunk.DocID]
		if !ok {
			return nil, fmt.Errorf("%w: chunk %s references missing document %s",
				domain.ErrIndexInconsistency, sc.Chunk.ID, sc.Chunk.DocID)
		}
		passages = append(passages, domain.RankedPassage{
			Chunk:    sc.Chunk,
			Document: rec.Document,
			Score:    sc.Score,
		})
	}
	return passages, nil
}

func filterFor(docIDs []string) port.DocumentFilter {
	if len(docIDs) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(docIDs))
	for _, id := range docIDs {
		allowed[id] = struct{}{}
	}
	return func(docID string) bool {
		_, ok := allowed[docID]
		return ok
	}
}

func sortScored(results []domain.ScoredChunk) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Chunk.DocID != results[j].Chunk.DocID {
			return results[i].Chunk.DocID < results[j].Chunk.DocID
		}
		return results[i].Chunk.StartOffset < results[j].Chunk.StartOffset
	})
}
