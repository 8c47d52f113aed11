package classifier

import "docshelf/internal/domain"

// Policy is the retrieval behavior attached to an intent.
type Policy struct {
	// MaxTopK caps the requested result count; 0 leaves it unchanged.
	MaxTopK int

	// BlendWeight is the TF-IDF share handed to the blended scorer.
	BlendWeight float64

	// Diversify applies MMR reranking after scoring.
	Diversify bool

	// Bypass skips scoring entirely and returns no passages.
	Bypass bool
}

// PolicyFor returns the retrieval policy for an intent. Lookup queries
// favor precision: few results, TF-IDF leaning. Exploratory queries keep
// the caller's topK and diversify across documents.
func PolicyFor(intent domain.Intent) Policy {
	switch intent {
	case domain.IntentLookup:
		return Policy{MaxTopK: 3, BlendWeight: 0.7}
	case domain.IntentMeta:
		return Policy{Bypass: true}
	default:
		return Policy{BlendWeight: 0.5, Diversify: true}
	}
}

// Apply clamps the requested topK to the policy cap.
func (p Policy) Apply(topK int) int {
	if p.MaxTopK > 0 && topK > p.MaxTopK {
		return p.MaxTopK
	}
	return topK
}
