package port

import "docshelf/internal/domain"

// DocumentFilter restricts candidate chunks to a subset of documents.
// A nil filter admits every document.
type DocumentFilter func(docID string) bool

// Scorer ranks indexed chunks against a query. Candidates are drawn from
// posting lists only, never from a corpus scan, and the ordering is
// deterministic: score descending, then document ID, then start offset.
type Scorer interface {
	Score(query string, k int, filter DocumentFilter) ([]domain.ScoredChunk, error)
}
