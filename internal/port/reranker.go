package port

import "docshelf/internal/domain"

type DiversityReranker interface {
	Rerank(chunks []domain.ScoredChunk, k int) []domain.ScoredChunk
}
