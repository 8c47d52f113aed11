package port

import (
	"context"

	"docshelf/internal/domain"
)

// AnswerGenerator composes an answer from ranked passages. Implementations
// live at the edge; retrieval never depends on one.
type AnswerGenerator interface {
	Generate(ctx context.Context, query string, passages []domain.RankedPassage, c domain.QueryClassification) (string, error)
}
