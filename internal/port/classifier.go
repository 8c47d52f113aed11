package port

import "docshelf/internal/domain"

// QueryClassifier assigns one of the closed intent set to a query. It never
// fails; unrecognized queries fall through to the exploratory default.
type QueryClassifier interface {
	Classify(query string) domain.QueryClassification
}
