package port

import (
	"context"

	"docshelf/internal/domain"
)

// Index is the in-memory inverted index over chunks. It is derived state:
// the persisted library is the source of truth and a rebuild from it must
// reproduce the index exactly.
type Index interface {
	Add(chunks []domain.Chunk) error

	RemoveDocument(docID string) error

	// Rebuild replaces the index contents from scratch. On error or
	// cancellation the previous contents remain in place.
	Rebuild(ctx context.Context, chunks []domain.Chunk) error

	// Verify checks internal invariants (document frequencies against
	// posting list lengths). A violation is domain.ErrIndexInconsistency.
	Verify() error

	Postings(term string) []domain.Posting

	DocFreq(term string) int

	Chunk(chunkID string) (domain.Chunk, bool)

	ChunkIDsByDoc(docID string) []string

	Stats() domain.Stats

	// Generation increments on every mutation; caches key off it.
	Generation() uint64
}
