package port

import (
	"context"

	"docshelf/internal/domain"
)

// LibraryStore persists documents and their chunks. Term statistics and the
// inverted index are never persisted; they are rebuilt from records on load.
type LibraryStore interface {
	// Load returns all persisted records. Absent state is an empty map,
	// not an error. Unparseable state is domain.ErrCorruptStore.
	Load(ctx context.Context) (map[string]domain.LibraryRecord, error)

	// Save atomically replaces the persisted state. A crash mid-save must
	// never leave a truncated library visible.
	Save(ctx context.Context, records map[string]domain.LibraryRecord) error

	Upsert(ctx context.Context, rec domain.LibraryRecord) error

	Delete(ctx context.Context, docID string) error

	Close() error
}
