package memstore

import (
	"context"
	"sync"

	"docshelf/internal/domain"
)

// MemoryStore keeps library records in process memory. It backs tests and
// throwaway libraries; nothing survives a restart. Like the durable
// stores it drops derived term statistics, so loaded chunks always need
// re-analysis.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]domain.LibraryRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]domain.LibraryRecord),
	}
}

func (s *MemoryStore) Load(ctx context.Context) (map[string]domain.LibraryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.LibraryRecord, len(s.records))
	for id, rec := range s.records {
		out[id] = cloneRecord(rec)
	}
	return out, nil
}

func (s *MemoryStore) Save(ctx context.Context, records map[string]domain.LibraryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]domain.LibraryRecord, len(records))
	for id, rec := range records {
		s.records[id] = cloneRecord(rec)
	}
	return nil
}

func (s *MemoryStore) Upsert(ctx context.Context, rec domain.LibraryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.Document.ID] = cloneRecord(rec)
	return nil
}

// Delete removes a record. Deleting an absent ID is a no-op.
func (s *MemoryStore) Delete(ctx context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, docID)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// cloneRecord copies a record so callers and the store never share
// mutable state. Term frequencies and token counts are derived fields
// and are stripped, matching what the durable stores persist.
func cloneRecord(rec domain.LibraryRecord) domain.LibraryRecord {
	out := domain.LibraryRecord{Document: rec.Document}

	if rec.Document.Metadata != nil {
		out.Document.Metadata = make(map[string]string, len(rec.Document.Metadata))
		for k, v := range rec.Document.Metadata {
			out.Document.Metadata[k] = v
		}
	}

	out.Chunks = make([]domain.Chunk, len(rec.Chunks))
	for i, c := range rec.Chunks {
		c.TermFreqs = nil
		c.TokenCount = 0
		out.Chunks[i] = c
	}
	return out
}
