package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"docshelf/internal/domain"
)

// JSONStore persists the library as a single JSON file. Saves are atomic:
// the new state is written to a temp file in the same directory, synced,
// and renamed over the target, so a crash mid-save never leaves a
// truncated file behind.
type JSONStore struct {
	path string
}

type libraryFile struct {
	Version   int                      `json:"version"`
	Documents map[string]persistRecord `json:"documents"`
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Load reads the full library. A missing file is an empty library, not an
// error; an unparseable one is domain.ErrCorruptStore.
func (s *JSONStore) Load(ctx context.Context) (map[string]domain.LibraryRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]domain.LibraryRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read library file: %w", err)
	}

	var file libraryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorruptStore, s.path, err)
	}
	if file.Version > currentLibraryVersion {
		return nil, fmt.Errorf("%w: %s has schema version %d, this build reads up to %d",
			domain.ErrCorruptStore, s.path, file.Version, currentLibraryVersion)
	}

	records := make(map[string]domain.LibraryRecord, len(file.Documents))
	for docID, rec := range file.Documents {
		records[docID] = decodeRecord(docID, rec)
	}
	return records, nil
}

// Save writes the full library state atomically.
func (s *JSONStore) Save(ctx context.Context, records map[string]domain.LibraryRecord) error {
	file := libraryFile{
		Version:   currentLibraryVersion,
		Documents: make(map[string]persistRecord, len(records)),
	}
	for docID, rec := range records {
		file.Documents[docID] = encodeRecord(rec)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal library: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create library directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".library-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace library file: %w", err)
	}
	return nil
}

// Upsert writes a single record.
func (s *JSONStore) Upsert(ctx context.Context, rec domain.LibraryRecord) error {
	records, err := s.Load(ctx)
	if err != nil {
		return err
	}
	records[rec.Document.ID] = rec
	return s.Save(ctx, records)
}

// Delete removes a record. Deleting an absent ID is a no-op.
func (s *JSONStore) Delete(ctx context.Context, docID string) error {
	records, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if _, ok := records[docID]; !ok {
		return nil
	}
	delete(records, docID)
	return s.Save(ctx, records)
}

func (s *JSONStore) Close() error {
	return nil
}
