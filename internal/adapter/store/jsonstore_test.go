package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docshelf/internal/domain"
)

func sampleRecords() map[string]domain.LibraryRecord {
	return map[string]domain.LibraryRecord{
		"animals-1a2b3c4d": {
			Document: domain.Document{
				ID:          "animals-1a2b3c4d",
				Title:       "animals.txt",
				ContentHash: "1a2b3c4d5e6f7a8b",
				Metadata: map[string]string{
					domain.MetaSourcePath: "/home/user/notes/animals.txt",
					domain.MetaSizeKB:     "0.1",
				},
			},
			Chunks: []domain.Chunk{
				{ID: "animals-1a2b3c4d#0", DocID: "animals-1a2b3c4d", StartOffset: 0, EndOffset: 17, Text: "Cats are mammals."},
				{ID: "animals-1a2b3c4d#1", DocID: "animals-1a2b3c4d", StartOffset: 18, EndOffset: 39, Text: "Dogs are mammals too."},
			},
		},
		"recipes-9f8e7d6c": {
			Document: domain.Document{
				ID:          "recipes-9f8e7d6c",
				Title:       "recipes.md",
				ContentHash: "9f8e7d6c5b4a3928",
			},
			Chunks: []domain.Chunk{
				{ID: "recipes-9f8e7d6c#0", DocID: "recipes-9f8e7d6c", StartOffset: 0, EndOffset: 24, Text: "Knead the dough briefly."},
			},
		},
	}
}

func TestJSONStoreLoadAbsentFile(t *testing.T) {
	s := NewJSONStore(filepath.Join(t.TempDir(), "library.json"))

	records, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestJSONStoreSaveLoadRoundTrip(t *testing.T) {
	s := NewJSONStore(filepath.Join(t.TempDir(), "library.json"))
	ctx := context.Background()

	want := sampleRecords()
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestJSONStoreSaveIsByteStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.json")
	s := NewJSONStore(path)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleRecords()))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, loaded))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second, "save(load()) must reproduce the file byte for byte")
}

func TestJSONStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewJSONStore(path).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptStore))
	assert.Contains(t, err.Error(), path)
}

func TestJSONStoreRefusesNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99, "documents": {}}`), 0o644))

	_, err := NewJSONStore(path).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptStore))
}

func TestJSONStoreUpsertAndDelete(t *testing.T) {
	s := NewJSONStore(filepath.Join(t.TempDir(), "library.json"))
	ctx := context.Background()

	records := sampleRecords()
	rec := records["animals-1a2b3c4d"]
	require.NoError(t, s.Upsert(ctx, rec))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec, got["animals-1a2b3c4d"])

	require.NoError(t, s.Delete(ctx, "animals-1a2b3c4d"))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Delete(ctx, "never-existed"), "deleting an absent record is a no-op")
}

func TestJSONStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewJSONStore(filepath.Join(dir, "library.json"))

	require.NoError(t, s.Save(context.Background(), sampleRecords()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "library.json", entries[0].Name())
}

func TestJSONStoreCreatesParentDirectory(t *testing.T) {
	dir := t.TempDir()
	s := NewJSONStore(filepath.Join(dir, "nested", "deeper", "library.json"))
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleRecords()))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
