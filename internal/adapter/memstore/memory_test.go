package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docshelf/internal/domain"
)

func record(docID, title string) domain.LibraryRecord {
	return domain.LibraryRecord{
		Document: domain.Document{
			ID:          docID,
			Title:       title,
			ContentHash: "hash-" + docID,
			Metadata:    map[string]string{domain.MetaSourcePath: "/tmp/" + title},
		},
		Chunks: []domain.Chunk{
			{
				ID:          docID + "#0",
				DocID:       docID,
				StartOffset: 0,
				EndOffset:   10,
				Text:        "chunk text",
				TermFreqs:   map[string]int{"chunk": 1, "text": 1},
				TokenCount:  2,
			},
		},
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Upsert(ctx, record("doc-1", "first.txt")))
	require.NoError(t, s.Upsert(ctx, record("doc-2", "second.txt")))

	records, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "first.txt", records["doc-1"].Document.Title)
}

func TestMemoryStoreStripsDerivedFields(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Upsert(ctx, record("doc-1", "first.txt")))

	records, err := s.Load(ctx)
	require.NoError(t, err)

	chunk := records["doc-1"].Chunks[0]
	assert.Nil(t, chunk.TermFreqs)
	assert.Zero(t, chunk.TokenCount)
	assert.Equal(t, "chunk text", chunk.Text)
}

func TestMemoryStoreSaveReplacesState(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Upsert(ctx, record("doc-1", "first.txt")))
	require.NoError(t, s.Save(ctx, map[string]domain.LibraryRecord{
		"doc-2": record("doc-2", "second.txt"),
	}))

	records, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	_, ok := records["doc-2"]
	assert.True(t, ok)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Upsert(ctx, record("doc-1", "first.txt")))
	require.NoError(t, s.Delete(ctx, "doc-1"))
	require.NoError(t, s.Delete(ctx, "doc-1"), "deleting an absent record is a no-op")

	records, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestMemoryStoreLoadIsIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Upsert(ctx, record("doc-1", "first.txt")))

	records, err := s.Load(ctx)
	require.NoError(t, err)
	records["doc-1"].Document.Metadata[domain.MetaSourcePath] = "mutated"
	records["doc-1"].Chunks[0].Text = "mutated"

	again, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/first.txt", again["doc-1"].Document.Metadata[domain.MetaSourcePath])
	assert.Equal(t, "chunk text", again["doc-1"].Chunks[0].Text)
}
