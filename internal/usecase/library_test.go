package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docshelf/internal/adapter/analyzer"
	"docshelf/internal/adapter/chunker"
	"docshelf/internal/adapter/index"
	"docshelf/internal/adapter/memstore"
	"docshelf/internal/domain"
	"docshelf/internal/port"
)

func newTestLibrary(t *testing.T, store port.LibraryStore) *Library {
	t.Helper()

	ch, err := chunker.NewSentenceChunker(120, 20, 0)
	require.NoError(t, err)

	lib := NewLibrary(store, index.NewInverted(), ch, analyzer.NewTokenizer(true))
	require.NoError(t, lib.Open(context.Background()))
	return lib
}

func TestLibraryOpenRestoresTermStatistics(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewMemoryStore()

	lib := newTestLibrary(t, store)
	doc, err := lib.Submit(ctx, "birds.txt", "Owls hunt at night. Sparrows sing at dawn.", nil)
	require.NoError(t, err)

	// The store keeps only text and offsets; term data must not survive
	// persistence.
	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, persisted, doc.ID)
	for _, c := range persisted[doc.ID].Chunks {
		assert.Nil(t, c.TermFreqs)
		assert.Zero(t, c.TokenCount)
	}

	reopened := newTestLibrary(t, store)
	rec, err := reopened.Record(doc.ID)
	require.NoError(t, err)
	require.NotEmpty(t, rec.Chunks)
	for _, c := range rec.Chunks {
		assert.NotEmpty(t, c.TermFreqs)
		assert.Greater(t, c.TokenCount, 0)
	}
	assert.Equal(t, 1, reopened.Stats().TotalDocs)
}

func TestSubmitIsIdempotentForSameContent(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(t, memstore.NewMemoryStore())

	first, err := lib.Submit(ctx, "todo.md", "Buy milk and bread.", nil)
	require.NoError(t, err)
	chunksBefore := lib.Stats().TotalChunks

	second, err := lib.Submit(ctx, "todo.md", "Buy milk and bread.", nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, lib.Documents(), 1)
	assert.Equal(t, chunksBefore, lib.Stats().TotalChunks)
}

func TestSubmitReplacesChangedSourceVersion(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(t, memstore.NewMemoryStore())
	meta := map[string]string{domain.MetaSourcePath: "/notes/todo.md"}

	old, err := lib.Submit(ctx, "todo.md", "Buy milk and bread.", meta)
	require.NoError(t, err)

	updated, err := lib.Submit(ctx, "todo.md", "Buy milk, bread and cheese.", meta)
	require.NoError(t, err)
	require.NotEqual(t, old.ID, updated.ID)

	docs := lib.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, updated.ID, docs[0].ID)

	_, err = lib.Record(old.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Same title from a different source is a distinct document, not a
	// replacement.
	other := map[string]string{domain.MetaSourcePath: "/archive/todo.md"}
	_, err = lib.Submit(ctx, "todo.md", "Completely different list.", other)
	require.NoError(t, err)
	assert.Len(t, lib.Documents(), 2)
}

func TestRemoveDeletesDocumentEverywhere(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewMemoryStore()
	lib := newTestLibrary(t, store)

	doc, err := lib.Submit(ctx, "garden.txt", "Water the tomatoes daily.", nil)
	require.NoError(t, err)

	require.NoError(t, lib.Remove(ctx, doc.ID))

	assert.Empty(t, lib.Documents())
	assert.Zero(t, lib.Stats().TotalDocs)

	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

func TestRemoveUnknownDocument(t *testing.T) {
	lib := newTestLibrary(t, memstore.NewMemoryStore())
	err := lib.Remove(context.Background(), "no-such-doc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRebuildKeepsCorpusAndBumpsGeneration(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(t, memstore.NewMemoryStore())

	_, err := lib.Submit(ctx, "a.txt", "Solar panels convert sunlight into power.", nil)
	require.NoError(t, err)
	_, err = lib.Submit(ctx, "b.txt", "Wind turbines convert wind into power.", nil)
	require.NoError(t, err)

	before := lib.Stats()
	gen := lib.index.Generation()

	require.NoError(t, lib.Rebuild(ctx))

	assert.Equal(t, before, lib.Stats())
	assert.Greater(t, lib.index.Generation(), gen)
}

func TestRebuildCancelledLeavesIndexIntact(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(t, memstore.NewMemoryStore())

	_, err := lib.Submit(ctx, "a.txt", "Solar panels convert sunlight into power.", nil)
	require.NoError(t, err)
	before := lib.Stats()

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	require.Error(t, lib.Rebuild(cancelled))
	assert.Equal(t, before, lib.Stats())
}

func TestDocumentsSortedByID(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(t, memstore.NewMemoryStore())

	for _, title := range []string{"zebra.txt", "apple.txt", "mango.txt"} {
		_, err := lib.Submit(ctx, title, "Notes about "+title, nil)
		require.NoError(t, err)
	}

	docs := lib.Documents()
	require.Len(t, docs, 3)
	for i := 1; i < len(docs); i++ {
		assert.Less(t, docs[i-1].ID, docs[i].ID)
	}
}

func TestDocumentIDCombinesSlugAndContentHash(t *testing.T) {
	id := DocumentID("My Notes (2024).md", "some text")

	assert.Equal(t, DocumentID("My Notes (2024).md", "some text"), id)
	assert.Regexp(t, `^my-notes-2024-[0-9a-f]{8}$`, id)

	changed := DocumentID("My Notes (2024).md", "some other text")
	assert.NotEqual(t, id, changed)

	assert.Regexp(t, `^doc-[0-9a-f]{8}$`, DocumentID("???", "x"))
}
