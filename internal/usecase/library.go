package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/phuslu/log"

	"docshelf/internal/domain"
	"docshelf/internal/port"
)

// Library owns the persistent document records and the derived inverted
// index. The store is the source of truth; the index is rebuilt from it
// on open and kept in lockstep on every mutation. Mutations take the
// write lock, retrieval runs under the read lock.
type Library struct {
	mu        sync.RWMutex
	store     port.LibraryStore
	index     port.Index
	chunker   port.Chunker
	tokenizer port.Tokenizer
	records   map[string]domain.LibraryRecord
}

func NewLibrary(store port.LibraryStore, index port.Index, chunker port.Chunker, tokenizer port.Tokenizer) *Library {
	return &Library{
		store:     store,
		index:     index,
		chunker:   chunker,
		tokenizer: tokenizer,
		records:   make(map[string]domain.LibraryRecord),
	}
}

// Open loads the persisted library, recomputes term statistics with the
// current tokenizer and rebuilds the index. Stored term data is never
// trusted; only text and offsets survive persistence.
func (l *Library) Open(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.store.Load(ctx)
	if err != nil {
		return err
	}

	docIDs := make([]string, 0, len(records))
	for id := range records {
		docIDs = append(docIDs, id)
	}
	sort.Strings(docIDs)

	var all []domain.Chunk
	for _, id := range docIDs {
		rec := records[id]
		for i := range rec.Chunks {
			l.analyze(&rec.Chunks[i])
		}
		records[id] = rec
		all = append(all, rec.Chunks...)
	}

	if err := l.index.Rebuild(ctx, all); err != nil {
		return err
	}
	if err := l.index.Verify(); err != nil {
		return err
	}

	l.records = records
	log.Info().
		Int("documents", len(records)).
		Int("chunks", len(all)).
		Str("tokenizer", l.tokenizer.Version()).
		Msg("library opened")
	return nil
}

// Submit chunks, indexes and persists one document. Submitting identical
// content under the same title is a no-op; changed content replaces the
// previous version of that source. Metadata is stored as given.
func (l *Library) Submit(ctx context.Context, title, text string, metadata map[string]string) (domain.Document, error) {
	docID := DocumentID(title, text)
	doc := domain.Document{
		ID:          docID,
		Title:       title,
		ContentHash: ContentHash(text),
		Metadata:    metadata,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.records[docID]; ok {
		return existing.Document, nil
	}

	chunks, err := l.chunker.Chunk(doc, text)
	if err != nil {
		return domain.Document{}, err
	}
	for i := range chunks {
		l.analyze(&chunks[i])
	}

	// Drop superseded versions of the same source before adding the new
	// one, so a changed file never appears twice.
	for _, stale := range l.staleVersions(doc) {
		if err := l.removeLocked(ctx, stale); err != nil {
			return domain.Document{}, fmt.Errorf("replace %s: %w", stale, err)
		}
	}

	if err := l.index.Add(chunks); err != nil {
		return domain.Document{}, err
	}

	rec := domain.LibraryRecord{Document: doc, Chunks: chunks}
	if err := l.store.Upsert(ctx, rec); err != nil {
		// Keep memory and disk in agreement.
		if rbErr := l.index.RemoveDocument(docID); rbErr != nil {
			return domain.Document{}, fmt.Errorf("persist %s: %v (index rollback also failed: %w)", docID, err, rbErr)
		}
		return domain.Document{}, err
	}

	l.records[docID] = rec
	log.Info().
		Str("doc", docID).
		Str("title", title).
		Int("chunks", len(chunks)).
		Msg("document added")
	return doc, nil
}

// staleVersions returns IDs of records that the given document replaces:
// same title and same source path, different content.
func (l *Library) staleVersions(doc domain.Document) []string {
	var stale []string
	for id, rec := range l.records {
		if id == doc.ID {
			continue
		}
		if rec.Document.Title != doc.Title {
			continue
		}
		if rec.Document.Metadata[domain.MetaSourcePath] != doc.Metadata[domain.MetaSourcePath] {
			continue
		}
		stale = append(stale, id)
	}
	sort.Strings(stale)
	return stale
}

// Remove deletes a document from the store and the index. Unknown IDs
// return domain.ErrNotFound.
func (l *Library) Remove(ctx context.Context, docID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.records[docID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, docID)
	}
	if err := l.removeLocked(ctx, docID); err != nil {
		return err
	}
	log.Info().Str("doc", docID).Msg("document removed")
	return nil
}

func (l *Library) removeLocked(ctx context.Context, docID string) error {
	if err := l.store.Delete(ctx, docID); err != nil {
		return err
	}
	if err := l.index.RemoveDocument(docID); err != nil {
		return err
	}
	delete(l.records, docID)
	return nil
}

// Rebuild re-analyzes every stored chunk and reconstructs the index from
// scratch. Cancelling the context aborts the swap and leaves the old
// index authoritative.
func (l *Library) Rebuild(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	docIDs := make([]string, 0, len(l.records))
	for id := range l.records {
		docIDs = append(docIDs, id)
	}
	sort.Strings(docIDs)

	var all []domain.Chunk
	for _, id := range docIDs {
		rec := l.records[id]
		for i := range rec.Chunks {
			l.analyze(&rec.Chunks[i])
		}
		l.records[id] = rec
		all = append(all, rec.Chunks...)
	}

	if err := l.index.Rebuild(ctx, all); err != nil {
		return err
	}
	if err := l.index.Verify(); err != nil {
		return err
	}
	log.Info().Int("chunks", len(all)).Msg("index rebuilt")
	return nil
}

// Documents lists all documents sorted by ID.
func (l *Library) Documents() []domain.Document {
	l.mu.RLock()
	defer l.mu.RUnlock()

	docs := make([]domain.Document, 0, len(l.records))
	for _, rec := range l.records {
		docs = append(docs, rec.Document)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

// Record returns one document with its chunks.
func (l *Library) Record(docID string) (domain.LibraryRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.records[docID]
	if !ok {
		return domain.LibraryRecord{}, fmt.Errorf("%w: %s", domain.ErrNotFound, docID)
	}
	return rec, nil
}

// Stats reports corpus-level index statistics.
func (l *Library) Stats() domain.Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.index.Stats()
}

func (l *Library) Close() error {
	return l.store.Close()
}

func (l *Library) analyze(c *domain.Chunk) {
	c.TermFreqs, c.TokenCount = l.tokenizer.TermFrequencies(c.Text)
}

// ContentHash is the full hex digest of a document's raw text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// DocumentID derives a stable ID from the title and content: a slug for
// readability plus a hash prefix so distinct contents never collide.
func DocumentID(title, text string) string {
	return slugify(title) + "-" + ContentHash(text)[:8]
}

func slugify(title string) string {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(title), filepath.Ext(title)))

	var b strings.Builder
	lastDash := true
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "doc"
	}
	if len(s) > 40 {
		s = strings.TrimSuffix(s[:40], "-")
	}
	return s
}
