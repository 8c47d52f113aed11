package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/phuslu/log"

	"docshelf/internal/adapter/fs"
	"docshelf/internal/domain"
	"docshelf/internal/port"
)

// ProgressCallback is invoked after each file is processed.
type ProgressCallback func(processed, total int, path string)

// Ingestor walks a directory tree, extracts text from supported files
// and submits them to the library. Re-runs are incremental: unchanged
// files are skipped by modification time, then by content hash, and
// files that vanished from the tree are removed from the library.
type Ingestor struct {
	library   *Library
	walker    port.FileWalker
	extractor port.Extractor

	// Progress, when set, is called once per walked file.
	Progress ProgressCallback
}

func NewIngestor(library *Library, walker port.FileWalker, extractor port.Extractor) *Ingestor {
	return &Ingestor{
		library:   library,
		walker:    walker,
		extractor: extractor,
	}
}

type IngestResult struct {
	FilesAdded   int
	FilesSkipped int
	FilesRemoved int
	ChunksAdded  int
	Errors       []string
}

func (ing *Ingestor) Ingest(ctx context.Context, root string) (*IngestResult, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	files, err := ing.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	existing := make(map[string]domain.Document)
	for _, doc := range ing.library.Documents() {
		if p := doc.Metadata[domain.MetaSourcePath]; p != "" {
			existing[p] = doc
		}
	}

	result := &IngestResult{}
	seen := make(map[string]bool, len(files))

	for i, file := range files {
		seen[file.Path] = true

		if ing.Progress != nil {
			ing.Progress(i+1, len(files), file.Path)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if doc, ok := existing[file.Path]; ok {
			if modTime, err := strconv.ParseInt(doc.Metadata[domain.MetaModifiedAt], 10, 64); err == nil && modTime >= file.ModTime {
				result.FilesSkipped++
				continue
			}
		}

		added, chunks, err := ing.ingestFile(ctx, file)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", file.Path, err))
			continue
		}
		if added {
			result.FilesAdded++
			result.ChunksAdded += chunks
		} else {
			result.FilesSkipped++
		}
	}

	// Documents whose source file disappeared from this root get removed.
	var gone []string
	for path, doc := range existing {
		if seen[path] {
			continue
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		gone = append(gone, doc.ID)
	}
	sort.Strings(gone)
	for _, docID := range gone {
		if err := ing.library.Remove(ctx, docID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("remove %s: %v", docID, err))
			continue
		}
		result.FilesRemoved++
	}

	log.Info().
		Str("root", root).
		Int("added", result.FilesAdded).
		Int("skipped", result.FilesSkipped).
		Int("removed", result.FilesRemoved).
		Int("errors", len(result.Errors)).
		Msg("ingest finished")
	return result, nil
}

func (ing *Ingestor) ingestFile(ctx context.Context, file port.FileInfo) (added bool, chunks int, err error) {
	if !ing.extractor.Supports(file.Path) {
		return false, 0, nil
	}

	raw, err := fs.ReadFile(file.Path)
	if err != nil {
		return false, 0, err
	}

	text, err := ing.extractor.Extract(filepath.Base(file.Path), []byte(raw))
	if err != nil {
		return false, 0, err
	}
	if strings.TrimSpace(text) == "" {
		return false, 0, nil
	}

	title := filepath.Base(file.Path)
	if _, err := ing.library.Record(DocumentID(title, text)); err == nil {
		// Identical content is already in the library.
		return false, 0, nil
	}

	meta := map[string]string{
		domain.MetaSourcePath: file.Path,
		domain.MetaSourceType: strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Path)), "."),
		domain.MetaSizeKB:     strconv.FormatInt((file.Size+1023)/1024, 10),
		domain.MetaAddedAt:    time.Now().UTC().Format(time.RFC3339),
		domain.MetaModifiedAt: strconv.FormatInt(file.ModTime, 10),
	}

	doc, err := ing.library.Submit(ctx, title, text, meta)
	if err != nil {
		return false, 0, err
	}

	rec, err := ing.library.Record(doc.ID)
	if err != nil {
		return false, 0, err
	}
	return true, len(rec.Chunks), nil
}
