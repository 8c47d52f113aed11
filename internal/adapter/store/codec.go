package store

import (
	"docshelf/internal/domain"
)

// currentLibraryVersion guards the persisted schema. Data written by a
// newer version is refused as corrupt rather than silently reinterpreted.
const currentLibraryVersion = 1

// persistChunk is the wire form of a chunk. Term frequencies are derived
// state and never persisted; the analyzer recomputes them on load.
type persistChunk struct {
	ID          string `json:"id"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
	Text        string `json:"text"`
}

type persistRecord struct {
	Title       string            `json:"title"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ContentHash string            `json:"content_hash"`
	Chunks      []persistChunk    `json:"chunks"`
}

func encodeRecord(rec domain.LibraryRecord) persistRecord {
	chunks := make([]persistChunk, 0, len(rec.Chunks))
	for _, ch := range rec.Chunks {
		chunks = append(chunks, persistChunk{
			ID:          ch.ID,
			StartOffset: ch.StartOffset,
			EndOffset:   ch.EndOffset,
			Text:        ch.Text,
		})
	}
	return persistRecord{
		Title:       rec.Document.Title,
		Metadata:    rec.Document.Metadata,
		ContentHash: rec.Document.ContentHash,
		Chunks:      chunks,
	}
}

func decodeRecord(docID string, rec persistRecord) domain.LibraryRecord {
	chunks := make([]domain.Chunk, 0, len(rec.Chunks))
	for _, ch := range rec.Chunks {
		chunks = append(chunks, domain.Chunk{
			ID:          ch.ID,
			DocID:       docID,
			StartOffset: ch.StartOffset,
			EndOffset:   ch.EndOffset,
			Text:        ch.Text,
		})
	}
	return domain.LibraryRecord{
		Document: domain.Document{
			ID:          docID,
			Title:       rec.Title,
			ContentHash: rec.ContentHash,
			Metadata:    rec.Metadata,
		},
		Chunks: chunks,
	}
}
