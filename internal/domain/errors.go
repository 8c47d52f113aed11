package domain

import "errors"

var (
	// ErrInvalidConfig marks a configuration rejected at construction time,
	// before any document is touched.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrCorruptStore means persisted library state exists but cannot be
	// parsed. It is surfaced to the caller, never repaired silently.
	ErrCorruptStore = errors.New("corrupt library store")

	// ErrIndexInconsistency signals that the in-memory index violated its
	// own invariants. Recovery is a rebuild from the library, not a patch.
	ErrIndexInconsistency = errors.New("index inconsistency")

	// ErrNotFound is returned for lookups of unknown document IDs.
	ErrNotFound = errors.New("document not found")

	// ErrUnsupportedFormat is returned by the extractor for file types it
	// does not handle.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)
