package driven

import (
	"context"
	"time"
)

// JournalEntry records the outcome of one pipeline run.
type JournalEntry struct {
	// Path is the absolute path of the processed file.
	Path string

	// FingerprintKey identifies the file state that was processed.
	FingerprintKey string

	// DocType is the classified document category.
	DocType string

	// Source is the summary provenance.
	Source string

	// IndexUploaded reports whether the index record reached the remote
	// collection.
	IndexUploaded bool

	// OriginalUploaded reports whether the original file reached the
	// remote collection.
	OriginalUploaded bool

	// Error is the terminal failure description, empty on success.
	Error string

	// ProcessedAt is when the run finished.
	ProcessedAt time.Time
}

// SyncJournal persists processing outcomes for inspection. It is an
// observability surface only: the debounce gate never consults it, so
// a restart always reprocesses files as the in-memory state dictates.
type SyncJournal interface {
	// Record appends one outcome.
	Record(ctx context.Context, entry *JournalEntry) error

	// Recent returns the most recent entries, newest first.
	Recent(ctx context.Context, limit int) ([]JournalEntry, error)

	// Close releases the underlying store.
	Close() error
}
