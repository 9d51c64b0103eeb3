// Package sqlite persists the sync journal.
//
// The journal is an observability surface: every pipeline run leaves
// one row describing what happened to the file. Nothing in the
// pipeline reads it back for decisions; the debounce gate is purely
// in-memory by design.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
)

// Ensure Journal implements the interface.
var _ driven.SyncJournal = (*Journal)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS sync_journal (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    path              TEXT NOT NULL,
    fingerprint_key   TEXT NOT NULL,
    doc_type          TEXT NOT NULL DEFAULT '',
    source            TEXT NOT NULL DEFAULT '',
    index_uploaded    INTEGER NOT NULL DEFAULT 0,
    original_uploaded INTEGER NOT NULL DEFAULT 0,
    error             TEXT NOT NULL DEFAULT '',
    processed_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sync_journal_processed_at ON sync_journal(processed_at);
`

// Journal is the SQLite-backed sync journal.
type Journal struct {
	db   *sql.DB
	path string
}

// NewJournal opens (or creates) the journal database at path.
// If path is empty, defaults to ~/.kbsync/data/journal.db.
func NewJournal(path string) (*Journal, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".kbsync", "data", "journal.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// WAL mode for better concurrency with the watch loop.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Journal{db: db, path: path}, nil
}

// Record appends one outcome.
func (j *Journal) Record(ctx context.Context, entry *driven.JournalEntry) error {
	processedAt := entry.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO sync_journal
			(path, fingerprint_key, doc_type, source, index_uploaded, original_uploaded, error, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Path,
		entry.FingerprintKey,
		entry.DocType,
		entry.Source,
		boolToInt(entry.IndexUploaded),
		boolToInt(entry.OriginalUploaded),
		entry.Error,
		processedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting journal entry: %w", err)
	}
	return nil
}

// Recent returns the most recent entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]driven.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT path, fingerprint_key, doc_type, source, index_uploaded, original_uploaded, error, processed_at
		FROM sync_journal
		ORDER BY processed_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var entries []driven.JournalEntry
	for rows.Next() {
		var entry driven.JournalEntry
		var indexUploaded, originalUploaded int
		if err := rows.Scan(
			&entry.Path,
			&entry.FingerprintKey,
			&entry.DocType,
			&entry.Source,
			&indexUploaded,
			&originalUploaded,
			&entry.Error,
			&entry.ProcessedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning journal entry: %w", err)
		}
		entry.IndexUploaded = indexUploaded != 0
		entry.OriginalUploaded = originalUploaded != 0
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Close releases the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.path
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
