// Package logger configures structured logging for the kbsync daemon.
//
// Logs always go to stderr in human-readable form. When a log file is
// configured the same stream is additionally written there as JSON, so
// long-running watch sessions leave a machine-readable trail.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

// Options controls logger construction.
type Options struct {
	// Verbose lowers the level to debug.
	Verbose bool

	// LogFile receives the JSON stream. Empty disables file logging.
	LogFile string

	// Stderr overrides the console writer. Defaults to os.Stderr.
	Stderr io.Writer
}

// New builds the application logger. The returned closer releases the
// log file, if any, and is safe to call on every exit path.
func New(opts Options) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	console := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	if opts.LogFile == "" {
		return slog.New(console), func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	handler := slogmulti.Fanout(
		console,
		slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}),
	)
	return slog.New(handler), f.Close, nil
}
