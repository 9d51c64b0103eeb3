// Package watcher turns filesystem notifications into pipeline runs.
//
// The watcher observes the monitored directory recursively, filters
// out directory noise and hands each create or write event to the
// pipeline. Debouncing and dedup live behind the pipeline's gate, so
// the watcher itself stays a thin event pump.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driving"
)

// Ensure Watcher implements the interface.
var _ driving.Monitor = (*Watcher)(nil)

// Watcher feeds filesystem events from one directory tree into the
// pipeline.
type Watcher struct {
	root     string
	pipeline driving.Pipeline
	log      *slog.Logger

	// wg tracks in-flight pipeline runs so Run drains before returning.
	wg sync.WaitGroup
}

// New creates a watcher over root. The directory must exist.
func New(root string, pipeline driving.Pipeline, log *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: watch root %q is not a directory", domain.ErrInvalidInput, abs)
	}
	return &Watcher{root: abs, pipeline: pipeline, log: log}, nil
}

// Run watches until the context is cancelled. New subdirectories are
// added to the watch as they appear.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addRecursive(fsw, w.root); err != nil {
		return err
	}
	w.log.Info("watching directory", "root", w.root)

	defer w.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("watcher event stream closed")
			}
			w.handle(ctx, fsw, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher error stream closed")
			}
			w.log.Warn("watcher error", "error", err)
		}
	}
}

// handle dispatches one fsnotify event.
func (w *Watcher) handle(ctx context.Context, fsw *fsnotify.Watcher, event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		// Deleted or renamed before we could look. Nothing to do.
		return
	}

	if info.IsDir() {
		if event.Op.Has(fsnotify.Create) {
			if err := w.addRecursive(fsw, event.Name); err != nil {
				w.log.Warn("watch new directory failed", "path", event.Name, "error", err)
			}
		}
		return
	}

	kind := domain.EventModified
	if event.Op.Has(fsnotify.Create) {
		kind = domain.EventCreated
	}
	fileEvent := domain.FileEvent{
		Path:       event.Name,
		Kind:       kind,
		ObservedAt: time.Now(),
	}

	// Each file runs in its own goroutine: the stability wait blocks
	// for seconds and must not stall the event loop. The gate rejects
	// concurrent runs on the same path.
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.pipeline.Process(ctx, fileEvent); err != nil {
			w.logOutcome(fileEvent, err)
		}
	}()
}

// logOutcome logs a pipeline rejection at the right level.
func (w *Watcher) logOutcome(event domain.FileEvent, err error) {
	if isRejection(err) {
		w.log.Debug("event not processed", "path", event.Path, "reason", err)
		return
	}
	w.log.Error("pipeline failed", "path", event.Path, "error", err)
}

func isRejection(err error) bool {
	for _, sentinel := range []error{
		domain.ErrSkipped,
		domain.ErrRecentlyProcessed,
		domain.ErrInFlight,
		domain.ErrStillWriting,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// addRecursive watches dir and every subdirectory beneath it.
func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
