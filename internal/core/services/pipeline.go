package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driving"
)

// Ensure Pipeline implements the interface.
var _ driving.Pipeline = (*Pipeline)(nil)

// Pipeline runs one file through the full intake sequence: debounce,
// write-stability, extraction, summarisation, index generation and the
// two uploads.
//
// Remote failures are absorbed per file. A broken summariser or a
// rejected upload degrades that one file's outcome; it never stops the
// watch loop.
type Pipeline struct {
	settings   *domain.Settings
	gate       *Gate
	stability  driven.StabilityChecker
	extractors driven.ExtractorRegistry
	summariser driven.Summariser
	index      *IndexBuilder
	uploader   driven.Uploader
	journal    driven.SyncJournal
	log        *slog.Logger

	mu     sync.Mutex
	status driving.PipelineStatus
}

// NewPipeline creates the pipeline. The journal is optional; pass nil
// to only log outcomes.
func NewPipeline(
	settings *domain.Settings,
	gate *Gate,
	stability driven.StabilityChecker,
	extractors driven.ExtractorRegistry,
	summariser driven.Summariser,
	index *IndexBuilder,
	uploader driven.Uploader,
	journal driven.SyncJournal,
	log *slog.Logger,
) *Pipeline {
	return &Pipeline{
		settings:   settings,
		gate:       gate,
		stability:  stability,
		extractors: extractors,
		summariser: summariser,
		index:      index,
		uploader:   uploader,
		journal:    journal,
		log:        log,
	}
}

// Process runs one file event through the pipeline.
func (p *Pipeline) Process(ctx context.Context, event domain.FileEvent) error {
	info, err := domain.FileInfoOf(event.Path)
	if err != nil {
		p.countSkip()
		return fmt.Errorf("%w: %v", domain.ErrSkipped, err)
	}

	if domain.IsGeneratedName(info.Name) {
		p.countSkip()
		return fmt.Errorf("%w: generated file %s", domain.ErrSkipped, info.Name)
	}
	if !p.settings.ExtensionAllowed(info.Extension) {
		p.countSkip()
		return fmt.Errorf("%w: extension %s not allowed", domain.ErrSkipped, info.Extension)
	}

	lease, err := p.gate.Acquire(event.Path)
	if err != nil {
		p.countSkip()
		return err
	}
	defer lease.Release()

	if err := p.stability.WaitStable(ctx, event.Path); err != nil {
		// Still being written: abandon without marking processed so the
		// writer's final event retries the file.
		p.countSkip()
		p.log.Debug("file still being written, deferring", "path", event.Path)
		return err
	}

	// Restat after the settling window: the fingerprint must describe
	// the state that is actually processed.
	info, err = domain.FileInfoOf(event.Path)
	if err != nil {
		p.countSkip()
		return fmt.Errorf("%w: %v", domain.ErrSkipped, err)
	}
	fp := domain.FingerprintOf(event.Path)

	// Every run gets a correlation ID so interleaved log lines from
	// concurrent files can be told apart.
	log := p.log.With("run", uuid.NewString()[:8])
	log.Info("processing file",
		"path", event.Path,
		"event", event.Kind.String(),
		"size", info.Size)

	entry := p.run(ctx, log, info, fp)

	// The run completed, even if remote stages failed: mark the state
	// that was actually processed so event re-deliveries do not repeat
	// the work.
	lease.MarkProcessed(fp)
	p.record(ctx, entry)

	if entry.Error != "" {
		p.countFail()
	} else {
		p.countDone()
	}
	return nil
}

// run executes the fallible stages and reports the outcome. Extraction
// and summarisation cannot fail by contract; index writing and uploads
// can, and their failures are absorbed here.
func (p *Pipeline) run(ctx context.Context, log *slog.Logger, info *domain.FileInfo, fp domain.Fingerprint) *driven.JournalEntry {
	entry := &driven.JournalEntry{
		Path:           info.Path,
		FingerprintKey: fp.Key(),
		ProcessedAt:    time.Now(),
	}

	content := p.extractors.ForExtension(info.Extension)
	extracted, err := content.Extract(ctx, info.Path)
	if err != nil {
		entry.Error = fmt.Sprintf("extract: %v", err)
		log.Error("extraction failed", "path", info.Path, "error", err)
		return entry
	}

	text := truncateRunes(extracted.Text, p.settings.ContentTruncateLength)
	summary := p.summariser.Summarise(ctx, info.Name, text)
	entry.DocType = summary.DocType
	entry.Source = string(summary.Source)

	record := p.index.Build(info, fp, summary)
	indexPath, err := p.index.Write(record)
	if err != nil {
		entry.Error = err.Error()
		log.Error("index write failed", "path", info.Path, "error", err)
		return entry
	}
	log.Info("index record written",
		"path", indexPath,
		"docType", summary.DocType,
		"source", summary.Source)

	if err := p.uploader.Upload(ctx, indexPath, p.settings.IndexTarget()); err != nil {
		entry.Error = fmt.Sprintf("upload index: %v", err)
		log.Error("index upload failed", "path", indexPath, "error", err)
	} else {
		entry.IndexUploaded = true
	}

	// Images contribute only their index record; the binary stays local.
	if !domain.IsImageExtension(info.Extension) {
		if err := p.uploader.Upload(ctx, info.Path, p.settings.OriginalTarget()); err != nil {
			entry.Error = fmt.Sprintf("upload original: %v", err)
			log.Error("original upload failed", "path", info.Path, "error", err)
		} else {
			entry.OriginalUploaded = true
		}
	}

	entry.ProcessedAt = time.Now()
	return entry
}

// record writes the journal entry, best effort.
func (p *Pipeline) record(ctx context.Context, entry *driven.JournalEntry) {
	if p.journal == nil {
		return
	}
	if err := p.journal.Record(ctx, entry); err != nil {
		p.log.Warn("journal write failed", "path", entry.Path, "error", err)
	}
}

// Status returns counters for the current run.
func (p *Pipeline) Status() *driving.PipelineStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	status := p.status
	return &status
}

func (p *Pipeline) countDone() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Processed++
}

func (p *Pipeline) countSkip() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Skipped++
}

func (p *Pipeline) countFail() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Failed++
}

// truncateRunes bounds s to max runes. Zero or negative max disables
// truncation.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// IsGateRejection reports whether the error is a normal debounce
// outcome rather than a failure.
func IsGateRejection(err error) bool {
	return errors.Is(err, domain.ErrSkipped) ||
		errors.Is(err, domain.ErrRecentlyProcessed) ||
		errors.Is(err, domain.ErrInFlight) ||
		errors.Is(err, domain.ErrStillWriting)
}
