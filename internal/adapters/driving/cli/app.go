package cli

import (
	"fmt"
	"log/slog"

	"github.com/veyrane-labs/kbsync/internal/adapters/driven/auth"
	"github.com/veyrane-labs/kbsync/internal/adapters/driven/config/file"
	"github.com/veyrane-labs/kbsync/internal/adapters/driven/storage/sqlite"
	"github.com/veyrane-labs/kbsync/internal/converter"
	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
	"github.com/veyrane-labs/kbsync/internal/core/services"
	"github.com/veyrane-labs/kbsync/internal/extractors"
	"github.com/veyrane-labs/kbsync/internal/extractors/docx"
	imageextract "github.com/veyrane-labs/kbsync/internal/extractors/image"
	"github.com/veyrane-labs/kbsync/internal/extractors/legacydoc"
	pdfextract "github.com/veyrane-labs/kbsync/internal/extractors/pdf"
	"github.com/veyrane-labs/kbsync/internal/extractors/plaintext"
	"github.com/veyrane-labs/kbsync/internal/extractors/presentation"
	"github.com/veyrane-labs/kbsync/internal/extractors/spreadsheet"
	"github.com/veyrane-labs/kbsync/internal/logger"
	searchdify "github.com/veyrane-labs/kbsync/internal/search/dify"
	"github.com/veyrane-labs/kbsync/internal/server"
	summarydify "github.com/veyrane-labs/kbsync/internal/summariser/dify"
	uploaddify "github.com/veyrane-labs/kbsync/internal/uploader/dify"
	"github.com/veyrane-labs/kbsync/internal/watcher"
)

// app holds every wired component of a running kbsync instance.
type app struct {
	settings domain.Settings
	store    *file.ConfigStore
	log      *slog.Logger
	pipeline *services.Pipeline
	searcher driven.KnowledgeSearcher
	journal  driven.SyncJournal
	server   *server.Server

	closers []func() error
}

// newApp loads configuration, validates it and wires the full
// processing stack. Configuration failures are fatal here, before any
// watching starts.
func newApp() (*app, error) {
	store, err := file.NewConfigStore("")
	if err != nil {
		return nil, fmt.Errorf("open config store: %w", err)
	}

	settings := file.LoadSettings(store)
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, closeLog, err := logger.New(logger.Options{Verbose: verbose, LogFile: settings.LogFile})
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}

	a := &app{settings: settings, store: store, log: log}
	a.closers = append(a.closers, closeLog)

	creds := auth.NewConfigCredentials(store)
	runner := converter.NewExecRunner()

	registry := extractors.NewRegistry()
	registry.Register(plaintext.New())
	registry.Register(docx.New())
	registry.Register(spreadsheet.New())
	registry.Register(presentation.New())
	registry.Register(pdfextract.New())
	registry.Register(legacydoc.New(runner))
	registry.Register(imageextract.New())

	var backend driven.UploadBackend
	switch settings.UploadBackend {
	case domain.BackendTwoStep:
		backend = uploaddify.NewTwoStepBackend(settings.BaseURL, creds, settings.RequestTimeout, log)
	case domain.BackendSession:
		backend = uploaddify.NewSessionBackend(settings.BaseURL, creds, settings.RequestTimeout)
	default:
		backend = uploaddify.NewCreateByFileBackend(settings.BaseURL, creds, settings.RequestTimeout)
	}

	uploader := uploaddify.NewUploader(backend,
		converter.NewDocConverter(runner, log),
		settings.MaxUploadBytes, log)

	if settings.JournalPath != "" {
		journal, err := sqlite.NewJournal(settings.JournalPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open sync journal: %w", err)
		}
		a.journal = journal
		a.closers = append(a.closers, journal.Close)
	}

	a.pipeline = services.NewPipeline(
		&a.settings,
		services.NewGate(settings.ProcessInterval),
		watcher.NewPollingStabilityChecker(settings.StabilisationDelay),
		registry,
		summarydify.NewClient(settings.BaseURL, creds, settings.RequestTimeout, log),
		services.NewIndexBuilder(settings.SummaryMaxLength),
		uploader,
		a.journal,
		log,
	)

	a.searcher = searchdify.NewClient(settings.BaseURL, creds, settings.RequestTimeout, log)

	if settings.ServerAddr != "" {
		a.server = server.New(settings,
			server.NewSearcher(settings, a.searcher, log),
			server.NewOpener(runner),
			log)
	}
	return a, nil
}

// Close releases every resource the app opened, in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
