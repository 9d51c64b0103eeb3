package services

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
)

// stubStability approves every file, or fails with a fixed error.
type stubStability struct {
	err error
}

func (s *stubStability) WaitStable(_ context.Context, _ string) error {
	return s.err
}

// stubExtractor returns fixed text for every file.
type stubExtractor struct {
	text string
}

func (s *stubExtractor) Extensions() []string { return nil }

func (s *stubExtractor) Extract(_ context.Context, path string) (*domain.ExtractedContent, error) {
	return &domain.ExtractedContent{SourcePath: path, Category: domain.CategoryText, Text: s.text}, nil
}

// stubRegistry returns the same extractor for every extension.
type stubRegistry struct {
	extractor driven.Extractor
}

func (s *stubRegistry) Register(driven.Extractor) {}

func (s *stubRegistry) ForExtension(string) driven.Extractor { return s.extractor }

// stubSummariser records its input and returns a fixed record.
type stubSummariser struct {
	gotContent string
	record     *domain.SummaryRecord
}

func (s *stubSummariser) Summarise(_ context.Context, _, content string) *domain.SummaryRecord {
	s.gotContent = content
	return s.record
}

// stubUploader records upload targets and can fail per collection.
type stubUploader struct {
	uploads []domain.UploadTarget
	paths   []string
	failFor map[string]error
}

func (s *stubUploader) Upload(_ context.Context, localPath string, target domain.UploadTarget) error {
	s.uploads = append(s.uploads, target)
	s.paths = append(s.paths, localPath)
	if err, ok := s.failFor[target.CollectionID]; ok {
		return err
	}
	return nil
}

// stubJournal collects entries in memory.
type stubJournal struct {
	entries []driven.JournalEntry
}

func (s *stubJournal) Record(_ context.Context, entry *driven.JournalEntry) error {
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *stubJournal) Recent(_ context.Context, limit int) ([]driven.JournalEntry, error) {
	if limit > len(s.entries) {
		limit = len(s.entries)
	}
	return s.entries[:limit], nil
}

func (s *stubJournal) Close() error { return nil }

type pipelineFixture struct {
	pipeline   *Pipeline
	summariser *stubSummariser
	uploader   *stubUploader
	journal    *stubJournal
	dir        string
}

func newPipelineFixture(t *testing.T, stability driven.StabilityChecker) *pipelineFixture {
	t.Helper()

	dir := t.TempDir()
	settings := domain.DefaultSettings()
	settings.MonitorDir = dir
	settings.BaseURL = "http://localhost/v1"
	settings.IndexCollectionID = "idx"
	settings.OriginalCollectionID = "orig"

	summariser := &stubSummariser{record: &domain.SummaryRecord{
		DocType: "学习笔记",
		Summary: "一段总结。",
		Source:  domain.SummaryRemoteAI,
	}}
	uploader := &stubUploader{failFor: map[string]error{}}
	journal := &stubJournal{}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	pipeline := NewPipeline(
		&settings,
		NewGate(time.Minute),
		stability,
		&stubRegistry{extractor: &stubExtractor{text: "file content"}},
		summariser,
		NewIndexBuilder(250),
		uploader,
		journal,
		log,
	)
	return &pipelineFixture{
		pipeline:   pipeline,
		summariser: summariser,
		uploader:   uploader,
		journal:    journal,
		dir:        dir,
	}
}

func (f *pipelineFixture) newFile(t *testing.T, name, content string) domain.FileEvent {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return domain.FileEvent{Path: path, Kind: domain.EventCreated, ObservedAt: time.Now()}
}

func TestPipelineProcess(t *testing.T) {
	t.Run("full run uploads index and original", func(t *testing.T) {
		f := newPipelineFixture(t, &stubStability{})
		event := f.newFile(t, "notes.txt", "hello")

		require.NoError(t, f.pipeline.Process(context.Background(), event))

		require.Len(t, f.uploader.uploads, 2)
		assert.Equal(t, "idx", f.uploader.uploads[0].CollectionID)
		assert.Equal(t, "orig", f.uploader.uploads[1].CollectionID)
		assert.FileExists(t, filepath.Join(f.dir, "notes_chatflow_index.txt"))

		require.Len(t, f.journal.entries, 1)
		entry := f.journal.entries[0]
		assert.True(t, entry.IndexUploaded)
		assert.True(t, entry.OriginalUploaded)
		assert.Empty(t, entry.Error)

		assert.Equal(t, 1, f.pipeline.Status().Processed)
	})

	t.Run("image skips original upload", func(t *testing.T) {
		f := newPipelineFixture(t, &stubStability{})
		event := f.newFile(t, "photo.jpg", "not really a jpeg")

		require.NoError(t, f.pipeline.Process(context.Background(), event))

		require.Len(t, f.uploader.uploads, 1)
		assert.Equal(t, "idx", f.uploader.uploads[0].CollectionID)
		assert.False(t, f.journal.entries[0].OriginalUploaded)
	})

	t.Run("generated names are skipped", func(t *testing.T) {
		f := newPipelineFixture(t, &stubStability{})
		event := f.newFile(t, "notes_chatflow_index.txt", "generated")

		err := f.pipeline.Process(context.Background(), event)
		assert.ErrorIs(t, err, domain.ErrSkipped)
		assert.Empty(t, f.uploader.uploads)
	})

	t.Run("disallowed extension is skipped", func(t *testing.T) {
		f := newPipelineFixture(t, &stubStability{})
		event := f.newFile(t, "binary.exe", "mz")

		err := f.pipeline.Process(context.Background(), event)
		assert.ErrorIs(t, err, domain.ErrSkipped)
	})

	t.Run("missing file is skipped", func(t *testing.T) {
		f := newPipelineFixture(t, &stubStability{})
		event := domain.FileEvent{Path: filepath.Join(f.dir, "gone.txt")}

		err := f.pipeline.Process(context.Background(), event)
		assert.ErrorIs(t, err, domain.ErrSkipped)
	})

	t.Run("still-writing file is retried later", func(t *testing.T) {
		f := newPipelineFixture(t, &stubStability{err: domain.ErrStillWriting})
		event := f.newFile(t, "growing.txt", "partial")

		err := f.pipeline.Process(context.Background(), event)
		assert.ErrorIs(t, err, domain.ErrStillWriting)
		assert.Empty(t, f.uploader.uploads)

		// The abandoned run must not have marked the state processed.
		lease, err := f.pipeline.gate.Acquire(event.Path)
		require.NoError(t, err)
		lease.Release()
	})

	t.Run("duplicate event is rejected", func(t *testing.T) {
		f := newPipelineFixture(t, &stubStability{})
		event := f.newFile(t, "notes.txt", "hello")

		require.NoError(t, f.pipeline.Process(context.Background(), event))
		err := f.pipeline.Process(context.Background(), event)
		assert.ErrorIs(t, err, domain.ErrRecentlyProcessed)
	})

	t.Run("upload failure is absorbed and journaled", func(t *testing.T) {
		f := newPipelineFixture(t, &stubStability{})
		f.uploader.failFor["orig"] = domain.ErrUploadRejected
		event := f.newFile(t, "notes.txt", "hello")

		require.NoError(t, f.pipeline.Process(context.Background(), event))

		entry := f.journal.entries[0]
		assert.True(t, entry.IndexUploaded)
		assert.False(t, entry.OriginalUploaded)
		assert.NotEmpty(t, entry.Error)
		assert.Equal(t, 1, f.pipeline.Status().Failed)

		// Failed run still marks the state processed.
		err := f.pipeline.Process(context.Background(), event)
		assert.ErrorIs(t, err, domain.ErrRecentlyProcessed)
	})

	t.Run("content truncated before summarisation", func(t *testing.T) {
		f := newPipelineFixture(t, &stubStability{})
		f.pipeline.settings.ContentTruncateLength = 5
		event := f.newFile(t, "notes.txt", "hello")

		require.NoError(t, f.pipeline.Process(context.Background(), event))
		assert.Equal(t, "file ", f.summariser.gotContent)
	})
}

func TestIsGateRejection(t *testing.T) {
	assert.True(t, IsGateRejection(domain.ErrSkipped))
	assert.True(t, IsGateRejection(domain.ErrRecentlyProcessed))
	assert.True(t, IsGateRejection(domain.ErrInFlight))
	assert.True(t, IsGateRejection(domain.ErrStillWriting))
	assert.False(t, IsGateRejection(domain.ErrUploadRejected))
	assert.False(t, IsGateRejection(nil))
}
