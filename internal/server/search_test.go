package server

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

type fakeKB struct {
	docs []driven.KBDocument
	err  error
}

func (f *fakeKB) SearchDocuments(ctx context.Context, collectionID, keyword string, limit int) ([]driven.KBDocument, error) {
	return f.docs, f.err
}

func (f *fakeKB) Ping(ctx context.Context) error { return f.err }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSettings(dir string) domain.Settings {
	s := domain.DefaultSettings()
	s.MonitorDir = dir
	s.IndexCollectionID = "idx"
	return s
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))
	return path
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("报告.docx", "报告.docx"))
	assert.Equal(t, 0.0, similarity("abc", "xyz"))
	assert.Greater(t, similarity("数学作业", "数学四年级作业.docx"), 0.3)
	assert.Greater(t, similarity("report", "Report.docx"), 0.5)
}

func TestSearcher(t *testing.T) {
	ctx := context.Background()

	t.Run("local filename matches above threshold", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "数学作业.docx")
		writeFile(t, dir, "unrelated.pdf")

		s := NewSearcher(testSettings(dir), &fakeKB{}, discard())
		matches := s.Search(ctx, "数学作业")

		require.NotEmpty(t, matches)
		assert.Equal(t, "数学作业.docx", matches[0].Name)
		assert.Equal(t, sourceFilenameMatch, matches[0].Source)
	})

	t.Run("generated and disallowed files excluded", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "数学作业_chatflow_index.txt")
		writeFile(t, dir, "数学作业.exe")

		s := NewSearcher(testSettings(dir), &fakeKB{}, discard())
		assert.Empty(t, s.Search(ctx, "数学作业"))
	})

	t.Run("knowledge base record resolves recorded path", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "项目报告.docx")

		record := &domain.IndexRecord{
			FileName: "项目报告.docx",
			FilePath: path,
			DocType:  "项目报告",
			Summary:  "文件【项目报告.docx】相关内容：季度项目进展",
			Source:   domain.SummaryRemoteAI,
		}
		kb := &fakeKB{docs: []driven.KBDocument{{ID: "d1", Content: record.Format()}}}

		s := NewSearcher(testSettings(dir), kb, discard())
		matches := s.Search(ctx, "项目进展")

		require.NotEmpty(t, matches)
		assert.Equal(t, sourceKnowledgeBase, matches[0].Source)
		assert.Equal(t, path, matches[0].Path)
		assert.Contains(t, matches[0].Summary, "项目进展")
	})

	t.Run("stale recorded path infers monitor dir", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "笔记.md")

		record := &domain.IndexRecord{
			FileName: "笔记.md",
			FilePath: "/old/location/笔记.md",
			Summary:  "学习笔记",
			Source:   domain.SummaryLocalHeuristic,
		}
		kb := &fakeKB{docs: []driven.KBDocument{{Content: record.Format()}}}

		s := NewSearcher(testSettings(dir), kb, discard())
		matches := s.Search(ctx, "笔记")

		require.NotEmpty(t, matches)
		assert.Equal(t, sourceInferredPath, matches[0].Source)
		assert.Equal(t, filepath.Join(dir, "笔记.md"), matches[0].Path)
	})

	t.Run("knowledge base failure degrades to local", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "report.docx")

		s := NewSearcher(testSettings(dir), &fakeKB{err: assert.AnError}, discard())
		matches := s.Search(ctx, "report")

		require.NotEmpty(t, matches)
		assert.Equal(t, sourceFilenameMatch, matches[0].Source)
	})

	t.Run("duplicate paths collapse", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "report.docx")

		record := &domain.IndexRecord{FileName: "report.docx", FilePath: path, Summary: "x"}
		kb := &fakeKB{docs: []driven.KBDocument{{Content: record.Format()}}}

		s := NewSearcher(testSettings(dir), kb, discard())
		matches := s.Search(ctx, "report")

		require.Len(t, matches, 1)
		assert.Equal(t, sourceKnowledgeBase, matches[0].Source)
	})

	t.Run("recent filter keeps fresh files", func(t *testing.T) {
		dir := t.TempDir()
		fresh := writeFile(t, dir, "新报告.docx")
		stale := writeFile(t, dir, "旧报告.docx")
		old := time.Now().Add(-10 * 24 * time.Hour)
		require.NoError(t, os.Chtimes(stale, old, old))

		s := NewSearcher(testSettings(dir), &fakeKB{}, discard())
		matches := s.Search(ctx, "最近的报告")

		require.Len(t, matches, 1)
		assert.Equal(t, fresh, matches[0].Path)
	})

	t.Run("yesterday filter matches modification day", func(t *testing.T) {
		dir := t.TempDir()
		yesterdayFile := writeFile(t, dir, "昨天报告.docx")
		writeFile(t, dir, "今天报告.docx")
		yesterday := time.Now().AddDate(0, 0, -1)
		require.NoError(t, os.Chtimes(yesterdayFile, yesterday, yesterday))

		s := NewSearcher(testSettings(dir), &fakeKB{}, discard())
		matches := s.Search(ctx, "昨天的报告")

		require.Len(t, matches, 1)
		assert.Equal(t, yesterdayFile, matches[0].Path)
	})
}

func TestTimeReference(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.Local)

	ref, ok := timeReference("帮我打开昨天的文档", now)
	require.True(t, ok)
	assert.Equal(t, 30, ref.day.Day())

	ref, ok = timeReference("open recent files", now)
	require.True(t, ok)
	assert.True(t, ref.recent)

	_, ok = timeReference("数学作业", now)
	assert.False(t, ok)
}
