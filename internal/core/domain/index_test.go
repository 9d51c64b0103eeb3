package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexRecordFormat(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)
	updated := time.Date(2025, 3, 15, 10, 0, 0, 0, time.Local)

	record := &IndexRecord{
		FileName:  "实验报告.docx",
		FilePath:  "/data/watch/实验报告.docx",
		CreatedAt: created,
		UpdatedAt: updated,
		DocType:   "实验报告",
		Summary:   "文件【实验报告.docx】相关内容：本实验验证了排序算法的时间复杂度。",
		Source:    SummaryRemoteAI,
	}

	got := record.Format()

	assert.Contains(t, got, "文件名: 实验报告.docx\n")
	assert.Contains(t, got, "文件路径: /data/watch/实验报告.docx\n")
	assert.Contains(t, got, "创建时间: 2025-03-14 09:26:53\n")
	assert.Contains(t, got, "修改时间: 2025-03-15 10:00:00\n")
	assert.Contains(t, got, "文件类型: 实验报告\n")
	assert.Contains(t, got, "内容总结: 文件【实验报告.docx】相关内容：本实验验证了排序算法的时间复杂度。")
}

func TestIndexRecordRoundTrip(t *testing.T) {
	original := &IndexRecord{
		FileName:  "notes.md",
		FilePath:  "/data/watch/notes.md",
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.Local),
		UpdatedAt: time.Date(2025, 1, 2, 3, 4, 6, 0, time.Local),
		DocType:   GenericDocType,
		Summary:   "文件【notes.md】相关文档",
		Source:    SummaryLocalHeuristic,
	}

	parsed, err := ParseIndexRecord(original.Format())
	require.NoError(t, err)

	assert.Equal(t, original.FileName, parsed.FileName)
	assert.Equal(t, original.FilePath, parsed.FilePath)
	assert.True(t, original.CreatedAt.Equal(parsed.CreatedAt))
	assert.True(t, original.UpdatedAt.Equal(parsed.UpdatedAt))
	assert.Equal(t, original.DocType, parsed.DocType)
	assert.Equal(t, original.Summary, parsed.Summary)
}

func TestParseIndexRecord(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := ParseIndexRecord("   \n  ")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("missing file name", func(t *testing.T) {
		_, err := ParseIndexRecord("文件类型: 通用文档\n内容总结: something")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown lines ignored", func(t *testing.T) {
		parsed, err := ParseIndexRecord("文件名: a.txt\nnot a label line\n未知字段: x\n文件类型: 学习笔记")
		require.NoError(t, err)
		assert.Equal(t, "a.txt", parsed.FileName)
		assert.Equal(t, "学习笔记", parsed.DocType)
	})

	t.Run("bad timestamp left zero", func(t *testing.T) {
		parsed, err := ParseIndexRecord("文件名: a.txt\n创建时间: not-a-time")
		require.NoError(t, err)
		assert.True(t, parsed.CreatedAt.IsZero())
	})
}

func TestIndexRecordSuffix(t *testing.T) {
	remote := &IndexRecord{Source: SummaryRemoteAI}
	assert.Equal(t, ChatflowIndexSuffix, remote.Suffix())

	fallback := &IndexRecord{Source: SummaryLocalHeuristic}
	assert.Equal(t, FallbackIndexSuffix, fallback.Suffix())

	errored := &IndexRecord{Source: SummaryError}
	assert.Equal(t, FallbackIndexSuffix, errored.Suffix())
}

func TestIsGeneratedName(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"report.docx", false},
		{"report_chatflow_index.txt", true},
		{"report_fallback_index.txt", true},
		{"old_index.txt", true},
		{"notes_summary.txt", true},
		{"~$report.docx", true},
		{"legacy_converted.docx", true},
		{"workflow-diagram.png", false},
		{"a_workflow.txt", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsGeneratedName(tc.name))
		})
	}
}
