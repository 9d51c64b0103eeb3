package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
)

func TestExtract(t *testing.T) {
	e := New()

	t.Run("utf-8 file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("第一行\n第二行"), 0o644))

		content, err := e.Extract(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, domain.CategoryText, content.Category)
		assert.Equal(t, "第一行\n第二行", content.Text)
	})

	t.Run("gbk file", func(t *testing.T) {
		encoded, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte("中文内容"))
		require.NoError(t, err)
		path := filepath.Join(t.TempDir(), "legacy.txt")
		require.NoError(t, os.WriteFile(path, encoded, 0o644))

		content, err := e.Extract(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, "中文内容", content.Text)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.txt")
		require.NoError(t, os.WriteFile(path, nil, 0o644))

		content, err := e.Extract(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, "文件内容为空", content.Text)
	})

	t.Run("missing file yields descriptive text", func(t *testing.T) {
		content, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "gone.txt"))
		require.NoError(t, err)
		assert.Contains(t, content.Text, "无法读取文件")
	})
}
