package presentation

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
)

func writePptx(t *testing.T, slides map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.pptx")
	f, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	for name, content := range slides {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

const slideTemplate = `<?xml version="1.0"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
       xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld><p:spTree>
    <p:sp><p:txBody>
      <a:p><a:r><a:t>%TITLE%</a:t></a:r></a:p>
      <a:p><a:r><a:t>%BODY%</a:t></a:r></a:p>
    </p:txBody></p:sp>
  </p:spTree></p:cSld>
</p:sld>`

func slideWith(title, body string) string {
	s := strings.Replace(slideTemplate, "%TITLE%", title, 1)
	return strings.Replace(s, "%BODY%", body, 1)
}

func TestExtract(t *testing.T) {
	e := New()

	t.Run("slides in numeric order", func(t *testing.T) {
		path := writePptx(t, map[string]string{
			"ppt/slides/slide1.xml":  slideWith("第一页", "介绍"),
			"ppt/slides/slide2.xml":  slideWith("第二页", "展开"),
			"ppt/slides/slide10.xml": slideWith("第十页", "结论"),
		})

		content, err := e.Extract(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, domain.CategoryPresentation, content.Category)
		assert.Equal(t, "--- 幻灯片 1 ---\n第一页\n介绍\n\n--- 幻灯片 2 ---\n第二页\n展开\n\n--- 幻灯片 3 ---\n第十页\n结论", content.Text)
	})

	t.Run("empty deck yields placeholder", func(t *testing.T) {
		path := writePptx(t, map[string]string{
			"ppt/presentation.xml": `<p:presentation xmlns:p="ns"/>`,
		})

		content, err := e.Extract(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, "PPT文件无文本内容", content.Text)
	})

	t.Run("not a zip yields descriptive text", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.pptx")
		require.NoError(t, os.WriteFile(path, []byte("nope"), 0o644))

		content, err := e.Extract(context.Background(), path)
		require.NoError(t, err)
		assert.Contains(t, content.Text, "无法打开PPT文件")
	})
}
