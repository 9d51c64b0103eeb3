package converter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
	"github.com/veyrane-labs/kbsync/internal/textcodec"
)

// Ensure DocConverter implements the interface.
var _ driven.LegacyConverter = (*DocConverter)(nil)

const (
	// toolTimeout bounds each external tool invocation.
	toolTimeout = 30 * time.Second

	// convertedSuffix doubles as a generated-file marker, so a
	// converted document is never fed back into the pipeline.
	convertedSuffix = "_converted.docx"

	// maxDecodedRunes caps text recovered by the binary decode rung,
	// which tends to drag in long stretches of near-noise.
	maxDecodedRunes = 10000

	// truncationNote trails capped output.
	truncationNote = "\n\n[内容已截断]"

	timeLayout = "2006-01-02 15:04:05"

	// placeholderBody is the document written when no text could be
	// recovered from the legacy container.
	placeholderBody = "该文档为旧版Word格式，未能提取文本内容。\n原始文件名：%s\n文件大小：%d 字节\n转换时间：%s"

	// metadataSection trails every converted document.
	metadataSection = "\n\n文件信息\n原始文件名：%s\n转换时间：%s\n内容长度：%d 字符"
)

// DocConverter converts legacy .doc files to DOCX for upload.
type DocConverter struct {
	runner driven.CommandRunner
	log    *slog.Logger
}

// NewDocConverter creates a converter that shells out through runner.
func NewDocConverter(runner driven.CommandRunner, log *slog.Logger) *DocConverter {
	return &DocConverter{runner: runner, log: log}
}

// Convert extracts whatever text the ladder recovers and writes it as
// a DOCX in a fresh temporary directory. The caller owns the converted
// file and removes it with SafeDelete after use.
func (c *DocConverter) Convert(ctx context.Context, path string) (string, error) {
	text := c.recoverText(ctx, path)
	if text == "" {
		c.log.Warn("no text recovered from legacy document, writing placeholder",
			"path", path)
		text = c.placeholderText(path)
	} else {
		text += fmt.Sprintf(metadataSection,
			filepath.Base(path), time.Now().Format(timeLayout), len([]rune(text)))
	}

	dir, err := os.MkdirTemp("", "kbsync-doc")
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrConversionFailed, err)
	}
	target := filepath.Join(dir, convertedName(path))
	if err := WriteDocxFromText(target, text); err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("%w: %v", domain.ErrConversionFailed, err)
	}
	return target, nil
}

// recoverText works down the ladder, external tools first, then a
// best-effort decode of the raw bytes. Returns empty when nothing
// usable comes out.
func (c *DocConverter) recoverText(ctx context.Context, path string) string {
	text, err := c.toolText(ctx, path)
	if err == nil {
		return text
	}
	c.log.Debug("decoding raw bytes instead", "path", path, "error", err)

	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	decoded, _, err := textcodec.Decode(data)
	if err != nil {
		return ""
	}
	cleaned := textcodec.CleanText(decoded)
	if textcodec.PrintableRatio(cleaned) < 0.6 || len([]rune(cleaned)) < 100 {
		return ""
	}
	if runes := []rune(cleaned); len(runes) > maxDecodedRunes {
		return string(runes[:maxDecodedRunes]) + truncationNote
	}
	return cleaned
}

// toolText tries each external tool in turn and returns the first
// non-empty result.
func (c *DocConverter) toolText(ctx context.Context, path string) (string, error) {
	if c.runner == nil {
		return "", domain.ErrNoExternalTool
	}
	for _, tool := range []string{"antiword", "catdoc"} {
		out, err := c.runner.Run(ctx, toolTimeout, tool, path)
		if err != nil {
			c.log.Debug("conversion tool unavailable", "tool", tool, "error", err)
			continue
		}
		decoded, _, err := textcodec.Decode(out)
		if err != nil {
			continue
		}
		if text := textcodec.CleanText(decoded); text != "" {
			return text, nil
		}
	}
	return "", domain.ErrNoExternalTool
}

// placeholderText describes a document nothing could be recovered from.
func (c *DocConverter) placeholderText(path string) string {
	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	return fmt.Sprintf(placeholderBody,
		filepath.Base(path), size, time.Now().Format(timeLayout))
}

// convertedName derives the output file name for a converted document.
func convertedName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + convertedSuffix
}

// SafeDelete removes a converted temporary file, retrying while
// another process still holds it open, then removes its per-conversion
// directory once empty. Gives up quietly after the retries; a stranded
// file sits in the system temp directory, not among the user's files.
func SafeDelete(path string, log *slog.Logger) {
	const retries = 5
	for i := 0; i < retries; i++ {
		err := os.Remove(path)
		if err == nil || os.IsNotExist(err) {
			os.Remove(filepath.Dir(path))
			return
		}
		time.Sleep(time.Second)
	}
	log.Warn("temporary file could not be removed", "path", path)
}
