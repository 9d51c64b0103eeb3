// Package legacydoc extracts text from legacy binary .doc files.
//
// Extraction works down a ladder: the antiword tool, then catdoc, then
// a best-effort decode of the raw bytes. Each rung is skipped when its
// tool is missing or produces nothing usable.
package legacydoc

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
	"github.com/veyrane-labs/kbsync/internal/textcodec"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const (
	// toolTimeout bounds each external tool invocation.
	toolTimeout = 30 * time.Second

	// minDecodedRunes is the least content a best-effort decode must
	// yield to count as text rather than binary noise.
	minDecodedRunes = 100

	// maxDecodedRunes caps best-effort output, which tends to drag in
	// formatting junk from the binary container.
	maxDecodedRunes = 10000

	// minPrintableRatio separates decoded text from decoded noise.
	minPrintableRatio = 0.6

	// truncationNote is appended when best-effort output is capped.
	truncationNote = "\n\n[内容已截断]"
)

// Extractor reads legacy .doc files via external tools with a binary
// decode fallback.
type Extractor struct {
	runner driven.CommandRunner
}

// New creates a legacy-doc extractor that shells out through runner.
func New(runner driven.CommandRunner) *Extractor {
	return &Extractor{runner: runner}
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".doc"}
}

// Extract works down the tool ladder. Failures become descriptive text.
func (e *Extractor) Extract(ctx context.Context, path string) (*domain.ExtractedContent, error) {
	content := &domain.ExtractedContent{
		SourcePath: path,
		Category:   domain.CategoryLegacyDoc,
	}

	if text := e.runTool(ctx, "antiword", path); text != "" {
		content.Text = text
		return content, nil
	}
	if text := e.runTool(ctx, "catdoc", path); text != "" {
		content.Text = text
		return content, nil
	}

	text, truncated, err := decodeRawDoc(path)
	if err != nil {
		content.Text = fmt.Sprintf("无法提取DOC文档内容: %v", err)
		return content, nil
	}
	content.Text = text
	content.Truncated = truncated
	return content, nil
}

// runTool invokes one external converter and cleans its output. Any
// failure collapses to an empty string so the ladder moves on.
func (e *Extractor) runTool(ctx context.Context, tool, path string) string {
	if e.runner == nil {
		return ""
	}
	out, err := e.runner.Run(ctx, toolTimeout, tool, path)
	if err != nil {
		return ""
	}
	text, _, err := textcodec.Decode(out)
	if err != nil {
		return ""
	}
	return textcodec.CleanText(text)
}

// decodeRawDoc decodes the container bytes directly. Only accepted
// when enough printable text comes out.
func decodeRawDoc(path string) (text string, truncated bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("read file: %w", err)
	}

	decoded, _, err := textcodec.Decode(data)
	if err != nil {
		return "", false, fmt.Errorf("decode bytes: %w", err)
	}

	cleaned := keepPrintableRuns(decoded)
	if len([]rune(cleaned)) < minDecodedRunes {
		return "", false, fmt.Errorf("too little readable text recovered")
	}
	if textcodec.PrintableRatio(cleaned) < minPrintableRatio {
		return "", false, fmt.Errorf("content looks like binary data")
	}

	runes := []rune(cleaned)
	if len(runes) > maxDecodedRunes {
		return string(runes[:maxDecodedRunes]) + truncationNote, true, nil
	}
	return cleaned, false, nil
}

// keepPrintableRuns drops the control noise a binary container decodes
// into, keeping letters, digits, punctuation and CJK text.
func keepPrintableRuns(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t' || r == ' ':
			b.WriteRune(r)
		case r >= 0x20 && r < 0x7F:
			b.WriteRune(r)
		case r >= 0x4E00 && r <= 0x9FFF:
			b.WriteRune(r)
		case r >= 0x3000 && r <= 0x303F:
			b.WriteRune(r)
		case r >= 0xFF00 && r <= 0xFFEF:
			b.WriteRune(r)
		}
	}
	return textcodec.CleanText(b.String())
}
