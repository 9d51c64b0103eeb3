// Package plaintext extracts text files, markdown and CSV.
package plaintext

import (
	"context"
	"fmt"
	"os"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
	"github.com/veyrane-labs/kbsync/internal/textcodec"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor reads text-like files, decoding legacy encodings.
type Extractor struct{}

// New creates a plain-text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".txt", ".md", ".csv"}
}

// Extract reads and decodes the file. Failures become descriptive text.
func (e *Extractor) Extract(_ context.Context, path string) (*domain.ExtractedContent, error) {
	content := &domain.ExtractedContent{
		SourcePath: path,
		Category:   domain.CategoryText,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		content.Text = fmt.Sprintf("无法读取文件: %v", err)
		return content, nil
	}

	text, _, err := textcodec.Decode(data)
	if err != nil {
		content.Text = fmt.Sprintf("无法识别文件编码: %v", err)
		return content, nil
	}

	content.Text = textcodec.CleanText(text)
	if content.Text == "" {
		content.Text = "文件内容为空"
	}
	return content, nil
}
