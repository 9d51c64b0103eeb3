// Package pdf extracts text from PDF files page by page.
package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor reads PDF files in-process and concatenates per-page text.
type Extractor struct{}

// New creates a PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".pdf"}
}

// Extract pulls the plain text of every page. Failures become
// descriptive text; pages that fail individually are skipped.
func (e *Extractor) Extract(_ context.Context, path string) (*domain.ExtractedContent, error) {
	content := &domain.ExtractedContent{
		SourcePath: path,
		Category:   domain.CategoryPDF,
	}

	text, err := readAllPages(path)
	if err != nil {
		content.Text = fmt.Sprintf("无法解析PDF文件: %v", err)
		return content, nil
	}
	if text == "" {
		content.Text = "PDF文件无文本内容，可能是扫描件"
		return content, nil
	}

	content.Text = text
	return content, nil
}

// readAllPages opens the file and walks its pages. The parser panics
// on some malformed files, so the whole walk runs under a recover.
func readAllPages(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if pageText = strings.TrimSpace(pageText); pageText != "" {
			pages = append(pages, pageText)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}
