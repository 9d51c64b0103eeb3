// Package docx extracts text from modern word-processor documents.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor reads DOCX files as OOXML archives and pulls paragraph
// text out of word/document.xml.
type Extractor struct{}

// New creates a DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".docx"}
}

// Extract opens the archive and collects paragraph text. Failures
// become descriptive text.
func (e *Extractor) Extract(_ context.Context, path string) (*domain.ExtractedContent, error) {
	content := &domain.ExtractedContent{
		SourcePath: path,
		Category:   domain.CategoryDocument,
	}

	reader, err := zip.OpenReader(path)
	if err != nil {
		content.Text = fmt.Sprintf("无法打开Word文档: %v", err)
		return content, nil
	}
	defer reader.Close()

	text, err := documentText(&reader.Reader)
	if err != nil {
		content.Text = fmt.Sprintf("无法解析Word文档: %v", err)
		return content, nil
	}
	if text == "" {
		content.Text = "Word文档无文本内容"
		return content, nil
	}

	content.Text = text
	return content, nil
}

// documentXML mirrors the paragraph structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// documentText extracts paragraph text from word/document.xml.
func documentText(reader *zip.Reader) (string, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read document.xml: %w", err)
		}

		var doc documentXML
		if err := xml.Unmarshal(raw, &doc); err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		var b strings.Builder
		for i, para := range doc.Body.Paragraphs {
			if i > 0 {
				b.WriteString("\n")
			}
			for _, r := range para.Runs {
				for _, t := range r.Text {
					b.WriteString(t.Content)
				}
			}
		}
		return strings.TrimSpace(b.String()), nil
	}
	return "", fmt.Errorf("word/document.xml not found in archive")
}
