// Package presentation extracts slide text from PPTX decks.
package presentation

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor reads PPTX files as OOXML archives and collects the text
// runs of every shape on every slide.
type Extractor struct{}

// New creates a presentation extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".pptx"}
}

// Extract opens the deck and renders slides in order, each under a
// numbered marker line. Failures become descriptive text.
func (e *Extractor) Extract(_ context.Context, path string) (*domain.ExtractedContent, error) {
	content := &domain.ExtractedContent{
		SourcePath: path,
		Category:   domain.CategoryPresentation,
	}

	reader, err := zip.OpenReader(path)
	if err != nil {
		content.Text = fmt.Sprintf("无法打开PPT文件: %v", err)
		return content, nil
	}
	defer reader.Close()

	var slides []string
	for i, file := range slideFiles(&reader.Reader) {
		text, err := slideText(file)
		if err != nil {
			continue
		}
		marker := fmt.Sprintf("--- 幻灯片 %d ---", i+1)
		if text == "" {
			slides = append(slides, marker)
			continue
		}
		slides = append(slides, marker+"\n"+text)
	}

	if len(slides) == 0 {
		content.Text = "PPT文件无文本内容"
		return content, nil
	}
	content.Text = strings.Join(slides, "\n\n")
	return content, nil
}

// slideFiles returns slide entries in presentation order.
func slideFiles(reader *zip.Reader) []*zip.File {
	var slides []*zip.File
	for _, file := range reader.File {
		if strings.HasPrefix(file.Name, "ppt/slides/slide") && strings.HasSuffix(file.Name, ".xml") {
			slides = append(slides, file)
		}
	}
	sort.Slice(slides, func(i, j int) bool {
		// Numeric order: slide2 before slide10.
		if len(slides[i].Name) != len(slides[j].Name) {
			return len(slides[i].Name) < len(slides[j].Name)
		}
		return slides[i].Name < slides[j].Name
	})
	return slides
}

// slideXML mirrors the shape tree of one slide: shapes hold text
// bodies, text bodies hold paragraphs, paragraphs hold runs.
type slideXML struct {
	CSld struct {
		SpTree struct {
			Shapes []struct {
				TxBody struct {
					Paragraphs []struct {
						Runs []struct {
							T string `xml:"t"`
						} `xml:"r"`
					} `xml:"p"`
				} `xml:"txBody"`
			} `xml:"sp"`
		} `xml:"spTree"`
	} `xml:"cSld"`
}

// slideText renders one slide, one line per paragraph.
func slideText(file *zip.File) (string, error) {
	rc, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", file.Name, err)
	}
	raw, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", file.Name, err)
	}

	var slide slideXML
	if err := xml.Unmarshal(raw, &slide); err != nil {
		return "", fmt.Errorf("parse %s: %w", file.Name, err)
	}

	var lines []string
	for _, shape := range slide.CSld.SpTree.Shapes {
		for _, para := range shape.TxBody.Paragraphs {
			var b strings.Builder
			for _, r := range para.Runs {
				b.WriteString(r.T)
			}
			if line := strings.TrimSpace(b.String()); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}
