// Package image extracts structural metadata from image files.
//
// Images have no text to extract; instead the pipeline records their
// dimensions, format and EXIF fields as a JSON document, together with
// a base64 copy of the raw bytes for a future multimodal channel. The
// summariser deliberately sends only the file name upstream; the bytes
// never reach the text chat endpoint.
package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor reads image headers and EXIF data.
type Extractor struct{}

// New creates an image extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".tiff"}
}

// metadata is the JSON shape written into the extracted text.
type metadata struct {
	FileName  string            `json:"fileName"`
	Format    string            `json:"format,omitempty"`
	Width     int               `json:"width,omitempty"`
	Height    int               `json:"height,omitempty"`
	SizeBytes int64             `json:"sizeBytes"`
	Exif      map[string]string `json:"exif,omitempty"`
	Data      string            `json:"data,omitempty"`
}

// Extract decodes the image header and EXIF block. Failures become
// descriptive text.
func (e *Extractor) Extract(_ context.Context, path string) (*domain.ExtractedContent, error) {
	content := &domain.ExtractedContent{
		SourcePath: path,
		Category:   domain.CategoryImage,
	}

	info, err := os.Stat(path)
	if err != nil {
		content.Text = fmt.Sprintf("无法读取图片文件: %v", err)
		return content, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		content.Text = fmt.Sprintf("无法读取图片文件: %v", err)
		return content, nil
	}

	meta := metadata{
		FileName:  info.Name(),
		SizeBytes: info.Size(),
		Data:      base64.StdEncoding.EncodeToString(raw),
	}

	if cfg, format, err := image.DecodeConfig(bytes.NewReader(raw)); err == nil {
		meta.Format = format
		meta.Width = cfg.Width
		meta.Height = cfg.Height
	}
	meta.Exif = exifFields(bytes.NewReader(raw))

	encoded, err := json.Marshal(meta)
	if err != nil {
		content.Text = fmt.Sprintf("无法编码图片信息: %v", err)
		return content, nil
	}
	content.Text = string(encoded)
	return content, nil
}

// exifWalker collects tag values as strings.
type exifWalker struct {
	fields map[string]string
}

func (w *exifWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	value := strings.Trim(tag.String(), `"`)
	if value != "" {
		w.fields[string(name)] = value
	}
	return nil
}

// exifFields decodes the EXIF block, if any. Most PNG and BMP files
// carry none, which is not an error.
func exifFields(r *bytes.Reader) map[string]string {
	x, err := exif.Decode(r)
	if err != nil {
		return nil
	}
	walker := &exifWalker{fields: make(map[string]string)}
	if err := x.Walk(walker); err != nil || len(walker.fields) == 0 {
		return nil
	}
	return walker.fields
}
