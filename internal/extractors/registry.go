package extractors

import (
	"context"
	"os"
	"strings"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
	"github.com/veyrane-labs/kbsync/internal/textcodec"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps file extensions to extractors.
type Registry struct {
	byExtension map[string]driven.Extractor
	fallback    driven.Extractor
}

// NewRegistry creates an empty registry. Unknown extensions get a
// best-effort plain-text decode.
func NewRegistry() *Registry {
	return &Registry{
		byExtension: make(map[string]driven.Extractor),
		fallback:    &lastResortExtractor{},
	}
}

// Register adds an extractor for each of its extensions. Later
// registrations win on conflict.
func (r *Registry) Register(e driven.Extractor) {
	for _, ext := range e.Extensions() {
		r.byExtension[strings.ToLower(ext)] = e
	}
}

// ForExtension returns the extractor for the lowercased extension.
func (r *Registry) ForExtension(ext string) driven.Extractor {
	if e, ok := r.byExtension[strings.ToLower(ext)]; ok {
		return e
	}
	return r.fallback
}

// lastResortExtractor attempts a permissive plain-text decode of a
// file with no registered extractor. When nothing readable comes out,
// the text is empty and the pipeline still produces an index record
// from file metadata alone.
type lastResortExtractor struct{}

func (e *lastResortExtractor) Extensions() []string { return nil }

func (e *lastResortExtractor) Extract(_ context.Context, path string) (*domain.ExtractedContent, error) {
	content := &domain.ExtractedContent{
		SourcePath: path,
		Category:   domain.CategoryText,
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return content, nil
	}
	text, _, err := textcodec.Decode(raw)
	if err != nil {
		return content, nil
	}
	content.Text = textcodec.CleanText(text)
	return content, nil
}
