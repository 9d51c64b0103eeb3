package driven

import (
	"context"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
)

// Extractor pulls text out of one content category.
//
// Extraction never fails the pipeline: implementations encode failures
// as a descriptive Text value on the returned content. The error return
// exists only for programming mistakes (nil context, empty path).
type Extractor interface {
	// Extensions returns the lowercased file extensions this extractor
	// handles, including the dot.
	Extensions() []string

	// Extract reads the file and returns its content.
	Extract(ctx context.Context, path string) (*domain.ExtractedContent, error)
}

// ExtractorRegistry selects the extractor for a file extension.
type ExtractorRegistry interface {
	// Register adds an extractor for each of its extensions. Later
	// registrations win on conflict.
	Register(e Extractor)

	// ForExtension returns the extractor for the lowercased extension,
	// falling back to the default extractor for unknown extensions.
	ForExtension(ext string) Extractor
}
