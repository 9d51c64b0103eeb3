package driven

import (
	"context"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
)

// Summariser produces a classified summary of extracted content.
//
// Summarise always returns a usable record: implementations fall back
// to local heuristics when the remote engine fails, so summarisation
// can never abort the pipeline.
type Summariser interface {
	// Summarise classifies and summarises the content of one file.
	Summarise(ctx context.Context, fileName, content string) *domain.SummaryRecord
}
