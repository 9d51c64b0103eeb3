package driving

import (
	"context"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
)

// Pipeline runs the full intake sequence for individual files.
type Pipeline interface {
	// Process runs one file through debounce, stability, extraction,
	// summarisation, index generation and upload. Failures in remote
	// stages are absorbed per file; only gate rejections surface as
	// errors.
	Process(ctx context.Context, event domain.FileEvent) error

	// Status returns counters for the current run.
	Status() *PipelineStatus
}

// PipelineStatus represents the aggregate state of the pipeline.
type PipelineStatus struct {
	// Processed is the count of files fully processed.
	Processed int

	// Skipped is the count of events rejected by the gate.
	Skipped int

	// Failed is the count of files whose remote stages failed.
	Failed int
}
