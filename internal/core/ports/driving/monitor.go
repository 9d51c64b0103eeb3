package driving

import "context"

// Monitor runs the directory watch loop until cancelled.
type Monitor interface {
	// Run watches the configured directory and feeds events into the
	// pipeline. It blocks until the context is cancelled or the watcher
	// fails irrecoverably.
	Run(ctx context.Context) error
}
