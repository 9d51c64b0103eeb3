package driven

import "context"

// StabilityChecker waits until a file has stopped being written.
type StabilityChecker interface {
	// WaitStable blocks until the file's size has held steady across a
	// settling window. Returns domain.ErrStillWriting when the file is
	// still growing at the end of the window, or the context error when
	// cancelled.
	WaitStable(ctx context.Context, path string) error
}
