package driven

import (
	"context"
	"time"
)

// CommandRunner executes an external command and returns its combined
// output. It exists so extractors and converters that shell out can be
// tested without the real binaries installed.
type CommandRunner interface {
	// Run executes the named command with arguments, bounded by timeout.
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error)
}

// LegacyConverter turns a legacy binary document into a modern one the
// extractors can read.
type LegacyConverter interface {
	// Convert produces a converted document next to the source file and
	// returns its path. The caller owns the converted file and is
	// expected to delete it after use.
	Convert(ctx context.Context, path string) (string, error)
}
