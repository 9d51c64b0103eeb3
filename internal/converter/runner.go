// Package converter turns legacy binary documents into modern ones the
// remote knowledge base accepts.
//
// The conversion ladder mirrors extraction: antiword, then catdoc,
// then a best-effort decode of the raw bytes. Whatever text comes out
// is packed into a minimal DOCX archive; when nothing comes out, a
// placeholder document is produced so the upload can still proceed.
package converter

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
)

// Ensure ExecRunner implements the interface.
var _ driven.CommandRunner = (*ExecRunner)(nil)

// ExecRunner runs external commands through os/exec.
type ExecRunner struct{}

// NewExecRunner creates a command runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the command, bounded by timeout, and returns stdout.
func (r *ExecRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", name, err)
	}
	return out, nil
}
