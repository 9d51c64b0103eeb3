package server

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
)

// openTimeout bounds the open-file command; desktop handlers that hang
// must not hold a request open.
const openTimeout = 10 * time.Second

// Opener launches a file in the operating system's default application.
type Opener struct {
	runner driven.CommandRunner
	goos   string
}

// NewOpener creates an opener for the current operating system.
func NewOpener(runner driven.CommandRunner) *Opener {
	return &Opener{runner: runner, goos: runtime.GOOS}
}

// Open hands the path to the platform's default-open command.
func (o *Opener) Open(ctx context.Context, path string) error {
	var err error
	switch o.goos {
	case "windows":
		_, err = o.runner.Run(ctx, openTimeout, "cmd", "/c", "start", "", path)
	case "darwin":
		_, err = o.runner.Run(ctx, openTimeout, "open", path)
	default:
		_, err = o.runner.Run(ctx, openTimeout, "xdg-open", path)
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	return nil
}
