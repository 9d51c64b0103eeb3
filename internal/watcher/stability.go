package watcher

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
)

// Ensure PollingStabilityChecker implements the interface.
var _ driven.StabilityChecker = (*PollingStabilityChecker)(nil)

// PollingStabilityChecker decides whether a file has finished being
// written by sampling its size across a settling window. Two samples
// separated by the configured delay must agree before the file is
// considered stable.
type PollingStabilityChecker struct {
	delay time.Duration
}

// NewPollingStabilityChecker creates a checker with the given settling
// delay. Non-positive delays fall back to the default.
func NewPollingStabilityChecker(delay time.Duration) *PollingStabilityChecker {
	if delay <= 0 {
		delay = domain.DefaultStabilisationDelay
	}
	return &PollingStabilityChecker{delay: delay}
}

// WaitStable blocks through the settling window and compares sizes.
func (c *PollingStabilityChecker) WaitStable(ctx context.Context, path string) error {
	if err := sleepCtx(ctx, c.delay); err != nil {
		return err
	}
	first, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat during settle: %w", err)
	}

	if err := sleepCtx(ctx, c.delay); err != nil {
		return err
	}
	second, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat during settle: %w", err)
	}

	if first.Size() != second.Size() {
		return fmt.Errorf("%w: %s", domain.ErrStillWriting, path)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
