package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/veyrane-labs/kbsync/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the configured directory and sync files as they change",
	Long: `Starts the daemon: watches the configured directory recursively,
runs every new or changed file through extraction, summarisation and
upload, and serves the local open-file API when one is configured.

Stops cleanly on SIGINT or SIGTERM.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Startup self-test. A dead endpoint is worth knowing about, but
	// files written while it recovers are still picked up, so carry on.
	if err := a.searcher.Ping(ctx); err != nil {
		a.log.Warn("remote endpoint unreachable at startup", "base_url", a.settings.BaseURL, "error", err)
	} else {
		a.log.Info("remote endpoint reachable", "base_url", a.settings.BaseURL)
	}

	w, err := watcher.New(a.settings.MonitorDir, a.pipeline, a.log)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	if a.server != nil {
		go func() {
			if err := a.server.Run(ctx); err != nil {
				a.log.Error("local API server failed", "error", err)
			}
		}()
	}

	a.log.Info("watching", "dir", a.settings.MonitorDir, "backend", a.settings.UploadBackend)
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("watch: %w", err)
	}

	status := a.pipeline.Status()
	cmd.Printf("Stopped. Processed %d, skipped %d, failed %d.\n",
		status.Processed, status.Skipped, status.Failed)
	return nil
}
