package cli

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driving"
	"github.com/veyrane-labs/kbsync/internal/core/services"
)

// syncPipeline is normally wired by newApp; tests inject a mock.
var syncPipeline driving.Pipeline

var syncCmd = &cobra.Command{
	Use:   "sync <path>",
	Short: "Run the pipeline once over a file or directory",
	Long: `Processes a single file, or every eligible file under a directory,
through the same extraction, summarisation and upload pipeline the
watch daemon uses. Useful for backfilling files that existed before
watching started.`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	pipeline := syncPipeline
	if pipeline == nil {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		pipeline = a.pipeline
	}

	root, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	ctx := context.Background()
	var processed, skipped, failed int

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		event := domain.FileEvent{Path: path, Kind: domain.EventCreated, ObservedAt: time.Now()}
		switch perr := pipeline.Process(ctx, event); {
		case perr == nil:
			processed++
			cmd.Printf("Synced %s\n", path)
		case services.IsGateRejection(perr):
			skipped++
		default:
			failed++
			cmd.Printf("Failed %s: %v\n", path, perr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sync %s: %w", root, err)
	}

	cmd.Printf("Done. Processed %d, skipped %d, failed %d.\n", processed, skipped, failed)
	if failed > 0 {
		return fmt.Errorf("%d file(s) failed", failed)
	}
	return nil
}
