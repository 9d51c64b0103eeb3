package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veyrane-labs/kbsync/internal/adapters/driven/config/file"
	"github.com/veyrane-labs/kbsync/internal/adapters/driven/storage/sqlite"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
)

// statusJournal is normally opened from configuration; tests inject a
// mock.
var statusJournal driven.SyncJournal

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent sync outcomes from the journal",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 20, "number of entries to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	journal := statusJournal
	if journal == nil {
		store, err := file.NewConfigStore("")
		if err != nil {
			return fmt.Errorf("open config store: %w", err)
		}
		path := store.GetString(file.KeyJournalPath)
		if path == "" {
			cmd.Println("Sync journal is not configured (set journal.path).")
			return nil
		}

		j, err := sqlite.NewJournal(path)
		if err != nil {
			return fmt.Errorf("open sync journal: %w", err)
		}
		defer j.Close() //nolint:errcheck // read-only use
		journal = j
	}

	entries, err := journal.Recent(context.Background(), statusLimit)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	if len(entries) == 0 {
		cmd.Println("No sync activity recorded.")
		return nil
	}

	for _, e := range entries {
		outcome := "ok"
		if e.Error != "" {
			outcome = "error: " + e.Error
		}
		cmd.Printf("%s  %-8s  index=%-5t original=%-5t  %s  %s\n",
			e.ProcessedAt.Format("2006-01-02 15:04:05"),
			e.Source, e.IndexUploaded, e.OriginalUploaded, e.Path, outcome)
	}
	return nil
}
