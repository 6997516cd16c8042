package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/perseus-data/solsync/internal/core/domain"
	"github.com/perseus-data/solsync/internal/logger"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronise all configured sources",
	Long: `Runs one synchronisation pass: resolves each source's current sol,
fetches the lookback window, retries failed sols, and records the run
in the history ledger.

Exits non-zero only when a source's position could not be resolved at
all. Sols that stay failed after retries are tolerated; the lookback
window re-covers them on the next run.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}

	ctx := context.Background()

	result, err := syncOrchestrator.SyncAll(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	for _, source := range result.Sources {
		detail := source.Detail

		if !source.Resolved {
			cmd.Printf("%s: %s (position unresolved)\n",
				detail.SourceID, renderStatus(detail.Status))
			continue
		}

		line := fmt.Sprintf("%s: %s sols %d-%d, %d new records",
			detail.SourceID, renderStatus(detail.Status),
			detail.StartSol, detail.EndSol, detail.RecordsWritten)
		if detail.SolsFailed > 0 {
			line += fmt.Sprintf(" (%d sol(s) still failing)", detail.SolsFailed)
		}
		if source.Degraded {
			line += mutedStyle.Render(" [degraded position]")
		}
		cmd.Println(line)
	}

	cmd.Printf("Run %s: %s, %d/%d sources, %d records\n",
		result.Run.ID, renderStatus(result.Run.Status),
		result.Run.SourcesSucceeded, result.Run.SourcesAttempted,
		result.Run.RecordsWritten)

	if result.AnyResolutionFailure() {
		return errors.New("one or more sources could not be resolved")
	}
	if result.Run.Status != domain.StatusSuccess {
		logger.Warn("run %s completed with status %s", result.Run.ID, result.Run.Status)
	}

	return nil
}
