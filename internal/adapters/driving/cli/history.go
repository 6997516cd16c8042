package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// defaultHistoryLimit bounds the runs shown without an explicit flag.
const defaultHistoryLimit = 10

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sync runs",
	Long: `Shows recent runs from the history ledger, newest first, with the
per-source window, record counts and any sols that remained failed.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", defaultHistoryLimit,
		"maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}

	runs, err := statusReporter.RecentRuns(context.Background(), historyLimit)
	if err != nil {
		return fmt.Errorf("load run history: %w", err)
	}

	if len(runs) == 0 {
		cmd.Println("No runs recorded yet.")
		return nil
	}

	for _, entry := range runs {
		run := entry.Run

		duration := mutedStyle.Render("in progress")
		if run.CompletedAt != nil {
			duration = run.CompletedAt.Sub(run.StartedAt).Round(time.Second).String()
		}

		cmd.Printf("%s %s  %s  %s  %s  %d/%d sources  %d records\n",
			headerStyle.Render("Run"), run.ID,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			renderStatus(run.Status), duration,
			run.SourcesSucceeded, run.SourcesAttempted, run.RecordsWritten)
		if run.ErrorSummary != "" {
			cmd.Printf("  %s\n", errorStyle.Render(run.ErrorSummary))
		}

		var b strings.Builder
		w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		for _, detail := range entry.Details {
			failed := ""
			if detail.SolsFailed > 0 {
				sols := make([]string, 0, len(detail.FailedSols))
				for _, f := range detail.FailedSols {
					sols = append(sols, fmt.Sprintf("%d (%s)", f.Sol, f.ErrorType))
				}
				failed = "failed: " + strings.Join(sols, ", ")
			}
			fmt.Fprintf(w, "  %s\tsols %d-%d\t%d records\t%s\t%s\n",
				detail.SourceID, detail.StartSol, detail.EndSol,
				detail.RecordsWritten, renderStatus(detail.Status), failed)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		cmd.Print(b.String())
	}

	return nil
}
