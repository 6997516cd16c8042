package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/perseus-data/solsync/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-source sync progress",
	Long: `Shows the durable sync cursor for each configured source: the last
synced sol, when it last synced, the last run outcome, and how many
records are stored locally.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}

	statuses, err := statusReporter.SourceStatuses(context.Background())
	if err != nil {
		return fmt.Errorf("load source statuses: %w", err)
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, headerStyle.Render("SOURCE")+"\t"+
		headerStyle.Render("LAST SOL")+"\t"+
		headerStyle.Render("LAST SYNC")+"\t"+
		headerStyle.Render("STATUS")+"\t"+
		headerStyle.Render("RECORDS"))

	for _, status := range statuses {
		progress := status.Progress

		lastSol := "-"
		lastSync := mutedStyle.Render("never")
		if progress.LastRunStatus != domain.StatusPending {
			lastSol = strconv.Itoa(progress.LastSyncedSol)
			lastSync = progress.LastSyncAt.Format("2006-01-02 15:04")
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			progress.SourceID, lastSol, lastSync,
			renderStatus(progress.LastRunStatus), status.RecordCount)
	}

	if err := w.Flush(); err != nil {
		return err
	}
	cmd.Print(b.String())

	return nil
}
