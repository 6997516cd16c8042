package driving

import (
	"context"

	"github.com/perseus-data/solsync/internal/core/domain"
)

// SyncOrchestrator drives incremental synchronisation of sources.
type SyncOrchestrator interface {
	// SyncAll reaps stale runs, then synchronises every configured
	// source sequentially and records the run in the history ledger.
	// Unit-level failures do not produce an error; only infrastructure
	// failures (store unreachable) do.
	SyncAll(ctx context.Context) (*domain.RunResult, error)
}

// StatusReporter exposes stored progress and run history for the
// operator-facing commands.
type StatusReporter interface {
	// SourceStatuses returns progress plus stored-record counts for
	// all configured sources, in configuration order.
	SourceStatuses(ctx context.Context) ([]SourceStatus, error)

	// RecentRuns returns the most recent runs with their per-source
	// details, newest first.
	RecentRuns(ctx context.Context, limit int) ([]RunHistory, error)
}

// SourceStatus pairs a source's progress cursor with its record count.
type SourceStatus struct {
	// Progress is the durable cursor; zero-valued with
	// StatusPending when the source has never synced.
	Progress domain.SourceProgress

	// RecordCount is the number of records stored for the source.
	RecordCount int
}

// RunHistory pairs a run with its per-source detail rows.
type RunHistory struct {
	// Run is the ledger row.
	Run domain.Run

	// Details are the per-source rows, in write order.
	Details []domain.SourceRunDetail
}
