package driven

import (
	"context"
	"time"

	"github.com/perseus-data/solsync/internal/core/domain"
)

// RunStore persists the append-only run history ledger.
type RunStore interface {
	// Create inserts a new run with status in_progress.
	Create(ctx context.Context, run domain.Run) error

	// Complete records the run's final status and totals.
	// Called exactly once per run; the row is immutable after.
	Complete(ctx context.Context, run domain.Run) error

	// SaveDetail appends the per-source detail row for a run.
	SaveDetail(ctx context.Context, detail domain.SourceRunDetail) error

	// ReapStale marks runs left in_progress longer than olderThan as
	// failed, with an explanatory summary. Returns the count reaped.
	// Runs at orchestrator startup, before a new run is created.
	ReapStale(ctx context.Context, olderThan time.Duration) (int, error)

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]domain.Run, error)

	// ListDetails returns the per-source details for a run, in the
	// order they were written.
	ListDetails(ctx context.Context, runID string) ([]domain.SourceRunDetail, error)
}
