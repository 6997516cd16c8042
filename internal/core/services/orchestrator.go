package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/perseus-data/solsync/internal/core/domain"
	"github.com/perseus-data/solsync/internal/core/ports/driven"
	"github.com/perseus-data/solsync/internal/core/ports/driving"
	"github.com/perseus-data/solsync/internal/logger"
)

const (
	// DefaultLookbackSols is the trailing window re-checked every run.
	DefaultLookbackSols = 7

	// DefaultStaleRunThreshold is how long a run may sit in_progress
	// before the reaper considers it abandoned.
	DefaultStaleRunThreshold = time.Hour

	// retryRounds bounds re-attempts of failed sols after the initial
	// pass over the window.
	retryRounds = 3

	// retryBaseDelay is the backoff before the first retry round; it
	// doubles each round: 30s, 60s, 120s.
	retryBaseDelay = 30 * time.Second
)

// Ensure Orchestrator implements the interface.
var _ driving.SyncOrchestrator = (*Orchestrator)(nil)

// Orchestrator drives incremental synchronisation: it reaps abandoned
// runs, resolves each source's current position, walks the lookback
// window sol by sol, retries failed sols in bounded rounds, and records
// progress and run history durably.
//
// Sources are processed sequentially, and sols within a source in
// increasing order. The upstream enforces informal rate limits; the
// design favours predictable low-concurrency load over throughput.
type Orchestrator struct {
	sources        []string
	lookback       int
	staleThreshold time.Duration

	registry driven.FetcherRegistry
	resolver *PositionResolver
	progress driven.ProgressStore
	runs     driven.RunStore

	// sleep and now are overridable in tests.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewOrchestrator creates an orchestrator for the configured sources.
// lookback and staleThreshold fall back to defaults when non-positive.
func NewOrchestrator(
	sources []string,
	lookback int,
	staleThreshold time.Duration,
	registry driven.FetcherRegistry,
	resolver *PositionResolver,
	progress driven.ProgressStore,
	runs driven.RunStore,
) *Orchestrator {
	if lookback <= 0 {
		lookback = DefaultLookbackSols
	}
	if staleThreshold <= 0 {
		staleThreshold = DefaultStaleRunThreshold
	}
	return &Orchestrator{
		sources:        sources,
		lookback:       lookback,
		staleThreshold: staleThreshold,
		registry:       registry,
		resolver:       resolver,
		progress:       progress,
		runs:           runs,
		sleep:          ctxSleep,
		now:            time.Now,
	}
}

// SyncAll runs one full synchronisation pass across all sources.
//
// Unit-level failures are tolerated and surfaced in the run ledger;
// only infrastructure failures (the store itself unreachable) return an
// error, since a run whose bookkeeping cannot be written is not
// meaningfully completable.
func (o *Orchestrator) SyncAll(ctx context.Context) (*domain.RunResult, error) {
	if len(o.sources) == 0 {
		return nil, fmt.Errorf("%w: no sources configured", domain.ErrInvalidInput)
	}

	// Reap before creating the new run so monitoring never sees two
	// concurrent in_progress runs after a crash-restart cycle.
	reaped, err := o.runs.ReapStale(ctx, o.staleThreshold)
	if err != nil {
		return nil, fmt.Errorf("reaping stale runs: %w", err)
	}
	if reaped > 0 {
		logger.Warn("marked %d abandoned run(s) as failed", reaped)
	}

	run := domain.Run{
		ID:        uuid.NewString(),
		StartedAt: o.now().UTC(),
		Status:    domain.StatusInProgress,
	}
	if err := o.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	logger.Info("run %s: syncing %d source(s), lookback %d sols", run.ID, len(o.sources), o.lookback)

	result := &domain.RunResult{Run: run}
	for _, sourceID := range o.sources {
		outcome, err := o.syncSource(ctx, run.ID, sourceID)
		if err != nil {
			return nil, fmt.Errorf("sync %s: %w", sourceID, err)
		}
		result.Sources = append(result.Sources, outcome)

		// Cancellation aborts remaining sources but still flushes
		// the run history accumulated so far.
		if ctx.Err() != nil {
			logger.Warn("run %s: cancelled, skipping remaining sources", run.ID)
			break
		}
	}

	// The ledger row must complete even when the run was cancelled,
	// otherwise the run sits in_progress until the next reap.
	run = o.completeRun(run, result.Sources)
	if err := o.runs.Complete(context.WithoutCancel(ctx), run); err != nil {
		return nil, fmt.Errorf("completing run: %w", err)
	}
	result.Run = run

	logger.Info("run %s: %s, %d/%d sources succeeded, %d records written",
		run.ID, run.Status, run.SourcesSucceeded, run.SourcesAttempted, run.RecordsWritten)
	return result, nil
}

// completeRun fills in the run's final status and aggregate totals.
func (o *Orchestrator) completeRun(run domain.Run, outcomes []domain.SourceOutcome) domain.Run {
	var succeeded, records int
	partial := false
	for _, oc := range outcomes {
		if oc.Resolved {
			succeeded++
			if oc.Detail.SolsFailed > 0 {
				partial = true
			}
		}
		records += oc.Detail.RecordsWritten
	}

	run.SourcesAttempted = len(outcomes)
	run.SourcesSucceeded = succeeded
	run.RecordsWritten = records
	switch {
	case len(outcomes) > 0 && succeeded == 0:
		run.Status = domain.StatusFailed
		run.ErrorSummary = "no source could be resolved"
	case succeeded < len(outcomes) || partial:
		run.Status = domain.StatusPartial
	default:
		run.Status = domain.StatusSuccess
	}
	completed := o.now().UTC()
	run.CompletedAt = &completed
	return run
}

// syncSource runs the per-source state machine:
// Idle -> Resolving -> Syncing -> Retrying -> Completed | Aborted.
// Returns an error only for infrastructure failures.
func (o *Orchestrator) syncSource(ctx context.Context, runID, sourceID string) (domain.SourceOutcome, error) {
	started := o.now()

	// Bookkeeping writes use a detached context: cancellation aborts
	// fetching, but progress and run history accumulated so far must
	// still be flushed.
	flushCtx := context.WithoutCancel(ctx)

	fetcher, err := o.registry.Fetcher(sourceID)
	if err != nil {
		return o.abortSource(flushCtx, runID, sourceID, started, err)
	}

	// Resolving.
	currentSol, degraded, err := o.resolver.Resolve(ctx, fetcher)
	if err != nil {
		if errors.Is(err, domain.ErrUnresolved) {
			return o.abortSource(flushCtx, runID, sourceID, started, err)
		}
		return domain.SourceOutcome{}, err
	}

	window := domain.ComputeWindow(currentSol, o.lookback)
	logger.Info("source %s: syncing window [%d, %d]%s",
		sourceID, window.Start, window.End, degradedSuffix(degraded))

	prog, err := o.loadProgress(flushCtx, sourceID)
	if err != nil {
		return domain.SourceOutcome{}, err
	}
	prog.LastRunStatus = domain.StatusInProgress
	if err := o.progress.Save(flushCtx, prog); err != nil {
		return domain.SourceOutcome{}, fmt.Errorf("saving progress: %w", err)
	}

	// Syncing: initial pass, each sol independent. cursorSol tracks
	// the last sol actually reached, so a cancellation-truncated
	// window never claims unattempted sols as synced.
	var (
		written   int
		attempted int
		succeeded int
		failed    []domain.FailedSol
	)
	cursorSol := prog.LastSyncedSol
	for _, sol := range window.Sols() {
		attempted++
		n, failure := fetchClassified(ctx, fetcher, sol, o.now)
		if failure == nil {
			succeeded++
			written += n
			cursorSol = sol
			continue
		}
		failed = append(failed, *failure)
		if failure.ErrorType == domain.ErrorTypeCancelled {
			break
		}
		cursorSol = sol
	}

	// Retrying: each round folds the previous failure list into a new
	// one; a sol that succeeds on retry leaves the set.
	for round := 1; round <= retryRounds && len(failed) > 0 && ctx.Err() == nil; round++ {
		delay := retryBaseDelay << (round - 1)
		logger.Info("source %s: %d failed sol(s), retry round %d/%d after %s",
			sourceID, len(failed), round, retryRounds, delay)
		if err := o.sleep(ctx, delay); err != nil {
			break
		}

		var remaining []domain.FailedSol
		for i, prior := range failed {
			n, failure := fetchClassified(ctx, fetcher, prior.Sol, o.now)
			if failure == nil {
				succeeded++
				written += n
				continue
			}
			remaining = append(remaining, *failure)
			if failure.ErrorType == domain.ErrorTypeCancelled {
				remaining = append(remaining, failed[i+1:]...)
				break
			}
		}
		failed = remaining
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].Sol < failed[j].Sol })

	// Completed: residual failed sols still report success at the
	// source level. The lookback window re-covers them next run, so a
	// hard failure is reserved for resolution itself failing.
	progStatus := domain.StatusSuccess
	if len(failed) > 0 {
		progStatus = domain.StatusPartial
		logger.Warn("source %s: %d sol(s) still failed after retries", sourceID, len(failed))
	}

	prog.LastSyncedSol = cursorSol
	prog.LastSyncAt = o.now().UTC()
	prog.LastRunStatus = progStatus
	prog.RecordsWrittenLastRun = written
	if err := o.progress.Save(flushCtx, prog); err != nil {
		return domain.SourceOutcome{}, fmt.Errorf("saving progress: %w", err)
	}

	detail := domain.SourceRunDetail{
		RunID:           runID,
		SourceID:        sourceID,
		StartSol:        window.Start,
		EndSol:          window.End,
		SolsAttempted:   attempted,
		SolsSucceeded:   succeeded,
		SolsFailed:      len(failed),
		RecordsWritten:  written,
		DurationSeconds: o.now().Sub(started).Seconds(),
		Status:          domain.StatusSuccess,
		FailedSols:      failed,
	}
	if err := o.runs.SaveDetail(flushCtx, detail); err != nil {
		return domain.SourceOutcome{}, fmt.Errorf("saving run detail: %w", err)
	}

	return domain.SourceOutcome{
		SourceID: sourceID,
		Resolved: true,
		Degraded: degraded,
		Detail:   detail,
	}, nil
}

// abortSource records a resolution failure: the one per-source outcome
// treated as a hard failure. Callers pass a detached context so the
// ledger writes survive cancellation.
func (o *Orchestrator) abortSource(
	flushCtx context.Context,
	runID, sourceID string,
	started time.Time,
	cause error,
) (domain.SourceOutcome, error) {
	logger.Error("source %s: aborted: %v", sourceID, cause)

	prog, err := o.loadProgress(flushCtx, sourceID)
	if err != nil {
		return domain.SourceOutcome{}, err
	}
	prog.LastSyncAt = o.now().UTC()
	prog.LastRunStatus = domain.StatusFailed
	prog.RecordsWrittenLastRun = 0
	if err := o.progress.Save(flushCtx, prog); err != nil {
		return domain.SourceOutcome{}, fmt.Errorf("saving progress: %w", err)
	}

	detail := domain.SourceRunDetail{
		RunID:           runID,
		SourceID:        sourceID,
		DurationSeconds: o.now().Sub(started).Seconds(),
		Status:          domain.StatusFailed,
	}
	if err := o.runs.SaveDetail(flushCtx, detail); err != nil {
		return domain.SourceOutcome{}, fmt.Errorf("saving run detail: %w", err)
	}

	return domain.SourceOutcome{SourceID: sourceID, Resolved: false, Detail: detail}, nil
}

// loadProgress returns the stored cursor for a source, or a fresh
// pending cursor on first sync.
func (o *Orchestrator) loadProgress(ctx context.Context, sourceID string) (domain.SourceProgress, error) {
	prog, err := o.progress.Get(ctx, sourceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.SourceProgress{SourceID: sourceID, LastRunStatus: domain.StatusPending}, nil
		}
		return domain.SourceProgress{}, fmt.Errorf("loading progress: %w", err)
	}
	return *prog, nil
}

func degradedSuffix(degraded bool) string {
	if degraded {
		return " (degraded position)"
	}
	return ""
}
