package services

import (
	"context"
	"fmt"
	"time"

	"github.com/perseus-data/solsync/internal/core/domain"
	"github.com/perseus-data/solsync/internal/core/ports/driven"
	"github.com/perseus-data/solsync/internal/logger"
)

// resolveAttempts bounds primary-path attempts against the upstream.
const resolveAttempts = 3

// PositionResolver determines the latest sol a source has published.
//
// Primary path: the upstream's latest-item endpoint, retried with
// exponential backoff. Fallback: the highest sol already stored locally
// plus one, reported as degraded. Resolution fails only when the
// upstream is unreachable and the source has no local records.
type PositionResolver struct {
	records driven.RecordStore

	// sleep is overridable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPositionResolver creates a resolver backed by the record store.
func NewPositionResolver(records driven.RecordStore) *PositionResolver {
	return &PositionResolver{
		records: records,
		sleep:   ctxSleep,
	}
}

// Resolve returns the current sol for the fetcher's source.
// degraded is true when the value came from local records. Returns an
// error wrapping domain.ErrUnresolved when neither path produced a sol.
func (r *PositionResolver) Resolve(ctx context.Context, fetcher driven.SolFetcher) (sol int, degraded bool, err error) {
	sourceID := fetcher.Source()

	var lastErr error
	for attempt := 1; attempt <= resolveAttempts; attempt++ {
		sol, err := fetcher.LatestSol(ctx)
		if err == nil {
			logger.Debug("source %s: upstream reports current sol %d", sourceID, sol)
			return sol, false, nil
		}
		lastErr = err
		logger.Warn("source %s: latest-sol attempt %d/%d failed: %v", sourceID, attempt, resolveAttempts, err)

		if attempt < resolveAttempts {
			if serr := r.sleep(ctx, time.Duration(1<<attempt)*time.Second); serr != nil {
				return 0, false, fmt.Errorf("%w: %w", domain.ErrUnresolved, serr)
			}
		}
	}

	// Degraded fallback: advance past the newest local record.
	maxSol, ok, err := r.records.MaxSol(ctx, sourceID)
	if err != nil {
		return 0, false, fmt.Errorf("reading max stored sol: %w", err)
	}
	if !ok {
		return 0, false, fmt.Errorf("%w: upstream unreachable and no local records: %w", domain.ErrUnresolved, lastErr)
	}

	logger.Warn("source %s: falling back to degraded position %d (max stored sol %d)", sourceID, maxSol+1, maxSol)
	return maxSol + 1, true, nil
}

// ctxSleep waits for d or until the context is cancelled.
func ctxSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
