package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/perseus-data/solsync/internal/core/domain"
	"github.com/perseus-data/solsync/internal/core/ports/driven"
	"github.com/perseus-data/solsync/internal/core/ports/driving"
)

// Ensure StatusService implements the interface.
var _ driving.StatusReporter = (*StatusService)(nil)

// StatusService reads stored progress and run history for the
// operator-facing status and history commands.
type StatusService struct {
	sources  []string
	records  driven.RecordStore
	progress driven.ProgressStore
	runs     driven.RunStore
}

// NewStatusService creates a status reporter over the given stores.
func NewStatusService(
	sources []string,
	records driven.RecordStore,
	progress driven.ProgressStore,
	runs driven.RunStore,
) *StatusService {
	return &StatusService{
		sources:  sources,
		records:  records,
		progress: progress,
		runs:     runs,
	}
}

// SourceStatuses returns the cursor and record count for each
// configured source, in configuration order. A source never synced
// reports a pending cursor.
func (s *StatusService) SourceStatuses(ctx context.Context) ([]driving.SourceStatus, error) {
	statuses := make([]driving.SourceStatus, 0, len(s.sources))
	for _, sourceID := range s.sources {
		prog, err := s.progress.Get(ctx, sourceID)
		if errors.Is(err, domain.ErrNotFound) {
			prog = &domain.SourceProgress{SourceID: sourceID, LastRunStatus: domain.StatusPending}
		} else if err != nil {
			return nil, fmt.Errorf("loading progress for %s: %w", sourceID, err)
		}

		count, err := s.records.CountBySource(ctx, sourceID)
		if err != nil {
			return nil, fmt.Errorf("counting records for %s: %w", sourceID, err)
		}

		statuses = append(statuses, driving.SourceStatus{Progress: *prog, RecordCount: count})
	}
	return statuses, nil
}

// RecentRuns returns the latest runs with their per-source details.
func (s *StatusService) RecentRuns(ctx context.Context, limit int) ([]driving.RunHistory, error) {
	runs, err := s.runs.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	history := make([]driving.RunHistory, 0, len(runs))
	for _, run := range runs {
		details, err := s.runs.ListDetails(ctx, run.ID)
		if err != nil {
			return nil, fmt.Errorf("listing details for run %s: %w", run.ID, err)
		}
		history = append(history, driving.RunHistory{Run: run, Details: details})
	}
	return history, nil
}
