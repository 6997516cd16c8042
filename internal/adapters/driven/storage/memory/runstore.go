package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/perseus-data/solsync/internal/core/domain"
	"github.com/perseus-data/solsync/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu      sync.RWMutex
	runs    map[string]domain.Run
	details map[string][]domain.SourceRunDetail

	// now is overridable in tests for reap-threshold checks.
	now func() time.Time
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs:    make(map[string]domain.Run),
		details: make(map[string][]domain.SourceRunDetail),
		now:     time.Now,
	}
}

// SetNow overrides the clock. Test hook.
func (s *RunStore) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Create inserts a new run.
func (s *RunStore) Create(_ context.Context, run domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[run.ID]; exists {
		return fmt.Errorf("run %s: %w", run.ID, domain.ErrInvalidInput)
	}
	s.runs[run.ID] = run
	return nil
}

// Complete records the run's final state.
func (s *RunStore) Complete(_ context.Context, run domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[run.ID]; !exists {
		return fmt.Errorf("run %s: %w", run.ID, domain.ErrNotFound)
	}
	s.runs[run.ID] = run
	return nil
}

// SaveDetail appends a per-source detail row.
func (s *RunStore) SaveDetail(_ context.Context, detail domain.SourceRunDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details[detail.RunID] = append(s.details[detail.RunID], detail)
	return nil
}

// ReapStale marks abandoned in_progress runs as failed.
func (s *RunStore) ReapStale(_ context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-olderThan)
	reaped := 0
	for id, run := range s.runs {
		if run.Status != domain.StatusInProgress || !run.StartedAt.Before(cutoff) {
			continue
		}
		completed := now.UTC()
		run.Status = domain.StatusFailed
		run.CompletedAt = &completed
		run.ErrorSummary = fmt.Sprintf("abandoned: still in_progress after %s", olderThan)
		s.runs[id] = run
		reaped++
	}
	return reaped, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStore) ListRuns(_ context.Context, limit int) ([]domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.Run, 0, len(s.runs))
	for _, run := range s.runs {
		all = append(all, run)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartedAt.After(all[j].StartedAt) })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// ListDetails returns the detail rows for a run, in write order.
func (s *RunStore) ListDetails(_ context.Context, runID string) ([]domain.SourceRunDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	details := s.details[runID]
	out := make([]domain.SourceRunDetail, len(details))
	copy(out, details)
	return out, nil
}
