package cli

import (
	"context"
	"time"

	"github.com/perseus-data/solsync/internal/core/domain"
	"github.com/perseus-data/solsync/internal/core/ports/driving"
)

// mockOrchestrator implements driving.SyncOrchestrator for testing.
type mockOrchestrator struct {
	result *domain.RunResult
	err    error
}

func (m *mockOrchestrator) SyncAll(_ context.Context) (*domain.RunResult, error) {
	return m.result, m.err
}

// mockReporter implements driving.StatusReporter for testing.
type mockReporter struct {
	statuses []driving.SourceStatus
	runs     []driving.RunHistory
	err      error
}

func (m *mockReporter) SourceStatuses(_ context.Context) ([]driving.SourceStatus, error) {
	return m.statuses, m.err
}

func (m *mockReporter) RecentRuns(_ context.Context, limit int) ([]driving.RunHistory, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

// setupCLITest swaps in mock services and returns a cleanup func.
func setupCLITest(orch driving.SyncOrchestrator, reporter driving.StatusReporter) func() {
	oldOrch, oldReporter := syncOrchestrator, statusReporter
	syncOrchestrator = orch
	statusReporter = reporter
	return func() {
		syncOrchestrator = oldOrch
		statusReporter = oldReporter
	}
}

// successfulRunResult builds a two-source result with no failures.
func successfulRunResult() *domain.RunResult {
	completed := time.Date(2026, 8, 1, 12, 5, 0, 0, time.UTC)
	return &domain.RunResult{
		Run: domain.Run{
			ID:               "run-1",
			StartedAt:        time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			CompletedAt:      &completed,
			Status:           domain.StatusSuccess,
			SourcesAttempted: 2,
			SourcesSucceeded: 2,
			RecordsWritten:   40,
		},
		Sources: []domain.SourceOutcome{
			{
				SourceID: "curiosity",
				Resolved: true,
				Detail: domain.SourceRunDetail{
					RunID: "run-1", SourceID: "curiosity",
					StartSol: 93, EndSol: 100,
					SolsAttempted: 8, SolsSucceeded: 8,
					RecordsWritten: 25, Status: domain.StatusSuccess,
				},
			},
			{
				SourceID: "perseverance",
				Resolved: true,
				Detail: domain.SourceRunDetail{
					RunID: "run-1", SourceID: "perseverance",
					StartSol: 893, EndSol: 900,
					SolsAttempted: 8, SolsSucceeded: 8,
					RecordsWritten: 15, Status: domain.StatusSuccess,
				},
			},
		},
	}
}
