package domain

import "time"

// RunStatus describes the outcome of a sync pass, at both the
// per-source progress level and the run level.
type RunStatus string

const (
	// StatusPending indicates a source that has never been synced.
	StatusPending RunStatus = "pending"

	// StatusInProgress indicates a sync currently underway.
	StatusInProgress RunStatus = "in_progress"

	// StatusSuccess indicates a sync that completed with no failed sols.
	StatusSuccess RunStatus = "success"

	// StatusPartial indicates a sync that completed with some sols
	// still failed after retries.
	StatusPartial RunStatus = "partial"

	// StatusFailed indicates a sync that could not complete.
	StatusFailed RunStatus = "failed"
)

// IsValidRunStatus returns true if s is a recognised RunStatus value.
func IsValidRunStatus(s string) bool {
	switch RunStatus(s) {
	case StatusPending, StatusInProgress, StatusSuccess, StatusPartial, StatusFailed:
		return true
	default:
		return false
	}
}

// SourceProgress is the durable per-source sync cursor.
// Created on the first sync attempt for a source, mutated only by the
// orchestrator, never deleted.
type SourceProgress struct {
	// SourceID identifies the source this cursor belongs to.
	SourceID string

	// LastSyncedSol is the high-water mark: the end of the last
	// completed window. Monotonic, except that the lookback window
	// re-covers it on every run.
	LastSyncedSol int

	// LastSyncAt is when the last sync pass finished.
	LastSyncAt time.Time

	// LastRunStatus is the outcome of the last sync pass.
	LastRunStatus RunStatus

	// RecordsWrittenLastRun counts records inserted by the last pass.
	RecordsWrittenLastRun int
}
