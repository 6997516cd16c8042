package domain

import (
	"fmt"
	"time"
)

// ErrorType classifies a failed sol fetch for logging and the run ledger.
// Classification is observational; it does not change retry behaviour.
type ErrorType string

const (
	// ErrorTypeTimeout indicates the fetch exceeded its deadline.
	ErrorTypeTimeout ErrorType = "Timeout"

	// ErrorTypeParse indicates a structurally invalid payload.
	ErrorTypeParse ErrorType = "ParseError"

	// ErrorTypeNetwork indicates a transport failure without an HTTP status.
	ErrorTypeNetwork ErrorType = "NetworkError"

	// ErrorTypeCancelled indicates caller-requested cancellation.
	ErrorTypeCancelled ErrorType = "Cancelled"

	// ErrorTypeUnknown covers everything else.
	ErrorTypeUnknown ErrorType = "Unknown"
)

// HTTPErrorType returns the classification for an upstream HTTP status,
// e.g. HTTP_503.
func HTTPErrorType(statusCode int) ErrorType {
	return ErrorType(fmt.Sprintf("HTTP_%d", statusCode))
}

// MaxErrorMessageLen bounds stored error messages so one oversized
// upstream response body cannot bloat the run ledger.
const MaxErrorMessageLen = 500

// FailedSol records one sol that could not be fetched, with its
// classified error. Exists only inside a SourceRunDetail.
type FailedSol struct {
	// Sol is the failed time-unit index.
	Sol int `json:"sol"`

	// ErrorType is the classified failure category.
	ErrorType ErrorType `json:"error_type"`

	// ErrorMessage is the truncated error text.
	ErrorMessage string `json:"error_message"`

	// Timestamp is when the final attempt failed.
	Timestamp time.Time `json:"timestamp"`
}

// NewFailedSol builds a FailedSol with the message truncated to
// MaxErrorMessageLen.
func NewFailedSol(sol int, errType ErrorType, msg string, at time.Time) FailedSol {
	if len(msg) > MaxErrorMessageLen {
		msg = msg[:MaxErrorMessageLen]
	}
	return FailedSol{Sol: sol, ErrorType: errType, ErrorMessage: msg, Timestamp: at}
}

// Run is one orchestrator invocation across all configured sources.
// Created with StatusInProgress, completed exactly once, immutable after.
type Run struct {
	// ID is the unique run identifier.
	ID string

	// StartedAt is when the run began.
	StartedAt time.Time

	// CompletedAt is when the run finished; nil while in progress.
	CompletedAt *time.Time

	// Status is the aggregate outcome.
	Status RunStatus

	// SourcesAttempted counts sources the run tried to sync.
	SourcesAttempted int

	// SourcesSucceeded counts sources whose position resolved and
	// whose window completed.
	SourcesSucceeded int

	// RecordsWritten is the total records inserted across sources.
	RecordsWritten int

	// ErrorSummary carries an explanation for reaped or failed runs.
	ErrorSummary string
}

// SourceRunDetail is the per-source row of the run ledger.
// Written once, after the source's sync completes or aborts.
type SourceRunDetail struct {
	// RunID is the owning run.
	RunID string

	// SourceID identifies the source.
	SourceID string

	// StartSol and EndSol bound the attempted window, inclusive.
	StartSol int
	EndSol   int

	// SolsAttempted, SolsSucceeded and SolsFailed count window units.
	SolsAttempted int
	SolsSucceeded int
	SolsFailed    int

	// RecordsWritten counts records inserted for this source.
	RecordsWritten int

	// DurationSeconds is the wall-clock time spent on this source.
	DurationSeconds float64

	// Status is failed only when position resolution itself failed.
	// Residual failed sols still report success: the lookback window
	// re-covers them on the next scheduled run.
	Status RunStatus

	// FailedSols lists sols still failed after all retry rounds,
	// in window order.
	FailedSols []FailedSol
}

// SourceOutcome is the in-memory result for one source, surfaced to
// the process entrypoint.
type SourceOutcome struct {
	// SourceID identifies the source.
	SourceID string

	// Resolved is false when position resolution failed outright.
	Resolved bool

	// Degraded is true when the position came from local records.
	Degraded bool

	// Detail is the ledger row written for this source.
	Detail SourceRunDetail
}

// RunResult is the completed run handed back to the entrypoint.
type RunResult struct {
	// Run is the completed run row.
	Run Run

	// Sources holds per-source outcomes in configuration order.
	Sources []SourceOutcome
}

// AnyResolutionFailure reports whether any source could not be resolved
// at all. This, and only this, drives a non-zero process exit status.
func (r *RunResult) AnyResolutionFailure() bool {
	for _, s := range r.Sources {
		if !s.Resolved {
			return true
		}
	}
	return false
}
