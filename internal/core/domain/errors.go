package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnresolved indicates the current position for a source could not
	// be determined from either the upstream feed or local records.
	// This is the one condition that aborts a source's sync entirely.
	ErrUnresolved = errors.New("cannot determine current position")

	// ErrParse indicates an upstream payload was structurally invalid.
	ErrParse = errors.New("malformed upstream payload")

	// ErrUnknownSource indicates a source identifier has no registered fetcher.
	ErrUnknownSource = errors.New("unknown source")

	// ErrSyncInProgress indicates a sync is already running.
	ErrSyncInProgress = errors.New("sync in progress")
)

// StatusError reports an upstream HTTP response with a non-success
// status code. The retry classifier maps it to HTTP_<code>.
type StatusError struct {
	// StatusCode is the HTTP status returned by the upstream.
	StatusCode int

	// Message is the upstream's error text, if any.
	Message string

	// URL is the request that failed.
	URL string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream status %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
	}
	return fmt.Sprintf("upstream status %d (URL: %s)", e.StatusCode, e.URL)
}

