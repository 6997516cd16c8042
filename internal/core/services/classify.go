package services

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"

	"github.com/perseus-data/solsync/internal/core/domain"
	"github.com/perseus-data/solsync/internal/core/ports/driven"
	"github.com/perseus-data/solsync/internal/logger"
)

// classifyError maps a sol-fetch failure to its error category.
// Checked in order: HTTP status, deadline, cancellation, parse,
// transport, unknown. Purely observational; retry scheduling lives in
// the orchestrator's round loop, not here.
func classifyError(err error) domain.ErrorType {
	var statusErr *domain.StatusError
	if errors.As(err, &statusErr) {
		return domain.HTTPErrorType(statusErr.StatusCode)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrorTypeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.ErrorTypeTimeout
	}

	if errors.Is(err, context.Canceled) {
		return domain.ErrorTypeCancelled
	}

	if errors.Is(err, domain.ErrParse) {
		return domain.ErrorTypeParse
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return domain.ErrorTypeNetwork
	}

	return domain.ErrorTypeUnknown
}

// fetchClassified wraps one sol fetch, converting any failure into a
// classified FailedSol instead of an error.
func fetchClassified(
	ctx context.Context,
	fetcher driven.SolFetcher,
	sol int,
	now func() time.Time,
) (int, *domain.FailedSol) {
	written, err := fetcher.FetchSol(ctx, sol)
	if err == nil {
		return written, nil
	}

	errType := classifyError(err)
	logger.Debug("source %s sol %d failed (%s): %v", fetcher.Source(), sol, errType, err)
	failed := domain.NewFailedSol(sol, errType, err.Error(), now().UTC())
	return 0, &failed
}
