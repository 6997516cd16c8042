package feed

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultHourlyLimit is the documented per-key quota (1000/hour).
	DefaultHourlyLimit = 1000

	// DefaultProactiveRate is the proactive throttle rate in requests
	// per second, kept below the quota so long syncs never trip it.
	DefaultProactiveRate = 1.0

	// MinBuffer is the minimum remaining requests before waiting for reset.
	MinBuffer = 20

	// HeaderRateRemaining is the remaining requests header.
	HeaderRateRemaining = "X-RateLimit-Remaining"

	// HeaderRateReset is the reset timestamp header (Unix seconds).
	HeaderRateReset = "X-RateLimit-Reset"
)

// RateLimiter throttles feed requests with a proactive token bucket and
// reactively backs off when the API reports the quota is nearly spent.
type RateLimiter struct {
	mu        sync.Mutex
	remaining int
	resetTime time.Time
	bucket    *rate.Limiter
	minBuffer int
}

// NewRateLimiter creates a limiter throttled to perSecond requests.
// A non-positive perSecond falls back to DefaultProactiveRate.
func NewRateLimiter(perSecond float64) *RateLimiter {
	if perSecond <= 0 {
		perSecond = DefaultProactiveRate
	}
	return &RateLimiter{
		remaining: DefaultHourlyLimit, // Assume full quota initially
		bucket:    rate.NewLimiter(rate.Limit(perSecond), 1),
		minBuffer: MinBuffer,
	}
}

// Wait blocks until it's safe to make a request.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	remaining := r.remaining
	resetTime := r.resetTime
	r.mu.Unlock()

	if remaining < r.minBuffer && time.Now().Before(resetTime) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(resetTime)):
		}
	}

	return nil
}

// Update records quota headers from a feed response. Responses without
// rate headers leave the tracked state unchanged.
func (r *RateLimiter) Update(resp *http.Response) {
	if resp == nil {
		return
	}

	remaining, err := strconv.Atoi(resp.Header.Get(HeaderRateRemaining))
	if err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.remaining = remaining
	if reset, err := strconv.ParseInt(resp.Header.Get(HeaderRateReset), 10, 64); err == nil {
		r.resetTime = time.Unix(reset, 0)
	}
}
