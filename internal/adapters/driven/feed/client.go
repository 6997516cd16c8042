package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/perseus-data/solsync/internal/core/domain"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of an error response body is kept.
	maxErrorBody = 512
)

// Client wraps an http.Client with rate limiting and JSON decoding for
// the rover image feed API. The API key, when set, is sent as the
// api_key query parameter on every request.
type Client struct {
	baseURL     string
	apiKey      string
	http        *http.Client
	rateLimiter *RateLimiter
}

// Options configures a feed client. Zero values select defaults.
type Options struct {
	// Timeout bounds each request, DefaultTimeout when zero.
	Timeout time.Duration

	// RatePerSecond is the proactive throttle rate,
	// DefaultProactiveRate when zero.
	RatePerSecond float64
}

// NewClient creates a feed client for the API at baseURL.
func NewClient(baseURL, apiKey string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		http:        &http.Client{Timeout: timeout},
		rateLimiter: NewRateLimiter(opts.RatePerSecond),
	}
}

// GetJSON performs a rate-limited GET of path and decodes the JSON
// response body into v. Non-2xx responses return a *domain.StatusError;
// undecodable bodies return an error wrapping domain.ErrParse.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, v any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	endpoint := c.baseURL + path

	params := url.Values{}
	for key, values := range query {
		params[key] = values
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	requestURL := endpoint
	if encoded := params.Encode(); encoded != "" {
		requestURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.rateLimiter.Update(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.StatusError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			// Endpoint without query params so the key never leaks
			// into logs or stored error messages.
			URL: endpoint,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", domain.ErrParse, path, err)
	}

	return nil
}
