// Package feed provides a rate-limited HTTP client for the upstream
// rover image feed API. Fetcher variants build on its GetJSON helper;
// non-success responses surface as domain.StatusError so callers can
// classify failures by status code.
package feed
