package driven

import "context"

// SolFetcher fetches and parses upstream items for one source.
// Each source has exactly one fetcher variant, selected statically by
// the registry; the closed set avoids runtime-resolved implementations.
type SolFetcher interface {
	// Source returns the source identifier this fetcher serves.
	Source() string

	// LatestSol returns the most recent sol the upstream has published.
	// A single attempt; retry policy belongs to the position resolver.
	LatestSol(ctx context.Context) (int, error)

	// FetchSol fetches every item for one sol, paging through the
	// upstream feed until a short page, and writes parsed items through
	// the record writer. Returns the count of newly written records.
	FetchSol(ctx context.Context, sol int) (int, error)
}

// FetcherRegistry resolves the fetcher variant for a source identifier.
type FetcherRegistry interface {
	// Fetcher returns the fetcher for sourceID, or
	// domain.ErrUnknownSource when no variant is registered.
	Fetcher(sourceID string) (SolFetcher, error)

	// Sources returns all registered source identifiers.
	Sources() []string
}
