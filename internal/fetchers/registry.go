package fetchers

import (
	"fmt"
	"sort"

	"github.com/perseus-data/solsync/internal/adapters/driven/feed"
	"github.com/perseus-data/solsync/internal/core/domain"
	"github.com/perseus-data/solsync/internal/core/ports/driven"
)

// Supported source identifiers.
const (
	SourceCuriosity    = "curiosity"
	SourceOpportunity  = "opportunity"
	SourceSpirit       = "spirit"
	SourcePerseverance = "perseverance"
)

// perPage is the page size requested from the upstream feed. A page
// shorter than this marks the end of a sol's results.
const perPage = 100

// Registry holds the closed set of fetcher variants, one per source.
type Registry struct {
	fetchers map[string]driven.SolFetcher
}

var _ driven.FetcherRegistry = (*Registry)(nil)

// NewRegistry builds the registry of all supported sources, wiring
// each variant to the shared feed client and record writer.
func NewRegistry(client *feed.Client, writer driven.RecordWriter) *Registry {
	return &Registry{
		fetchers: map[string]driven.SolFetcher{
			SourceCuriosity:    newPhotosFetcher(SourceCuriosity, client, writer),
			SourceOpportunity:  newPhotosFetcher(SourceOpportunity, client, writer),
			SourceSpirit:       newPhotosFetcher(SourceSpirit, client, writer),
			SourcePerseverance: newImagesFetcher(SourcePerseverance, client, writer),
		},
	}
}

// Fetcher returns the variant registered for sourceID.
func (r *Registry) Fetcher(sourceID string) (driven.SolFetcher, error) {
	fetcher, ok := r.fetchers[sourceID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSource, sourceID)
	}
	return fetcher, nil
}

// Sources returns the registered source identifiers, sorted.
func (r *Registry) Sources() []string {
	sources := make([]string, 0, len(r.fetchers))
	for id := range r.fetchers {
		sources = append(sources, id)
	}
	sort.Strings(sources)
	return sources
}
