package services

import (
	"context"
	"time"

	"github.com/perseus-data/solsync/internal/core/domain"
	"github.com/perseus-data/solsync/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// mockFetcher implements driven.SolFetcher.
type mockFetcher struct {
	source string

	// latestSol is returned once latestErrs are exhausted.
	latestSol   int
	latestErrs  []error
	latestCalls int

	fetchFn    func(ctx context.Context, sol int) (int, error)
	fetchCalls map[int]int
}

var _ driven.SolFetcher = (*mockFetcher)(nil)

func (m *mockFetcher) Source() string { return m.source }

func (m *mockFetcher) LatestSol(_ context.Context) (int, error) {
	call := m.latestCalls
	m.latestCalls++
	if call < len(m.latestErrs) {
		return 0, m.latestErrs[call]
	}
	return m.latestSol, nil
}

func (m *mockFetcher) FetchSol(ctx context.Context, sol int) (int, error) {
	if m.fetchCalls == nil {
		m.fetchCalls = make(map[int]int)
	}
	m.fetchCalls[sol]++
	if m.fetchFn == nil {
		return 0, nil
	}
	return m.fetchFn(ctx, sol)
}

// mockRegistry implements driven.FetcherRegistry over a fixed map.
type mockRegistry struct {
	fetchers map[string]driven.SolFetcher
}

var _ driven.FetcherRegistry = (*mockRegistry)(nil)

func (r *mockRegistry) Fetcher(sourceID string) (driven.SolFetcher, error) {
	fetcher, ok := r.fetchers[sourceID]
	if !ok {
		return nil, domain.ErrUnknownSource
	}
	return fetcher, nil
}

func (r *mockRegistry) Sources() []string {
	sources := make([]string, 0, len(r.fetchers))
	for id := range r.fetchers {
		sources = append(sources, id)
	}
	return sources
}

// recordingSleep captures backoff delays without waiting.
type recordingSleep struct {
	delays []time.Duration
}

func (s *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.delays = append(s.delays, d)
	return nil
}

// strictProgressStore rejects writes under a cancelled context, the
// way the sqlite store's ExecContext does.
type strictProgressStore struct {
	driven.ProgressStore
}

func (s *strictProgressStore) Save(ctx context.Context, progress domain.SourceProgress) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.ProgressStore.Save(ctx, progress)
}

// strictRunStore rejects writes under a cancelled context.
type strictRunStore struct {
	driven.RunStore
}

func (s *strictRunStore) Create(ctx context.Context, run domain.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.RunStore.Create(ctx, run)
}

func (s *strictRunStore) Complete(ctx context.Context, run domain.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.RunStore.Complete(ctx, run)
}

func (s *strictRunStore) SaveDetail(ctx context.Context, detail domain.SourceRunDetail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.RunStore.SaveDetail(ctx, detail)
}
