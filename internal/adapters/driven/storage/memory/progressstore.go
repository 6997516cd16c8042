package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/perseus-data/solsync/internal/core/domain"
	"github.com/perseus-data/solsync/internal/core/ports/driven"
)

// Ensure ProgressStore implements the interface.
var _ driven.ProgressStore = (*ProgressStore)(nil)

// ProgressStore is an in-memory implementation of driven.ProgressStore.
type ProgressStore struct {
	mu       sync.RWMutex
	progress map[string]domain.SourceProgress
}

// NewProgressStore creates a new in-memory progress store.
func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		progress: make(map[string]domain.SourceProgress),
	}
}

// Save stores or updates progress for a source.
func (s *ProgressStore) Save(_ context.Context, progress domain.SourceProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[progress.SourceID] = progress
	return nil
}

// Get retrieves progress for a source.
func (s *ProgressStore) Get(_ context.Context, sourceID string) (*domain.SourceProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	progress, ok := s.progress[sourceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &progress, nil
}

// List returns progress for all known sources, ordered by source id.
func (s *ProgressStore) List(_ context.Context) ([]domain.SourceProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.SourceProgress, 0, len(s.progress))
	for _, progress := range s.progress {
		all = append(all, progress)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SourceID < all[j].SourceID })
	return all, nil
}
