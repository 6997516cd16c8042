// Package memory provides in-memory store implementations.
// Used by service tests and available as a throwaway backend.
package memory

import (
	"context"
	"sync"

	"github.com/perseus-data/solsync/internal/core/domain"
	"github.com/perseus-data/solsync/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore is an in-memory implementation of driven.RecordStore.
type RecordStore struct {
	mu sync.RWMutex
	// records keyed by source, then external id.
	records map[string]map[string]domain.Photo
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[string]map[string]domain.Photo),
	}
}

// UpsertIfAbsent inserts the record unless its external id is taken.
func (s *RecordStore) UpsertIfAbsent(_ context.Context, photo domain.Photo) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bySource, ok := s.records[photo.SourceID]
	if !ok {
		bySource = make(map[string]domain.Photo)
		s.records[photo.SourceID] = bySource
	}
	if _, exists := bySource[photo.ExternalID]; exists {
		return false, nil
	}
	bySource[photo.ExternalID] = photo
	return true, nil
}

// ExistingIDs returns the subset of ids already stored for the source.
func (s *RecordStore) ExistingIDs(_ context.Context, sourceID string, ids []string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing := make(map[string]bool)
	bySource, ok := s.records[sourceID]
	if !ok {
		return existing, nil
	}
	for _, id := range ids {
		if _, found := bySource[id]; found {
			existing[id] = true
		}
	}
	return existing, nil
}

// MaxSol returns the highest stored sol for the source.
func (s *RecordStore) MaxSol(_ context.Context, sourceID string) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bySource, ok := s.records[sourceID]
	if !ok || len(bySource) == 0 {
		return 0, false, nil
	}
	max := 0
	for _, photo := range bySource {
		if photo.Sol > max {
			max = photo.Sol
		}
	}
	return max, true, nil
}

// CountBySource returns the number of stored records for the source.
func (s *RecordStore) CountBySource(_ context.Context, sourceID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[sourceID]), nil
}
