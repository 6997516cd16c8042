package services

import (
	"context"
	"fmt"
	"time"

	"github.com/perseus-data/solsync/internal/core/domain"
	"github.com/perseus-data/solsync/internal/core/ports/driven"
	"github.com/perseus-data/solsync/internal/logger"
)

// Ensure RecordWriter implements the interface.
var _ driven.RecordWriter = (*RecordWriter)(nil)

// RecordWriter performs idempotent insertion of parsed upstream items.
// Items without the required external identifier or timestamp are
// data-quality skips: counted and logged, never retried.
type RecordWriter struct {
	records driven.RecordStore

	// now is overridable in tests.
	now func() time.Time
}

// NewRecordWriter creates a writer backed by the record store.
func NewRecordWriter(records driven.RecordStore) *RecordWriter {
	return &RecordWriter{
		records: records,
		now:     time.Now,
	}
}

// Write inserts the items not already stored for (source, sol).
// Calling Write twice with the same items inserts each record at most once.
func (w *RecordWriter) Write(
	ctx context.Context,
	sourceID string,
	sol int,
	items []domain.RawPhoto,
) (domain.WriteResult, error) {
	var result domain.WriteResult

	valid := make([]domain.RawPhoto, 0, len(items))
	for _, item := range items {
		if !item.Valid() {
			result.Skipped++
			logger.Debug("source %s sol %d: skipping item without id or timestamp (id=%q)",
				sourceID, sol, item.ExternalID)
			continue
		}
		valid = append(valid, item)
	}
	if len(valid) == 0 {
		return result, nil
	}

	ids := make([]string, 0, len(valid))
	for _, item := range valid {
		ids = append(ids, item.ExternalID)
	}
	existing, err := w.records.ExistingIDs(ctx, sourceID, ids)
	if err != nil {
		return result, fmt.Errorf("checking existing records: %w", err)
	}

	for _, item := range valid {
		if existing[item.ExternalID] {
			continue
		}
		inserted, err := w.records.UpsertIfAbsent(ctx, item.Record(sourceID, w.now()))
		if err != nil {
			return result, fmt.Errorf("inserting record %s: %w", item.ExternalID, err)
		}
		if inserted {
			result.Inserted++
		}
	}

	if result.Skipped > 0 {
		logger.Info("source %s sol %d: skipped %d malformed item(s)", sourceID, sol, result.Skipped)
	}
	return result, nil
}
