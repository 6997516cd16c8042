package driven

import (
	"context"

	"github.com/perseus-data/solsync/internal/core/domain"
)

// RecordStore persists ingested records.
type RecordStore interface {
	// UpsertIfAbsent inserts the record unless one with the same
	// (source, external id) already exists. Returns true when a row
	// was inserted. A unique-constraint violation is not an error;
	// it reports false.
	UpsertIfAbsent(ctx context.Context, photo domain.Photo) (bool, error)

	// ExistingIDs returns the subset of ids already stored for the
	// source. Used by the writer to batch-check before inserting.
	ExistingIDs(ctx context.Context, sourceID string, ids []string) (map[string]bool, error)

	// MaxSol returns the highest sol stored for the source.
	// ok is false when the source has no records.
	MaxSol(ctx context.Context, sourceID string) (sol int, ok bool, err error)

	// CountBySource returns the number of stored records for the source.
	CountBySource(ctx context.Context, sourceID string) (int, error)
}

// RecordWriter performs idempotent insertion of parsed items.
// Items missing required fields are counted as skips, not failures.
type RecordWriter interface {
	// Write inserts the items not already present for (source, sol).
	Write(ctx context.Context, sourceID string, sol int, items []domain.RawPhoto) (domain.WriteResult, error)
}
