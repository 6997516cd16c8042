package driven

import (
	"context"

	"github.com/perseus-data/solsync/internal/core/domain"
)

// ProgressStore persists the per-source sync cursor.
type ProgressStore interface {
	// Save stores or updates progress for a source.
	Save(ctx context.Context, progress domain.SourceProgress) error

	// Get retrieves progress for a source.
	// Returns domain.ErrNotFound for a source never synced.
	Get(ctx context.Context, sourceID string) (*domain.SourceProgress, error)

	// List returns progress for all known sources.
	List(ctx context.Context) ([]domain.SourceProgress, error)
}
