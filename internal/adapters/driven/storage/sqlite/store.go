package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/perseus-data/solsync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/perseus-data/solsync/internal/core/domain"
	"github.com/perseus-data/solsync/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.solsync/data/solsync.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".solsync", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "solsync.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RecordStore returns a RecordStore interface backed by this store.
func (s *Store) RecordStore() driven.RecordStore {
	return &recordStore{store: s}
}

// ProgressStore returns a ProgressStore interface backed by this store.
func (s *Store) ProgressStore() driven.ProgressStore {
	return &progressStore{store: s}
}

// RunStore returns a RunStore interface backed by this store.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Record Store ====================

// recordStore implements driven.RecordStore.
type recordStore struct {
	store *Store
}

var _ driven.RecordStore = (*recordStore)(nil)

// UpsertIfAbsent inserts the record unless its natural id is taken.
// The unique constraint doubles as the race guard: a conflicting
// insert reports "already present" rather than an error.
func (s *recordStore) UpsertIfAbsent(ctx context.Context, photo domain.Photo) (bool, error) {
	metadataJSON, err := json.Marshal(photo.Metadata)
	if err != nil {
		return false, fmt.Errorf("marshalling metadata: %w", err)
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO photos (source_id, external_id, sol, camera, img_url, taken_at, metadata, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, external_id) DO NOTHING
	`, photo.SourceID, photo.ExternalID, photo.Sol, photo.Camera, photo.ImgURL,
		photo.TakenAt.UTC(), string(metadataJSON), photo.IngestedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("inserting record: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return affected > 0, nil
}

// ExistingIDs returns the subset of ids already stored for the source.
func (s *recordStore) ExistingIDs(ctx context.Context, sourceID string, ids []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(ids) == 0 {
		return existing, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, sourceID)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.store.db.QueryContext(ctx,
		"SELECT external_id FROM photos WHERE source_id = ? AND external_id IN ("+placeholders+")",
		args...)
	if err != nil {
		return nil, fmt.Errorf("querying existing ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning existing id: %w", err)
		}
		existing[id] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating existing ids: %w", err)
	}
	return existing, nil
}

// MaxSol returns the highest stored sol for the source.
func (s *recordStore) MaxSol(ctx context.Context, sourceID string) (int, bool, error) {
	var maxSol sql.NullInt64
	err := s.store.db.QueryRowContext(ctx,
		"SELECT MAX(sol) FROM photos WHERE source_id = ?", sourceID).Scan(&maxSol)
	if err != nil {
		return 0, false, fmt.Errorf("querying max sol: %w", err)
	}
	if !maxSol.Valid {
		return 0, false, nil
	}
	return int(maxSol.Int64), true, nil
}

// CountBySource returns the number of stored records for the source.
func (s *recordStore) CountBySource(ctx context.Context, sourceID string) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM photos WHERE source_id = ?", sourceID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return count, nil
}

// ==================== Progress Store ====================

// progressStore implements driven.ProgressStore.
type progressStore struct {
	store *Store
}

var _ driven.ProgressStore = (*progressStore)(nil)

// Save stores or updates progress for a source.
func (s *progressStore) Save(ctx context.Context, progress domain.SourceProgress) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO source_progress (source_id, last_synced_sol, last_sync_at, last_run_status, records_written_last_run)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			last_synced_sol = excluded.last_synced_sol,
			last_sync_at = excluded.last_sync_at,
			last_run_status = excluded.last_run_status,
			records_written_last_run = excluded.records_written_last_run
	`, progress.SourceID, progress.LastSyncedSol, formatNullableTime(progress.LastSyncAt),
		string(progress.LastRunStatus), progress.RecordsWrittenLastRun)

	if err != nil {
		return fmt.Errorf("saving progress: %w", err)
	}
	return nil
}

// Get retrieves progress for a source.
func (s *progressStore) Get(ctx context.Context, sourceID string) (*domain.SourceProgress, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT source_id, last_synced_sol, last_sync_at, last_run_status, records_written_last_run
		FROM source_progress WHERE source_id = ?
	`, sourceID)

	progress, err := scanProgress(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning progress: %w", err)
	}
	return progress, nil
}

// List returns progress for all known sources.
func (s *progressStore) List(ctx context.Context) ([]domain.SourceProgress, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT source_id, last_synced_sol, last_sync_at, last_run_status, records_written_last_run
		FROM source_progress ORDER BY source_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying progress: %w", err)
	}
	defer rows.Close()

	var all []domain.SourceProgress //nolint:prealloc // size unknown from query
	for rows.Next() {
		progress, err := scanProgress(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning progress: %w", err)
		}
		all = append(all, *progress)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating progress: %w", err)
	}
	return all, nil
}

// scanProgress scans one progress row via the given Scan function.
func scanProgress(scan func(...any) error) (*domain.SourceProgress, error) {
	var progress domain.SourceProgress
	var lastSyncAt sql.NullTime
	var status string

	if err := scan(&progress.SourceID, &progress.LastSyncedSol, &lastSyncAt,
		&status, &progress.RecordsWrittenLastRun); err != nil {
		return nil, err
	}

	if lastSyncAt.Valid {
		progress.LastSyncAt = lastSyncAt.Time
	}
	progress.LastRunStatus = domain.RunStatus(status)
	return &progress, nil
}

// ==================== Run Store ====================

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// Create inserts a new run.
func (s *runStore) Create(ctx context.Context, run domain.Run) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, completed_at, status, sources_attempted, sources_succeeded, records_written, error_summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt.UTC(), nullableTimePtr(run.CompletedAt), string(run.Status),
		run.SourcesAttempted, run.SourcesSucceeded, run.RecordsWritten, run.ErrorSummary)

	if err != nil {
		return fmt.Errorf("creating run: %w", err)
	}
	return nil
}

// Complete records the run's final state.
func (s *runStore) Complete(ctx context.Context, run domain.Run) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE runs SET
			completed_at = ?,
			status = ?,
			sources_attempted = ?,
			sources_succeeded = ?,
			records_written = ?,
			error_summary = ?
		WHERE id = ?
	`, nullableTimePtr(run.CompletedAt), string(run.Status),
		run.SourcesAttempted, run.SourcesSucceeded, run.RecordsWritten, run.ErrorSummary, run.ID)
	if err != nil {
		return fmt.Errorf("completing run: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s: %w", run.ID, domain.ErrNotFound)
	}
	return nil
}

// SaveDetail appends a per-source detail row.
func (s *runStore) SaveDetail(ctx context.Context, detail domain.SourceRunDetail) error {
	failedJSON, err := json.Marshal(detail.FailedSols)
	if err != nil {
		return fmt.Errorf("marshalling failed sols: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO run_source_details (run_id, source_id, start_sol, end_sol, sols_attempted, sols_succeeded, sols_failed, records_written, duration_seconds, status, failed_sols)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, detail.RunID, detail.SourceID, detail.StartSol, detail.EndSol,
		detail.SolsAttempted, detail.SolsSucceeded, detail.SolsFailed,
		detail.RecordsWritten, detail.DurationSeconds, string(detail.Status), string(failedJSON))

	if err != nil {
		return fmt.Errorf("saving run detail: %w", err)
	}
	return nil
}

// ReapStale marks abandoned in_progress runs as failed.
func (s *runStore) ReapStale(ctx context.Context, olderThan time.Duration) (int, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-olderThan)

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE runs SET
			status = ?,
			completed_at = ?,
			error_summary = ?
		WHERE status = ? AND started_at < ?
	`, string(domain.StatusFailed), now,
		fmt.Sprintf("abandoned: still in_progress after %s", olderThan),
		string(domain.StatusInProgress), cutoff)
	if err != nil {
		return 0, fmt.Errorf("reaping stale runs: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading rows affected: %w", err)
	}
	return int(affected), nil
}

// ListRuns returns the most recent runs, newest first.
func (s *runStore) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, started_at, completed_at, status, sources_attempted, sources_succeeded, records_written, error_summary
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run //nolint:prealloc // size unknown from query
	for rows.Next() {
		var run domain.Run
		var completedAt sql.NullTime
		var status string
		if err := rows.Scan(&run.ID, &run.StartedAt, &completedAt, &status,
			&run.SourcesAttempted, &run.SourcesSucceeded, &run.RecordsWritten, &run.ErrorSummary); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if completedAt.Valid {
			t := completedAt.Time
			run.CompletedAt = &t
		}
		run.Status = domain.RunStatus(status)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// ListDetails returns the detail rows for a run, in write order.
func (s *runStore) ListDetails(ctx context.Context, runID string) ([]domain.SourceRunDetail, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT run_id, source_id, start_sol, end_sol, sols_attempted, sols_succeeded, sols_failed, records_written, duration_seconds, status, failed_sols
		FROM run_source_details WHERE run_id = ? ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying run details: %w", err)
	}
	defer rows.Close()

	var details []domain.SourceRunDetail //nolint:prealloc // size unknown from query
	for rows.Next() {
		var detail domain.SourceRunDetail
		var status, failedJSON string
		if err := rows.Scan(&detail.RunID, &detail.SourceID, &detail.StartSol, &detail.EndSol,
			&detail.SolsAttempted, &detail.SolsSucceeded, &detail.SolsFailed,
			&detail.RecordsWritten, &detail.DurationSeconds, &status, &failedJSON); err != nil {
			return nil, fmt.Errorf("scanning run detail: %w", err)
		}
		detail.Status = domain.RunStatus(status)
		if err := json.Unmarshal([]byte(failedJSON), &detail.FailedSols); err != nil {
			return nil, fmt.Errorf("unmarshaling failed sols: %w", err)
		}
		details = append(details, detail)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run details: %w", err)
	}
	return details, nil
}

// ==================== Helper Functions ====================

// formatNullableTime converts a zero time to NULL.
func formatNullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

// nullableTimePtr converts a nil time pointer to NULL.
func nullableTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
