package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/halyard-labs/driftsync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/halyard-labs/driftsync/internal/core/domain"
	"github.com/halyard-labs/driftsync/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.RunStore = (*Store)(nil)

// Store is the SQLite-backed run store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a run store at the specified data directory. If
// dataDir is empty, defaults to ~/.driftsync/data/runs.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".driftsync", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "runs.db")

	// WAL mode for better concurrency between scheduler and CLI reads.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
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

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

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

// RecordRun persists a completed run summary.
func (s *Store) RecordRun(ctx context.Context, summary *domain.RunSummary) (int64, error) {
	if summary == nil {
		return 0, domain.ErrInvalidInput
	}

	upserted, err := marshalItems(summary.Upserted)
	if err != nil {
		return 0, err
	}
	skipped, err := marshalItems(summary.Skipped)
	if err != nil {
		return 0, err
	}
	runErrors, err := marshalItems(summary.Errors)
	if err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO pipeline_runs
			(pipeline, started_at, completed_at, total_candidates, upserted, skipped, errors, status, dry_run)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, summary.Pipeline,
		summary.StartedAt.UTC().Format(time.RFC3339),
		summary.CompletedAt.UTC().Format(time.RFC3339),
		summary.TotalCandidates,
		upserted, skipped, runErrors,
		string(summary.Status),
		boolToInt(summary.DryRun))
	if err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting run id: %w", err)
	}
	return id, nil
}

// ListRuns returns persisted summaries matching the filter, newest first.
func (s *Store) ListRuns(ctx context.Context, filter domain.RunFilter) ([]domain.RunSummary, error) {
	query := `
		SELECT id, pipeline, started_at, completed_at, total_candidates, upserted, skipped, errors, status, dry_run
		FROM pipeline_runs
	`
	var conditions []string
	var args []any
	if filter.Pipeline != "" {
		conditions = append(conditions, "pipeline = ?")
		args = append(args, filter.Pipeline)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY started_at DESC, id DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var summaries []domain.RunSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		summary, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return summaries, nil
}

// LastRun returns the most recent summary for a pipeline, or (nil, nil)
// when the pipeline has never run.
func (s *Store) LastRun(ctx context.Context, pipeline string) (*domain.RunSummary, error) {
	summaries, err := s.ListRuns(ctx, domain.RunFilter{Pipeline: pipeline, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, nil
	}
	return &summaries[0], nil
}

// PruneRuns keeps the most recent 'keep' summaries per pipeline.
func (s *Store) PruneRuns(ctx context.Context, keep int) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM pipeline_runs
		WHERE id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY pipeline ORDER BY started_at DESC, id DESC) as rn
				FROM pipeline_runs
			) WHERE rn <= ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning runs: %w", err)
	}
	return nil
}

// RecordQuery persists a search diagnostic entry.
func (s *Store) RecordQuery(ctx context.Context, entry *domain.QueryLog) error {
	if entry == nil {
		return domain.ErrInvalidInput
	}

	collections, err := json.Marshal(entry.Collections)
	if err != nil {
		return fmt.Errorf("marshalling collections: %w", err)
	}

	at := entry.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO query_logs (query, collections, top_score, result_count, attempts, duration_ms, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.Query, string(collections), entry.TopScore, entry.ResultCount,
		entry.Attempts, entry.Duration.Milliseconds(), at.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("recording query: %w", err)
	}
	return nil
}

// ListQueries returns recent search diagnostics, newest first.
func (s *Store) ListQueries(ctx context.Context, limit int) ([]domain.QueryLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query, collections, top_score, result_count, attempts, duration_ms, at
		FROM query_logs
		ORDER BY at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying query logs: %w", err)
	}
	defer rows.Close()

	var entries []domain.QueryLog //nolint:prealloc // size unknown from query
	for rows.Next() {
		var entry domain.QueryLog
		var collectionsJSON, at string
		var durationMS int64
		if err := rows.Scan(&entry.ID, &entry.Query, &collectionsJSON, &entry.TopScore,
			&entry.ResultCount, &entry.Attempts, &durationMS, &at); err != nil {
			return nil, fmt.Errorf("scanning query log: %w", err)
		}
		if err := json.Unmarshal([]byte(collectionsJSON), &entry.Collections); err != nil {
			return nil, fmt.Errorf("unmarshaling collections: %w", err)
		}
		entry.Duration = time.Duration(durationMS) * time.Millisecond
		if t, err := time.Parse(time.RFC3339, at); err == nil {
			entry.At = t
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query logs: %w", err)
	}
	return entries, nil
}

// ==================== Helper Functions ====================

func scanRun(rows *sql.Rows) (*domain.RunSummary, error) {
	var summary domain.RunSummary
	var startedAt, completedAt, upserted, skipped, runErrors, status string
	var dryRun int

	if err := rows.Scan(&summary.ID, &summary.Pipeline, &startedAt, &completedAt,
		&summary.TotalCandidates, &upserted, &skipped, &runErrors, &status, &dryRun); err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
		summary.StartedAt = t
	}
	if t, err := time.Parse(time.RFC3339, completedAt); err == nil {
		summary.CompletedAt = t
	}

	var err error
	if summary.Upserted, err = unmarshalItems(upserted); err != nil {
		return nil, err
	}
	if summary.Skipped, err = unmarshalItems(skipped); err != nil {
		return nil, err
	}
	if summary.Errors, err = unmarshalItems(runErrors); err != nil {
		return nil, err
	}

	summary.Status = domain.RunStatus(status)
	summary.DryRun = dryRun == 1
	return &summary, nil
}

func marshalItems(items []domain.RunItem) (string, error) {
	if items == nil {
		items = []domain.RunItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshalling run items: %w", err)
	}
	return string(data), nil
}

func unmarshalItems(data string) ([]domain.RunItem, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var items []domain.RunItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("unmarshaling run items: %w", err)
	}
	return items, nil
}

// boolToInt converts a bool to 1 (true) or 0 (false).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
