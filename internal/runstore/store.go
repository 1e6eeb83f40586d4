package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"reelmatch/internal/config"
	"reelmatch/internal/ingest"
)

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the run database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveSnapshot upserts the run row for a tracker snapshot. Later snapshots
// of the same run overwrite earlier ones, so the row always holds the most
// recent state.
func (s *Store) SaveSnapshot(ctx context.Context, status ingest.Status) error {
	if status.RunID == "" {
		return errors.New("snapshot has no run id")
	}
	logsJSON, err := encodeLogs(status.Logs)
	if err != nil {
		return fmt.Errorf("encode run logs: %w", err)
	}

	startedAt := status.StartedAt.UTC().Format(time.RFC3339Nano)
	updatedAt := status.LastUpdated.UTC().Format(time.RFC3339Nano)
	if status.LastUpdated.IsZero() {
		updatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO ingest_runs (
            run_id, state, total, processed, successful, failed, percent,
            logs_json, started_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (run_id) DO UPDATE SET
            state = excluded.state, total = excluded.total,
            processed = excluded.processed, successful = excluded.successful,
            failed = excluded.failed, percent = excluded.percent,
            logs_json = excluded.logs_json, updated_at = excluded.updated_at`,
		status.RunID,
		string(status.State),
		status.Total,
		status.Processed,
		status.Successful,
		status.Failed,
		status.Percent,
		nullableString(logsJSON),
		startedAt,
		updatedAt,
	)
	if err != nil {
		return fmt.Errorf("save run snapshot: %w", err)
	}
	return nil
}

// GetRun fetches a run row by identifier. A missing run returns nil, nil.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM ingest_runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// LatestRun returns the most recently updated run, or nil when the store is
// empty.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM ingest_runs ORDER BY updated_at DESC, run_id DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs newest first. A limit of zero or below returns all
// runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM ingest_runs ORDER BY updated_at DESC, run_id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SaveResults replaces the persisted result set for a run in a single
// transaction. Position follows slice order, which is submission order.
func (s *Store) SaveResults(ctx context.Context, runID string, results []ingest.ItemResult) error {
	if runID == "" {
		return errors.New("results have no run id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin results tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ingest_results WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("clear previous results: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for position, item := range results {
		result := resultFromItem(runID, position, item)
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO ingest_results (
                run_id, position, candidate_title, candidate_year, outcome,
                detail, catalog_id, catalog_title, media_type, rating,
                similarity, tier, created_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			result.RunID,
			result.Position,
			result.CandidateTitle,
			nullableString(result.CandidateYear),
			string(result.Outcome),
			nullableString(result.Detail),
			nullableInt64(result.CatalogID),
			nullableString(result.CatalogTitle),
			nullableString(result.MediaType),
			nullableString(result.Rating),
			result.Similarity,
			nullableString(result.Tier),
			now,
		)
		if err != nil {
			return fmt.Errorf("insert result %d: %w", position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results: %w", err)
	}
	return nil
}

// ResultsForRun returns a run's results in submission order.
func (s *Store) ResultsForRun(ctx context.Context, runID string) ([]*Result, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+resultColumns+` FROM ingest_results WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []*Result
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// Stats returns a count of runs grouped by state.
func (s *Store) Stats(ctx context.Context) (map[ingest.State]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(1) FROM ingest_runs GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("run stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[ingest.State]int)
	for rows.Next() {
		var state string
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		stats[ingest.State(state)] = count
	}
	return stats, rows.Err()
}

// Prune removes all but the newest keep runs; result rows cascade. It
// returns how many runs were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM ingest_runs WHERE run_id NOT IN (
            SELECT run_id FROM ingest_runs ORDER BY updated_at DESC, run_id DESC LIMIT ?
        )`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all runs and their results.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ingest_runs`)
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	return res.RowsAffected()
}

const runColumns = "run_id, state, total, processed, successful, failed, percent, logs_json, started_at, updated_at"

const resultColumns = "id, run_id, position, candidate_title, candidate_year, outcome, detail, catalog_id, catalog_title, media_type, rating, similarity, tier, created_at"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		runID      string
		state      string
		total      int
		processed  int
		successful int
		failed     int
		percent    float64
		logsJSON   sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)

	if err := scanner.Scan(
		&runID,
		&state,
		&total,
		&processed,
		&successful,
		&failed,
		&percent,
		&logsJSON,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	run := &Run{
		RunID:      runID,
		State:      ingest.State(state),
		Total:      total,
		Processed:  processed,
		Successful: successful,
		Failed:     failed,
		Percent:    percent,
		Logs:       decodeLogs(logsJSON.String),
	}
	if started, err := parseTimeString(createdRaw.String); err == nil {
		run.StartedAt = started
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		run.UpdatedAt = updated
	}
	return run, nil
}

func scanResult(scanner interface{ Scan(dest ...any) error }) (*Result, error) {
	var (
		id             int64
		runID          string
		position       int
		candidateTitle string
		candidateYear  sql.NullString
		outcome        string
		detail         sql.NullString
		catalogID      sql.NullInt64
		catalogTitle   sql.NullString
		mediaType      sql.NullString
		rating         sql.NullString
		similarity     float64
		tier           sql.NullString
		createdRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&runID,
		&position,
		&candidateTitle,
		&candidateYear,
		&outcome,
		&detail,
		&catalogID,
		&catalogTitle,
		&mediaType,
		&rating,
		&similarity,
		&tier,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	result := &Result{
		ID:             id,
		RunID:          runID,
		Position:       position,
		CandidateTitle: candidateTitle,
		CandidateYear:  candidateYear.String,
		Outcome:        ingest.Outcome(outcome),
		Detail:         detail.String,
		CatalogID:      catalogID.Int64,
		CatalogTitle:   catalogTitle.String,
		MediaType:      mediaType.String,
		Rating:         rating.String,
		Similarity:     similarity,
		Tier:           tier.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		result.CreatedAt = created
	}
	return result, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt64(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
