package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // SQLite driver

	"firekey-hq/tally/pkg/ledger"
	"firekey-hq/tally/pkg/usage"
)

// Config configures the SQLite ledger.
type Config struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// RunInfo is the stored summary of one run.
type RunInfo struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  *time.Time
	FileCount   int
	TotalTokens int
	TotalCost   decimal.Decimal
}

// Finished reports whether the run wrote its summary.
func (r *RunInfo) Finished() bool {
	return r.FinishedAt != nil
}

// SQLiteStore keeps usage records grouped by run.
type SQLiteStore struct {
	db        *sql.DB
	path      string
	logger    *slog.Logger
	mu        sync.Mutex
	closeOnce sync.Once

	insertRecordStmt *sql.Stmt
	finishRunStmt    *sql.Stmt
}

// Open opens (or creates) the ledger database.
func Open(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "ledger.storage.sqlite")

	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{db: db, path: cfg.Path, logger: logger}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("SQLite ledger initialized", "path", cfg.Path)
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := s.db.Exec(insertSchemaVersion, SchemaVersion, time.Now().UnixNano()); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	var version int
	if err := s.db.QueryRow(getSchemaVersion).Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version != SchemaVersion {
		return fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version)
	}

	var err error
	s.insertRecordStmt, err = s.db.Prepare(`
		INSERT INTO records (
			run_id, file_name, model, estimated_prompt_tokens, actual_prompt_tokens,
			completion_tokens, total_tokens, estimated_completion_tokens, cost,
			cost_estimated, fallback_rate, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	s.finishRunStmt, err = s.db.Prepare(`
		UPDATE runs
		SET finished_at = ?, file_count = ?, total_tokens = ?, total_cost = ?
		WHERE id = ? AND finished_at IS NULL
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare finish statement: %w", err)
	}
	return nil
}

// StartRun inserts a new run and returns a ledger.Sink bound to it.
func (s *SQLiteStore) StartRun(ctx context.Context) (*Run, error) {
	id := uuid.New().String()
	started := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at) VALUES (?, ?)`, id, started.UnixNano()); err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	s.logger.Debug("Run started", "run_id", id)
	return &Run{store: s, id: id}, nil
}

// Runs returns the most recent runs, newest first. limit <= 0 means all.
func (s *SQLiteStore) Runs(ctx context.Context, limit int) ([]*RunInfo, error) {
	query := `
		SELECT id, started_at, finished_at, file_count, total_tokens, total_cost
		FROM runs
		ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunInfo
	for rows.Next() {
		info, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// Records returns the records of a run in insertion order.
func (s *SQLiteStore) Records(ctx context.Context, runID string) ([]*usage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT file_name, model, estimated_prompt_tokens, actual_prompt_tokens,
			completion_tokens, total_tokens, estimated_completion_tokens, cost,
			cost_estimated, fallback_rate, recorded_at
		FROM records
		WHERE run_id = ?
		ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []*usage.Record
	for rows.Next() {
		var (
			rec                       usage.Record
			actual, completion, total sql.NullInt64
			cost                      string
			recordedAt                int64
		)
		if err := rows.Scan(
			&rec.FileName,
			&rec.Model,
			&rec.EstimatedPromptTokens,
			&actual,
			&completion,
			&total,
			&rec.EstimatedCompletionTokens,
			&cost,
			&rec.CostEstimated,
			&rec.FallbackRate,
			&recordedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.ActualPromptTokens = nullableInt(actual)
		rec.CompletionTokens = nullableInt(completion)
		rec.TotalTokens = nullableInt(total)
		rec.Timestamp = time.Unix(0, recordedAt).UTC()
		rec.Cost, err = decimal.NewFromString(cost)
		if err != nil {
			return nil, fmt.Errorf("invalid cost for %s: %w", rec.FileName, err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// Prune deletes finished runs started before cutoff, with their records.
// Open runs are kept. It returns the number of runs deleted.
func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin prune: %w", err)
	}
	defer tx.Rollback()

	const match = `started_at < ? AND finished_at IS NOT NULL`
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM records WHERE run_id IN (SELECT id FROM runs WHERE `+match+`)`,
		cutoff.UnixNano()); err != nil {
		return 0, fmt.Errorf("failed to prune records: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE `+match, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prune: %w", err)
	}

	deleted, _ := res.RowsAffected()
	s.logger.Info("Ledger pruned", "runs_deleted", deleted, "cutoff", cutoff)
	return deleted, nil
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.insertRecordStmt != nil {
			s.insertRecordStmt.Close()
		}
		if s.finishRunStmt != nil {
			s.finishRunStmt.Close()
		}
		err = s.db.Close()
	})
	return err
}

// Run is the ledger.Sink for one run.
type Run struct {
	store *SQLiteStore
	id    string
}

var _ ledger.Sink = (*Run)(nil)

// ID returns the run ID.
func (r *Run) ID() string {
	return r.id
}

// Append stores rec under the run.
func (r *Run) Append(rec *usage.Record) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.insertRecordStmt.Exec(
		r.id,
		rec.FileName,
		rec.Model,
		rec.EstimatedPromptTokens,
		nullInt(rec.ActualPromptTokens),
		nullInt(rec.CompletionTokens),
		nullInt(rec.TotalTokens),
		rec.EstimatedCompletionTokens,
		rec.Cost.String(),
		rec.CostEstimated,
		rec.FallbackRate,
		rec.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// Finalize stores the run totals. A run is finalized at most once.
func (r *Run) Finalize(summary *usage.Summary) error {
	if summary == nil {
		summary = usage.Summarize(nil)
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.finishRunStmt.Exec(
		time.Now().UTC().UnixNano(),
		summary.FileCount,
		summary.TotalTokens,
		summary.TotalCost.String(),
		r.id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n == 0 {
		return ledger.ErrAlreadyFinalized
	}
	return nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

// ErrRunNotFound is returned for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// GetRun returns the stored summary of one run.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*RunInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, file_count, total_tokens, total_cost
		FROM runs
		WHERE id = ?`, id)
	info, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return info, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunInfo, error) {
	var (
		info     RunInfo
		started  int64
		finished sql.NullInt64
		cost     string
	)
	if err := row.Scan(&info.ID, &started, &finished, &info.FileCount, &info.TotalTokens, &cost); err != nil {
		return nil, err
	}
	info.StartedAt = time.Unix(0, started).UTC()
	if finished.Valid {
		t := time.Unix(0, finished.Int64).UTC()
		info.FinishedAt = &t
	}
	var err error
	info.TotalCost, err = decimal.NewFromString(cost)
	if err != nil {
		return nil, fmt.Errorf("invalid cost for run %s: %w", info.ID, err)
	}
	return &info, nil
}
