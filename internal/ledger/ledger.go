// Package ledger records migration runs in a local SQLite database.
// It tracks every process or sync run and the rows it moved per table.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// MemoryPath opens an in-memory ledger.
const MemoryPath = ":memory:"

// timeLayout has a fixed-width fraction so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunStatus is the outcome of a run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one process or sync invocation.
type Run struct {
	ID          string
	Mode        string
	Source      string
	Target      string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string

	// Inserted and Updated total the counts of Tables.
	Inserted int64
	Updated  int64

	Tables []TableRun
}

// Duration returns how long the run took, or zero while it is running.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// TableRun holds the row counts of one table within a run.
type TableRun struct {
	Table    string
	Inserted int64
	Updated  int64
}

// Ledger is the run ledger.
type Ledger struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if needed) the ledger at path and applies migrations.
// Use ":memory:" for an in-memory ledger. If logger is nil, a discard
// logger is used.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create ledger directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping ledger: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	l := &Ledger{db: db, path: path, logger: logger}
	if err := l.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// Path returns the ledger location.
func (l *Ledger) Path() string {
	return l.path
}

// Close closes the ledger database.
func (l *Ledger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// StartRun records a new running run.
func (l *Ledger) StartRun(ctx context.Context, mode, source, target string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Mode:      mode,
		Source:    source,
		Target:    target,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	l.logger.Debug("starting run", slog.String("id", run.ID), slog.String("mode", mode))

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, mode, source, target, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Mode, run.Source, run.Target, string(run.Status), formatTime(run.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// RecordTable stores the row counts of table for a run, replacing earlier counts.
func (l *Ledger) RecordTable(ctx context.Context, runID, table string, inserted, updated int64) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO run_tables (run_id, table_name, inserted, updated) VALUES (?, ?, ?, ?)
		ON CONFLICT (run_id, table_name) DO UPDATE SET inserted = excluded.inserted, updated = excluded.updated`,
		runID, table, inserted, updated,
	)
	if err != nil {
		return fmt.Errorf("failed to record table %s: %w", table, err)
	}
	return nil
}

// FinishRun marks a run completed, or failed when runErr is non-nil.
func (l *Ledger) FinishRun(ctx context.Context, id string, runErr error) error {
	status := RunStatusCompleted
	var msg sql.NullString
	if runErr != nil {
		status = RunStatusFailed
		msg = sql.NullString{String: runErr.Error(), Valid: true}
	}

	l.logger.Debug("finishing run", slog.String("id", id), slog.String("status", string(status)))

	res, err := l.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(status), formatTime(time.Now().UTC()), msg, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// GetRun retrieves a run with its table counts.
func (l *Ledger) GetRun(ctx context.Context, id string) (*Run, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT id, mode, source, target, status, started_at, completed_at, error FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if err := l.loadTables(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first, up to limit.
func (l *Ledger) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, mode, source, target, status, started_at, completed_at, error
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	_ = rows.Close()

	// A single connection serves the ledger, so tables load after the cursor closes.
	for _, run := range runs {
		if err := l.loadTables(ctx, run); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (l *Ledger) loadTables(ctx context.Context, run *Run) error {
	rows, err := l.db.QueryContext(ctx,
		`SELECT table_name, inserted, updated FROM run_tables WHERE run_id = ? ORDER BY table_name`, run.ID)
	if err != nil {
		return fmt.Errorf("failed to load run tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var t TableRun
		if err := rows.Scan(&t.Table, &t.Inserted, &t.Updated); err != nil {
			return fmt.Errorf("failed to scan run table: %w", err)
		}
		run.Tables = append(run.Tables, t)
		run.Inserted += t.Inserted
		run.Updated += t.Updated
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run                  Run
		status, started      string
		completed, errString sql.NullString
	)
	if err := s.Scan(&run.ID, &run.Mode, &run.Source, &run.Target, &status, &started, &completed, &errString); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)

	t, err := parseTime(started)
	if err != nil {
		return nil, err
	}
	run.StartedAt = t

	if completed.Valid {
		t, err := parseTime(completed.String)
		if err != nil {
			return nil, err
		}
		run.CompletedAt = &t
	}
	run.Error = errString.String
	return &run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
