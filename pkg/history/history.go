// Compile run history backed by SQLite.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package history

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"wirecam/pkg/errors"
)

// Run status values.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusError      = "error"
	StatusCancelled  = "cancelled"
)

var (
	// ErrNotFound is returned for an unknown run id.
	ErrNotFound = stderrors.New("run not found")
	// ErrInvalidID is returned for a run id that is not a UUID.
	ErrInvalidID = stderrors.New("invalid run id")
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	operation   TEXT NOT NULL,
	type        TEXT NOT NULL,
	status      TEXT NOT NULL,
	start_time  REAL NOT NULL,
	end_time    REAL,
	duration    REAL NOT NULL DEFAULT 0,
	lines       INTEGER NOT NULL DEFAULT 0,
	violations  INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT '',
	program     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS runs_start_time ON runs(start_time);
`

// Run is one compile run record. Program is only filled by Get.
type Run struct {
	RunID      string   `json:"run_id"`
	Operation  string   `json:"operation"`
	Type       string   `json:"type"`
	Status     string   `json:"status"`
	StartTime  float64  `json:"start_time"`
	EndTime    *float64 `json:"end_time"`
	Duration   float64  `json:"duration"`
	Lines      int      `json:"lines"`
	Violations int      `json:"violations"`
	Error      string   `json:"error,omitempty"`
	Program    string   `json:"program,omitempty"`
}

// Outcome is what a finished run records.
type Outcome struct {
	Status     string
	Duration   time.Duration
	Lines      int
	Violations int
	Program    string
	Err        error
}

// Totals holds aggregated run statistics.
type Totals struct {
	TotalRuns       int     `json:"total_runs"`
	CompletedRuns   int     `json:"completed_runs"`
	FailedRuns      int     `json:"failed_runs"`
	TotalLines      int     `json:"total_lines"`
	TotalViolations int     `json:"total_violations"`
	TotalTime       float64 `json:"total_time"`
	LongestRun      float64 `json:"longest_run"`
}

// Query filters and pages List. Since and Before are unix seconds;
// zero disables them. Order is "asc" or "desc" (default).
type Query struct {
	Limit  int
	Start  int
	Since  float64
	Before float64
	Order  string
}

// Store records compile runs.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.RuntimeStoreError("open", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	for _, p := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, errors.RuntimeStoreError("open", fmt.Errorf("%s: %w", p, err))
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.RuntimeStoreError("open", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// OpenMemory opens a private in-memory store.
func OpenMemory() (*Store, error) {
	return Open(":memory:")
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w %q", ErrInvalidID, id)
	}
	return nil
}

// Start records a new in-progress run.
func (s *Store) Start(ctx context.Context, operation, typ string) (*Run, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.RuntimeStoreError("start", err)
	}
	run := &Run{
		RunID:     id.String(),
		Operation: operation,
		Type:      typ,
		Status:    StatusInProgress,
		StartTime: unixSeconds(s.now()),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, operation, type, status, start_time) VALUES (?, ?, ?, ?, ?)`,
		run.RunID, run.Operation, run.Type, run.Status, run.StartTime)
	if err != nil {
		return nil, errors.RuntimeStoreError("start", err)
	}
	return run, nil
}

// Finish marks a run as finished with the given outcome.
func (s *Store) Finish(ctx context.Context, id string, out Outcome) error {
	if err := checkID(id); err != nil {
		return errors.RuntimeStoreError("finish", err)
	}
	status := out.Status
	if status == "" {
		status = StatusCompleted
		if out.Err != nil {
			status = StatusError
		}
	}
	var msg string
	if out.Err != nil {
		msg = out.Err.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, end_time = ?, duration = ?, lines = ?, violations = ?, error = ?, program = ?
		 WHERE id = ?`,
		status, unixSeconds(s.now()), out.Duration.Seconds(), out.Lines, out.Violations, msg, out.Program, id)
	if err != nil {
		return errors.RuntimeStoreError("finish", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.RuntimeStoreError("finish", fmt.Errorf("%w: %s", ErrNotFound, id))
	}
	return nil
}

const runColumns = `id, operation, type, status, start_time, end_time, duration, lines, violations, error`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner, extra ...any) (*Run, error) {
	var r Run
	var end sql.NullFloat64
	dest := []any{&r.RunID, &r.Operation, &r.Type, &r.Status, &r.StartTime, &end,
		&r.Duration, &r.Lines, &r.Violations, &r.Error}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if end.Valid {
		r.EndTime = &end.Float64
	}
	return &r, nil
}

// Get returns a run, including its program text.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	if err := checkID(id); err != nil {
		return nil, errors.RuntimeStoreError("get", err)
	}
	var program string
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+`, program FROM runs WHERE id = ?`, id)
	run, err := scanRun(row, &program)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.RuntimeStoreError("get", fmt.Errorf("%w: %s", ErrNotFound, id))
	}
	if err != nil {
		return nil, errors.RuntimeStoreError("get", err)
	}
	run.Program = program
	return run, nil
}

// List returns runs matching q, most recent first unless q.Order is "asc".
func (s *Store) List(ctx context.Context, q Query) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1 = 1`
	var args []any
	if q.Since > 0 {
		query += ` AND start_time >= ?`
		args = append(args, q.Since)
	}
	if q.Before > 0 {
		query += ` AND start_time <= ?`
		args = append(args, q.Before)
	}
	if q.Order == "asc" {
		query += ` ORDER BY start_time ASC, rowid ASC`
	} else {
		query += ` ORDER BY start_time DESC, rowid DESC`
	}
	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	start := q.Start
	if start < 0 {
		start = 0
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, start)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.RuntimeStoreError("list", err)
	}
	defer rows.Close()

	runs := make([]*Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, errors.RuntimeStoreError("list", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.RuntimeStoreError("list", err)
	}
	return runs, nil
}

// Count returns the number of recorded runs.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, errors.RuntimeStoreError("count", err)
	}
	return n, nil
}

// Totals aggregates every recorded run.
func (s *Store) Totals(ctx context.Context) (*Totals, error) {
	var t Totals
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(status = ?), 0),
		       COALESCE(SUM(status = ?), 0),
		       COALESCE(SUM(lines), 0),
		       COALESCE(SUM(violations), 0),
		       COALESCE(SUM(duration), 0),
		       COALESCE(MAX(duration), 0)
		FROM runs`, StatusCompleted, StatusError).
		Scan(&t.TotalRuns, &t.CompletedRuns, &t.FailedRuns, &t.TotalLines, &t.TotalViolations, &t.TotalTime, &t.LongestRun)
	if err != nil {
		return nil, errors.RuntimeStoreError("totals", err)
	}
	return &t, nil
}

// Delete removes a run.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return errors.RuntimeStoreError("delete", err)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return errors.RuntimeStoreError("delete", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.RuntimeStoreError("delete", fmt.Errorf("%w: %s", ErrNotFound, id))
	}
	return nil
}

// Reset deletes every run.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs`); err != nil {
		return errors.RuntimeStoreError("reset", err)
	}
	return nil
}
