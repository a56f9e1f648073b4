// Package journal keeps an append-only sqlite audit trail of goal runs.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var errRunNotFound = errors.New("run not found")

// Run summarizes one goal run.
type Run struct {
	ID         string
	Goal       string
	StartedAt  time.Time
	FinishedAt *time.Time
	Achieved   bool
	Message    string
	Steps      int
}

// StepRecord is one executed, skipped or failed plan step.
type StepRecord struct {
	RunID     string
	Iteration int
	Position  int
	Step      string
	Status    string
	Output    string
	At        time.Time
}

// Step statuses.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// Journal is a sqlite-backed run log.
type Journal struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open creates or opens the journal at path.
func Open(ctx context.Context, path string) (*Journal, error) {
	if path == "" {
		return nil, errors.New("journal path must be set")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("prepare journal dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	goal TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP,
	achieved INTEGER NOT NULL DEFAULT 0,
	message TEXT NOT NULL DEFAULT ''
)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init runs schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS steps (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id),
	iteration INTEGER NOT NULL,
	position INTEGER NOT NULL,
	step TEXT NOT NULL,
	status TEXT NOT NULL,
	output TEXT NOT NULL,
	at TIMESTAMP NOT NULL
)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init steps schema: %w", err)
	}
	return &Journal{db: db, path: path, now: time.Now}, nil
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.path
}

// StartRun inserts a new run and returns its id.
func (j *Journal) StartRun(ctx context.Context, goal string) (string, error) {
	id := uuid.NewString()
	if _, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, goal, started_at) VALUES (?, ?, ?)`,
		id, goal, j.now().UTC()); err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	return id, nil
}

// RecordStep appends a step row.
func (j *Journal) RecordStep(ctx context.Context, rec StepRecord) error {
	at := rec.At
	if at.IsZero() {
		at = j.now()
	}
	if _, err := j.db.ExecContext(ctx,
		`INSERT INTO steps (run_id, iteration, position, step, status, output, at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Iteration, rec.Position, rec.Step, rec.Status, rec.Output, at.UTC()); err != nil {
		return fmt.Errorf("record step: %w", err)
	}
	return nil
}

// FinishRun stores the outcome of a run.
func (j *Journal) FinishRun(ctx context.Context, runID string, achieved bool, message string) error {
	res, err := j.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, achieved = ?, message = ? WHERE id = ?`,
		j.now().UTC(), boolToInt(achieved), message, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, errRunNotFound)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `
SELECT r.id, r.goal, r.started_at, r.finished_at, r.achieved, r.message,
	(SELECT COUNT(*) FROM steps s WHERE s.run_id = r.id)
FROM runs r
ORDER BY r.started_at DESC, r.rowid DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run      Run
			finished sql.NullTime
			achieved int
		)
		if err := rows.Scan(&run.ID, &run.Goal, &run.StartedAt, &finished, &achieved, &run.Message, &run.Steps); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		run.Achieved = achieved != 0
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Steps returns the recorded steps of a run in order.
func (j *Journal) Steps(ctx context.Context, runID string) ([]StepRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
SELECT run_id, iteration, position, step, status, output, at
FROM steps WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var out []StepRecord
	for rows.Next() {
		var rec StepRecord
		if err := rows.Scan(&rec.RunID, &rec.Iteration, &rec.Position, &rec.Step, &rec.Status, &rec.Output, &rec.At); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
