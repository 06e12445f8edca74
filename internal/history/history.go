// Package history keeps a SQLite ledger of regenerate runs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/bianoble/dirctx/internal/cache"
	"github.com/bianoble/dirctx/internal/engine"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// FileName is the database file inside the history directory.
const FileName = "history.db"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    project     TEXT NOT NULL,
    scope       TEXT NOT NULL,
    mode        TEXT NOT NULL,
    waves       INTEGER NOT NULL DEFAULT 0,
    updated     INTEGER NOT NULL DEFAULT 0,
    skipped     INTEGER NOT NULL DEFAULT 0,
    failed      INTEGER NOT NULL DEFAULT 0,
    index_error TEXT NOT NULL DEFAULT '',
    started_ns  INTEGER NOT NULL,
    finished_ns INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS runs_project_started ON runs(project, started_ns DESC);

CREATE TABLE IF NOT EXISTS failures (
    run_id    TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    target_id TEXT NOT NULL,
    message   TEXT NOT NULL
);
`

// Run is one recorded regenerate run.
type Run struct {
	ID       string
	Project  string
	Scope    string
	Mode     string
	Waves    int
	Updated  int
	Skipped  int
	Failed   int
	IndexErr string
	Started  time.Time
	Finished time.Time
	Failures []Failure
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Failure is one Target that failed in a run.
type Failure struct {
	TargetID string
	Message  string
}

// FromSummary converts an engine summary into a Run for project.
func FromSummary(project string, s *engine.Summary) Run {
	r := Run{
		Project:  project,
		Scope:    s.Scope,
		Mode:     string(s.Mode),
		Waves:    s.Waves,
		Updated:  len(s.Updated),
		Skipped:  len(s.Skipped),
		Failed:   len(s.Failed),
		Started:  s.Started,
		Finished: s.Finished,
	}
	if s.IndexErr != nil {
		r.IndexErr = s.IndexErr.Error()
	}
	for _, f := range s.Failed {
		r.Failures = append(r.Failures, Failure{TargetID: f.ID, Message: f.Err.Error()})
	}
	return r
}

// DefaultPath returns the ledger location under the dirctx cache directory.
func DefaultPath() string {
	return filepath.Join(cache.DefaultDir(), FileName)
}

// Store is an open history ledger.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the ledger at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("history: create directory: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: %s: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores r and returns its ID, generating one when r.ID is empty.
func (s *Store) Record(ctx context.Context, r Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	const insertRun = `
		INSERT INTO runs (id, project, scope, mode, waves, updated, skipped, failed, index_error, started_ns, finished_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insertRun,
		r.ID, r.Project, r.Scope, r.Mode, r.Waves, r.Updated, r.Skipped, r.Failed,
		r.IndexErr, r.Started.UnixNano(), r.Finished.UnixNano()); err != nil {
		return "", fmt.Errorf("history: insert run %s: %w", r.ID, err)
	}

	for _, f := range r.Failures {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO failures (run_id, target_id, message) VALUES (?, ?, ?)",
			r.ID, f.TargetID, f.Message); err != nil {
			return "", fmt.Errorf("history: insert failure for %s: %w", f.TargetID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("history: commit: %w", err)
	}
	return r.ID, nil
}

// List returns up to limit runs for project, newest first. A limit of zero
// or less returns every run.
func (s *Store) List(ctx context.Context, project string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project, scope, mode, waves, updated, skipped, failed, index_error, started_ns, finished_ns
		FROM runs WHERE project = ?
		ORDER BY started_ns DESC, id
		LIMIT ?`, project, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                   Run
			startedNs, finishNs int64
		)
		if err := rows.Scan(&r.ID, &r.Project, &r.Scope, &r.Mode, &r.Waves, &r.Updated,
			&r.Skipped, &r.Failed, &r.IndexErr, &startedNs, &finishNs); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		r.Started = time.Unix(0, startedNs)
		r.Finished = time.Unix(0, finishNs)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}

	for i := range runs {
		failures, err := s.failures(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Failures = failures
	}
	return runs, nil
}

func (s *Store) failures(ctx context.Context, runID string) ([]Failure, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT target_id, message FROM failures WHERE run_id = ? ORDER BY rowid", runID)
	if err != nil {
		return nil, fmt.Errorf("history: list failures: %w", err)
	}
	defer rows.Close()

	var out []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.TargetID, &f.Message); err != nil {
			return nil, fmt.Errorf("history: scan failure: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
