// Package state persists validation runs and their violations.
//
// The store backs the `packlint runs` commands and keeps watch sessions
// comparable across iterations. It is bookkeeping only: every failure
// here is reported as a warning and validation carries on without it.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/randalmurphal/packlint/internal/report"
	"github.com/randalmurphal/packlint/internal/validator"
)

// DefaultPath is the store location relative to the project base.
const DefaultPath = ".packlint/state.db"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started TEXT NOT NULL DEFAULT '',
	finished TEXT NOT NULL DEFAULT '',
	errors INTEGER NOT NULL DEFAULT 0,
	warnings INTEGER NOT NULL DEFAULT 0,
	infos INTEGER NOT NULL DEFAULT 0,
	highest TEXT,
	skipped INTEGER NOT NULL DEFAULT 0,
	skip_reason TEXT NOT NULL DEFAULT '',
	failed INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS violations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	path TEXT NOT NULL,
	validator TEXT NOT NULL,
	severity TEXT NOT NULL,
	message TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_violations_run_path ON violations(run_id, path);
`

// Store is the sqlite-backed run store. It implements report.Sink.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the store at path, creating the parent directory and the
// schema as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Enable foreign keys, WAL mode, and busy timeout for concurrent access
	if _, err := db.Exec(`
		PRAGMA foreign_keys = ON;
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the store's file path.
func (s *Store) Path() string {
	return s.path
}

// ensureRun inserts a placeholder run row so violations recorded before
// the outcome satisfy the foreign key. RecordOutcome fills the row in.
func (s *Store) ensureRun(runID string) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, started) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, runID, time.Now().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("ensure run %s: %w", runID, err)
	}
	return nil
}

// ClearResource drops stored findings for one resource within a run.
func (s *Store) ClearResource(runID, path string) error {
	if err := s.ensureRun(runID); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM violations WHERE run_id = ? AND path = ?`, runID, path); err != nil {
		return fmt.Errorf("clear resource %s: %w", path, err)
	}
	return nil
}

// RecordViolations appends findings for a run in order.
func (s *Store) RecordViolations(runID string, vs []validator.Violation) error {
	if len(vs) == 0 {
		return nil
	}
	if err := s.ensureRun(runID); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO violations (run_id, path, validator, severity, message)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range vs {
		if _, err := stmt.Exec(runID, v.Path, v.Validator, string(v.Severity), v.Message); err != nil {
			return fmt.Errorf("insert violation: %w", err)
		}
	}
	return tx.Commit()
}

// RecordOutcome saves or updates the final result of a run.
func (s *Store) RecordOutcome(o report.Outcome) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, started, finished, errors, warnings, infos, highest, skipped, skip_reason, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			started = excluded.started,
			finished = excluded.finished,
			errors = excluded.errors,
			warnings = excluded.warnings,
			infos = excluded.infos,
			highest = excluded.highest,
			skipped = excluded.skipped,
			skip_reason = excluded.skip_reason,
			failed = excluded.failed
	`, o.RunID,
		o.Started.Format(time.RFC3339Nano),
		o.Finished.Format(time.RFC3339Nano),
		o.Totals[validator.SeverityError],
		o.Totals[validator.SeverityWarning],
		o.Totals[validator.SeverityInfo],
		stringToNullString(string(o.Highest)),
		boolToInt(o.Skipped),
		o.SkipReason,
		boolToInt(o.Failed))
	if err != nil {
		return fmt.Errorf("save run %s: %w", o.RunID, err)
	}
	return nil
}

// RunSummary is one stored run, without its violations.
type RunSummary struct {
	ID         string
	Started    time.Time
	Finished   time.Time
	Errors     int
	Warnings   int
	Infos      int
	Highest    validator.Severity
	Skipped    bool
	SkipReason string
	Failed     bool
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, started, finished, errors, warnings, infos, highest, skipped, skip_reason, failed
		FROM runs
		ORDER BY started DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun returns a run matched by ID prefix, with its violations in
// recorded order. Returns nil when no run matches.
func (s *Store) GetRun(idPrefix string) (*RunSummary, []validator.Violation, error) {
	row := s.db.QueryRow(`
		SELECT id, started, finished, errors, warnings, infos, highest, skipped, skip_reason, failed
		FROM runs
		WHERE id LIKE ? || '%'
		ORDER BY started DESC
		LIMIT 1
	`, idPrefix)

	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.Query(`
		SELECT path, validator, severity, message
		FROM violations
		WHERE run_id = ?
		ORDER BY id
	`, r.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load violations for %s: %w", r.ID, err)
	}
	defer rows.Close()

	var vs []validator.Violation
	for rows.Next() {
		var v validator.Violation
		var sev string
		if err := rows.Scan(&v.Path, &v.Validator, &sev, &v.Message); err != nil {
			return nil, nil, fmt.Errorf("scan violation: %w", err)
		}
		v.Severity = validator.Severity(sev)
		vs = append(vs, v)
	}
	return &r, vs, rows.Err()
}

// PruneRuns deletes runs started before cutoff, along with their
// violations, and returns how many runs were removed.
func (s *Store) PruneRuns(cutoff time.Time) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// datetime() normalizes the stored offsets so the comparison is in UTC.
	arg := cutoff.UTC().Format(time.RFC3339)
	if _, err := tx.Exec(`
		DELETE FROM violations
		WHERE run_id IN (SELECT id FROM runs WHERE datetime(started) < datetime(?))
	`, arg); err != nil {
		return 0, fmt.Errorf("prune violations: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM runs WHERE datetime(started) < datetime(?)`, arg)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return int(n), tx.Commit()
}

// scanner matches both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunSummary, error) {
	var r RunSummary
	var started, finished string
	var highest sql.NullString
	var skipped, failed int

	err := row.Scan(&r.ID, &started, &finished, &r.Errors, &r.Warnings, &r.Infos, &highest, &skipped, &r.SkipReason, &failed)
	if err != nil {
		return r, err
	}
	r.Started = parseTime(started)
	r.Finished = parseTime(finished)
	r.Highest = validator.Severity(highest.String)
	r.Skipped = skipped != 0
	r.Failed = failed != 0
	return r, nil
}

// parseTime accepts the layouts the store has written over time.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func stringToNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
