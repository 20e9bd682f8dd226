// Package history journals fix cycles in a local SQLite database so the
// status command can show what the helper did recently.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/leonletto/edge-copilot-helper/internal/fixer"
)

// DefaultKeep is how many cycles Record retains.
const DefaultKeep = 500

// timeLayout is fixed width so started_at sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one journaled fix cycle.
type Entry struct {
	CycleID   string
	StartedAt time.Time
	Outcome   fixer.Outcome
	Files     int
	Modified  int
	Error     string
}

// Store is the SQLite-backed fix journal. It implements fixer.Recorder.
type Store struct {
	db   *sql.DB
	keep int
}

var _ fixer.Recorder = (*Store)(nil)

// Open opens (creating if needed) the journal at path. ":memory:" opens a
// private in-memory journal.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return &Store{db: db, keep: DefaultKeep}, nil
}

// SetKeep changes how many cycles are retained. keep <= 0 keeps everything.
func (s *Store) SetKeep(keep int) {
	s.keep = keep
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record journals one cycle and trims the journal to the retention limit.
func (s *Store) Record(ctx context.Context, report *fixer.Report, applyErr error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var errText sql.NullString
	if applyErr != nil {
		errText = sql.NullString{String: applyErr.Error(), Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO cycles (cycle_id, started_at, outcome, modified, error) VALUES (?, ?, ?, ?, ?)`,
		report.CycleID, report.StartedAt.UTC().Format(timeLayout), string(report.Outcome), report.Modified(), errText,
	); err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}

	for _, f := range report.Files {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cycle_files (cycle_id, path, kind, modified) VALUES (?, ?, ?, ?)`,
			report.CycleID, f.Path, string(f.Kind), f.Modified,
		); err != nil {
			return fmt.Errorf("insert cycle file: %w", err)
		}
	}

	if s.keep > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM cycles WHERE cycle_id NOT IN (
				SELECT cycle_id FROM cycles ORDER BY started_at DESC, cycle_id DESC LIMIT ?
			)`, s.keep); err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Recent returns up to n cycles, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.cycle_id, c.started_at, c.outcome, c.modified, COALESCE(c.error, ''),
		       (SELECT COUNT(*) FROM cycle_files f WHERE f.cycle_id = c.cycle_id)
		FROM cycles c
		ORDER BY c.started_at DESC, c.cycle_id DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			started string
			outcome string
		)
		if err := rows.Scan(&e.CycleID, &started, &outcome, &e.Modified, &e.Error, &e.Files); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		e.StartedAt, err = time.Parse(timeLayout, started)
		if err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", started, err)
		}
		e.Outcome = fixer.Outcome(outcome)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Files returns the files journaled for one cycle.
func (s *Store) Files(ctx context.Context, cycleID string) ([]fixer.FileResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, kind, modified FROM cycle_files WHERE cycle_id = ? ORDER BY rowid`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("query cycle files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var files []fixer.FileResult
	for rows.Next() {
		var (
			f    fixer.FileResult
			kind string
		)
		if err := rows.Scan(&f.Path, &kind, &f.Modified); err != nil {
			return nil, fmt.Errorf("scan cycle file: %w", err)
		}
		f.Kind = fixer.FileKind(kind)
		files = append(files, f)
	}
	return files, rows.Err()
}
