package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CurrentVersion is the current schema version.
const CurrentVersion = 1

func migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL,
			applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}

	var stored sql.NullInt64
	err = tx.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_version").Scan(&stored)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("query schema version: %w", err)
	}
	version := int(stored.Int64)
	if version > CurrentVersion {
		return fmt.Errorf("history database version %d is newer than supported version %d", version, CurrentVersion)
	}
	if version == CurrentVersion {
		return tx.Commit()
	}

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS cycles (
			cycle_id   TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			outcome    TEXT NOT NULL,
			modified   INTEGER NOT NULL DEFAULT 0,
			error      TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS cycle_files (
			cycle_id TEXT NOT NULL REFERENCES cycles(cycle_id) ON DELETE CASCADE,
			path     TEXT NOT NULL,
			kind     TEXT NOT NULL,
			modified INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (cycle_id, path)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_started_at ON cycles(started_at)`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", CurrentVersion); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return tx.Commit()
}
