package store

import (
	"context"
	"database/sql"
)

// schema contains the DDL for the audit tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS decisions (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id     TEXT NOT NULL DEFAULT '',
		seq        INTEGER NOT NULL DEFAULT 0,
		timestamp  TEXT NOT NULL,
		task       TEXT NOT NULL,
		action     TEXT NOT NULL,
		label      TEXT NOT NULL,
		energy     REAL NOT NULL,
		battery    REAL NOT NULL,
		on_ac      INTEGER NOT NULL,
		elapsed_ms INTEGER NOT NULL DEFAULT 0,
		measured_j REAL NOT NULL DEFAULT 0,
		error      TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_decisions_run_id ON decisions(run_id)`,
	`CREATE INDEX IF NOT EXISTS idx_decisions_task ON decisions(task)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
