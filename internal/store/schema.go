package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

const (
	tableRuns      = "runs"
	tableAttempts  = "attempts"
	tableLLMEvents = "llm_events"
	tableSequence  = "global_sequence"
)

// ddl holds the CREATE TABLE statements for every table the store owns.
// Timestamps are stored as unix milliseconds.
var ddl = []string{
	`CREATE TABLE IF NOT EXISTS ` + tableSequence + ` (
		id       INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS ` + tableRuns + ` (
		id            TEXT    NOT NULL PRIMARY KEY,
		sequence      INTEGER NOT NULL,
		created_at    INTEGER NOT NULL,
		status        TEXT    NOT NULL,
		attempts      INTEGER NOT NULL DEFAULT 0,
		max_attempts  INTEGER NOT NULL DEFAULT 0,
		model         TEXT    NOT NULL DEFAULT '',
		taxonomy      TEXT    NOT NULL DEFAULT '',
		context       TEXT    NOT NULL DEFAULT '',
		image_name    TEXT    NOT NULL DEFAULT '',
		item          TEXT    NOT NULL DEFAULT '',
		last_feedback TEXT    NOT NULL DEFAULT '',
		last_error    TEXT    NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS ` + tableAttempts + ` (
		run_id        TEXT    NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		number        INTEGER NOT NULL,
		forced_key    TEXT    NOT NULL DEFAULT '',
		feedback_in   TEXT    NOT NULL DEFAULT '',
		stage         TEXT    NOT NULL DEFAULT '',
		error_kind    TEXT    NOT NULL DEFAULT '',
		error_message TEXT    NOT NULL DEFAULT '',
		item          TEXT    NOT NULL DEFAULT '',
		verdict       TEXT    NOT NULL DEFAULT '',
		raw_response  TEXT    NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, number)
	)`,
	`CREATE TABLE IF NOT EXISTS ` + tableLLMEvents + ` (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence      INTEGER NOT NULL,
		created_at    INTEGER NOT NULL,
		provider      TEXT    NOT NULL DEFAULT '',
		model         TEXT    NOT NULL DEFAULT '',
		purpose       TEXT    NOT NULL DEFAULT '',
		run_id        TEXT    NOT NULL DEFAULT '',
		attempt       INTEGER NOT NULL DEFAULT 0,
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms    INTEGER NOT NULL DEFAULT 0,
		success       BOOLEAN NOT NULL DEFAULT 0,
		error_message TEXT    NOT NULL DEFAULT '',
		request_body  TEXT    NOT NULL DEFAULT '',
		response_body TEXT    NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_llm_events_run ON ` + tableLLMEvents + ` (run_id, attempt)`,
}

// migrate creates missing tables and seeds the sequence row. Existing
// tables are left untouched.
func migrate(ctx context.Context, db *sql.DB, b *entsql.DialectBuilder) error {
	for _, stmt := range ddl {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	query, args := b.Insert(tableSequence).
		Columns("id", "next_val").
		Values(1, 1).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()).
		Query()
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("seed sequence: %w", err)
	}
	return nil
}
