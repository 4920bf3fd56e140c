// Package store provides SQLite-backed persistence for archived drill sessions.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// schemaV1 defines the initial database schema.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id        TEXT PRIMARY KEY,
	program_name      TEXT NOT NULL DEFAULT '',
	program_json      TEXT NOT NULL DEFAULT '[]',
	status            TEXT NOT NULL DEFAULT 'completed',
	current_step      INTEGER NOT NULL DEFAULT 0,
	started_at_unix   INTEGER NOT NULL DEFAULT 0,
	completed_at_unix INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS shots (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	shot_id     TEXT NOT NULL,
	session_id  TEXT NOT NULL,
	seq_no      INTEGER NOT NULL,
	zone        TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	created_at  INTEGER NOT NULL,
	UNIQUE(session_id, seq_no)
);
CREATE INDEX IF NOT EXISTS idx_shots_session_seq ON shots(session_id, seq_no);
CREATE INDEX IF NOT EXISTS idx_shots_zone ON shots(zone);
`

// NewDB opens a SQLite database at the given path with recommended pragmas
// and runs the V1 schema migration.
func NewDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Limit connections to 1 for SQLite (WAL allows concurrent reads but single writer).
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return db, nil
}

func migrate(db *sql.DB) error {
	_, err := db.ExecContext(context.Background(), schemaV1)
	return err
}
