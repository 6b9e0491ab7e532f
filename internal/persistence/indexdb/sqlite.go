// Package indexdb keeps a small sqlite read-model of sessions and turns.
// It is an index only: the turn log plus the initial snapshot remain the
// durable source of truth, and the engine runs file-only when indexing is
// disabled.
package indexdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteIndex struct {
	db *sql.DB
}

type SessionRow struct {
	SessionID     string
	SchemaVersion string
	Turn          int
	UpdatedAt     time.Time
}

func Open(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteIndex{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-style write pattern; NORMAL durability is fine
	// for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS sessions (
	session_id     TEXT PRIMARY KEY,
	schema_version TEXT NOT NULL,
	turn           INTEGER NOT NULL,
	updated_at     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS turns (
	session_id TEXT NOT NULL,
	turn       INTEGER NOT NULL,
	record_id  TEXT NOT NULL,
	accepted   INTEGER NOT NULL,
	rejected   INTEGER NOT NULL,
	incomplete INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	PRIMARY KEY (session_id, turn)
);
CREATE INDEX IF NOT EXISTS idx_turns_record ON turns(record_id);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *SQLiteIndex) UpsertSession(sessionID, schemaVersion string, turn int, at time.Time) error {
	_, err := s.db.Exec(`
INSERT INTO sessions (session_id, schema_version, turn, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET turn=excluded.turn, updated_at=excluded.updated_at`,
		sessionID, schemaVersion, turn, at.UTC().Format(time.RFC3339Nano))
	return err
}

// InsertTurn is idempotent per (session, turn): a retried commit after a
// partial failure leaves the first row in place.
func (s *SQLiteIndex) InsertTurn(sessionID string, turn int, recordID string, accepted, rejected int, incomplete bool, at time.Time) error {
	inc := 0
	if incomplete {
		inc = 1
	}
	_, err := s.db.Exec(`
INSERT INTO turns (session_id, turn, record_id, accepted, rejected, incomplete, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(session_id, turn) DO NOTHING`,
		sessionID, turn, recordID, accepted, rejected, inc, at.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SQLiteIndex) ListSessions() ([]SessionRow, error) {
	rows, err := s.db.Query(`SELECT session_id, schema_version, turn, updated_at FROM sessions ORDER BY session_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var r SessionRow
		var ts string
		if err := rows.Scan(&r.SessionID, &r.SchemaVersion, &r.Turn, &ts); err != nil {
			return nil, err
		}
		r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) Close() error { return s.db.Close() }
