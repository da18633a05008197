package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // driver: sqlite
)

// Open opens (or creates) the contest database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		path = "contest.db"
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=rwc&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// single writer
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping sqlite")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ensure sqlite schema")
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS answer_keys (
  category TEXT PRIMARY KEY,
  key_json TEXT NOT NULL,
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS key_change_events (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL UNIQUE,
  category TEXT NOT NULL,
  key_json TEXT NOT NULL,
  recorded_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS participants (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  institution TEXT NOT NULL,
  grade INTEGER NOT NULL,
  category TEXT NOT NULL,
  category_overridden INTEGER NOT NULL DEFAULT 0,
  region TEXT NOT NULL DEFAULT '',
  management TEXT NOT NULL,
  teacher TEXT NOT NULL,
  submitted_at INTEGER NOT NULL,
  answers_json TEXT NOT NULL,
  correct INTEGER NOT NULL,
  incorrect INTEGER NOT NULL,
  blank INTEGER NOT NULL,
  points INTEGER NOT NULL,
  scored_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_participants_category ON participants(category);
`
