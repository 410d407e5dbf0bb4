package db

import (
	"database/sql"
	"errors"
	"fmt"
)

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "initial_schema",
		sql: `
CREATE TABLE IF NOT EXISTS care_events (
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL CHECK(type IN ('feeding', 'diaper', 'sleep', 'bath', 'other')),
  occurred_at TEXT NOT NULL,
  duration_seconds INTEGER NOT NULL DEFAULT 0 CHECK(duration_seconds >= 0),
  note TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_care_events_occurred_at ON care_events(occurred_at);
CREATE INDEX IF NOT EXISTS idx_care_events_type ON care_events(type);

CREATE TABLE IF NOT EXISTS feeding_details (
  care_event_id TEXT PRIMARY KEY,
  feeding_type TEXT NOT NULL,
  feeding_method TEXT NOT NULL,
  breast_amount_ml INTEGER NOT NULL DEFAULT 0 CHECK(breast_amount_ml >= 0),
  formula_amount_ml INTEGER NOT NULL DEFAULT 0 CHECK(formula_amount_ml >= 0),
  note TEXT NOT NULL DEFAULT '',
  FOREIGN KEY(care_event_id) REFERENCES care_events(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS diaper_details (
  care_event_id TEXT PRIMARY KEY,
  diaper_type TEXT NOT NULL,
  amount TEXT NOT NULL,
  texture TEXT NOT NULL DEFAULT '',
  color TEXT NOT NULL DEFAULT '',
  FOREIGN KEY(care_event_id) REFERENCES care_events(id) ON DELETE CASCADE
);
`,
	},
	{
		version: 2,
		name:    "solid_feeding_amount",
		sql: `
ALTER TABLE feeding_details ADD COLUMN solid_amount_g INTEGER NOT NULL DEFAULT 0 CHECK(solid_amount_g >= 0);
`,
	},
	{
		version: 3,
		name:    "app_config",
		sql: `
CREATE TABLE IF NOT EXISTS app_config (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`,
	},
}

// LatestVersion is the schema version after ApplyMigrations.
func LatestVersion() int {
	return migrations[len(migrations)-1].version
}

func ApplyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRow(`SELECT 1 FROM schema_migrations WHERE version = ?`, m.version).Scan(&exists)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check migration version %d: %w", m.version, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration tx: %w", err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration version %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version, name) VALUES(?, ?)`, m.version, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration version %d: %w", m.version, err)
		}
	}
	return nil
}

// SchemaVersion reports the highest applied migration, 0 for a fresh file.
func SchemaVersion(db *sql.DB) (int, error) {
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(v.Int64), nil
}
