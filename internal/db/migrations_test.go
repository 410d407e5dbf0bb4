package db_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lhuanyu/Sumeru/internal/db"
)

func TestApplyMigrationsIdempotent(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "sumeru.db")
	sqldb, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer sqldb.Close()

	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("first apply migrations: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("second apply migrations: %v", err)
	}

	var migrationCount int
	if err := sqldb.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&migrationCount); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if migrationCount != db.LatestVersion() {
		t.Fatalf("expected %d migration versions, got %d", db.LatestVersion(), migrationCount)
	}
	version, err := db.SchemaVersion(sqldb)
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if version != db.LatestVersion() {
		t.Fatalf("expected schema version %d, got %d", db.LatestVersion(), version)
	}

	for _, table := range []string{"care_events", "feeding_details", "diaper_details", "app_config"} {
		var n int
		if err := sqldb.QueryRow(`SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n); err != nil {
			t.Fatalf("check %s table: %v", table, err)
		}
		if n != 1 {
			t.Fatalf("expected %s table to exist", table)
		}
	}

	var solidColCount int
	if err := sqldb.QueryRow(`SELECT COUNT(1) FROM pragma_table_info('feeding_details') WHERE name = 'solid_amount_g'`).Scan(&solidColCount); err != nil {
		t.Fatalf("check solid_amount_g column: %v", err)
	}
	if solidColCount != 1 {
		t.Fatalf("expected solid_amount_g column in feeding_details table")
	}

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected db file to exist: %v", err)
	}
}

func TestDetailRowsCascadeWithEvent(t *testing.T) {
	t.Parallel()

	sqldb, err := db.Open(filepath.Join(t.TempDir(), "sumeru.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer sqldb.Close()
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	if _, err := sqldb.Exec(`INSERT INTO care_events(id, type, occurred_at, created_at, updated_at) VALUES('a', 'diaper', '2026-01-01T08:00:00Z', '2026-01-01T08:00:00Z', '2026-01-01T08:00:00Z')`); err != nil {
		t.Fatalf("insert event: %v", err)
	}
	if _, err := sqldb.Exec(`INSERT INTO diaper_details(care_event_id, diaper_type, amount) VALUES('a', 'wet', 'normal')`); err != nil {
		t.Fatalf("insert detail: %v", err)
	}
	if _, err := sqldb.Exec(`INSERT INTO diaper_details(care_event_id, diaper_type, amount) VALUES('missing', 'wet', 'normal')`); err == nil {
		t.Fatalf("expected foreign key violation for orphan detail")
	}
	if _, err := sqldb.Exec(`DELETE FROM care_events WHERE id = 'a'`); err != nil {
		t.Fatalf("delete event: %v", err)
	}
	var n int
	if err := sqldb.QueryRow(`SELECT COUNT(1) FROM diaper_details`).Scan(&n); err != nil {
		t.Fatalf("count details: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected detail rows to cascade, got %d", n)
	}
}
