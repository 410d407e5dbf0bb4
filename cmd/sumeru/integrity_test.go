package sumeru

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lhuanyu/Sumeru/internal/db"
)

func TestBackupCreateListRestore(t *testing.T) {
	path := newTestEnv(t)
	mustRun(t, "init")
	mustRun(t, "care", "add", "--type", "bath", "--time", "19:00")

	out := mustRun(t, "backup", "create")
	if !strings.Contains(out, "sumeru-20260402-200000.db") || !strings.Contains(out, "Checksum:") {
		t.Fatalf("unexpected backup output:\n%s", out)
	}
	backupPath := filepath.Join(filepath.Dir(path), "backups", "sumeru-20260402-200000.db")

	out = mustRun(t, "backup", "list")
	if !strings.Contains(out, backupPath) {
		t.Fatalf("expected backup in list:\n%s", out)
	}

	mustRun(t, "care", "add", "--type", "bath", "--time", "20:00")
	if _, err := run(t, "backup", "restore", "--file", backupPath); err == nil {
		t.Fatalf("expected restore without --force to fail")
	}
	mustRun(t, "backup", "restore", "--file", backupPath, "--force")
	if days := listDaySummariesJSON(t); len(days) != 1 || len(days[0].Events) != 1 {
		t.Fatalf("expected the restored db to hold one event, got %+v", days)
	}
}

func TestDoctor(t *testing.T) {
	path := newTestEnv(t)
	mustRun(t, "care", "add", "--type", "sleep", "--time", "13:00", "--duration", "1h")

	out := mustRun(t, "doctor")
	if !strings.Contains(out, "Integrity check: ok") || !strings.Contains(out, "Events: 1") {
		t.Fatalf("unexpected doctor output:\n%s", out)
	}

	id := listDaySummariesJSON(t)[0].Events[0].ID
	sqldb, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	insertMismatched(t, sqldb, id)
	_ = sqldb.Close()

	if _, err := run(t, "doctor"); err == nil {
		t.Fatalf("expected doctor to report the mismatched detail")
	}
	out = mustRun(t, "doctor", "--fix")
	if !strings.Contains(out, "Fixed detail rows: 1") || !strings.Contains(out, "Mismatched detail rows: 0") {
		t.Fatalf("unexpected doctor --fix output:\n%s", out)
	}
}

func insertMismatched(t *testing.T, sqldb *sql.DB, id string) {
	t.Helper()
	if _, err := sqldb.Exec(`INSERT INTO diaper_details(care_event_id, diaper_type, amount) VALUES(?, 'wet', 'normal')`, id); err != nil {
		t.Fatalf("insert mismatched detail: %v", err)
	}
}
