package app_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lhuanyu/Sumeru/internal/app"
)

func TestBackupDirSitsNextToDatabase(t *testing.T) {
	t.Parallel()

	got := app.BackupDir(filepath.Join("data", "sumeru.db"))
	if got != filepath.Join("data", "backups") {
		t.Fatalf("unexpected backup dir %q", got)
	}
}

func TestEnsureDBDirCreatesParents(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a", "b", "sumeru.db")
	if err := app.EnsureDBDir(path); err != nil {
		t.Fatalf("ensure db dir: %v", err)
	}
	if info, err := os.Stat(filepath.Dir(path)); err != nil || !info.IsDir() {
		t.Fatalf("expected directory to exist: %v", err)
	}
}
