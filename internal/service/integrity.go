package service

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type BackupInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
}

// DoctorReport counts rows that break the care-event invariants.
// Orphan and mismatched detail rows can appear when the file was edited
// with foreign keys disabled.
type DoctorReport struct {
	IntegrityCheck    string `json:"integrity_check"`
	OrphanDetails     int    `json:"orphan_details"`
	MismatchedDetails int    `json:"mismatched_details"`
	MissingDetails    int    `json:"missing_details"`
	InvalidTimestamps int    `json:"invalid_timestamps"`
	FixedDetailRows   int    `json:"fixed_detail_rows,omitempty"`
	SchemaVersion     int    `json:"schema_version"`
	EventCount        int    `json:"event_count"`
}

// Healthy reports whether no problem was found.
func (r DoctorReport) Healthy() bool {
	return r.IntegrityCheck == "ok" && r.OrphanDetails == 0 && r.MismatchedDetails == 0 && r.MissingDetails == 0 && r.InvalidTimestamps == 0
}

// BackupFileName is the default name for a backup taken at t.
func BackupFileName(t time.Time) string {
	return fmt.Sprintf("sumeru-%s.db", t.Format("20060102-150405"))
}

func CreateBackup(dbPath, outPath string) (BackupInfo, error) {
	if strings.TrimSpace(dbPath) == "" {
		return BackupInfo{}, fmt.Errorf("db path is required")
	}
	if strings.TrimSpace(outPath) == "" {
		return BackupInfo{}, fmt.Errorf("backup output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return BackupInfo{}, fmt.Errorf("create backup directory: %w", err)
	}
	if err := copyFile(dbPath, outPath); err != nil {
		return BackupInfo{}, err
	}
	checksum, err := fileSHA256(outPath)
	if err != nil {
		return BackupInfo{}, err
	}
	if err := os.WriteFile(outPath+".sha256", []byte(checksum+"\n"), 0o644); err != nil {
		return BackupInfo{}, fmt.Errorf("write checksum file: %w", err)
	}
	st, err := os.Stat(outPath)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("stat backup: %w", err)
	}
	return BackupInfo{Path: outPath, Checksum: checksum, CreatedAt: st.ModTime(), SizeBytes: st.Size()}, nil
}

func RestoreBackup(backupPath, dbPath string, force bool) error {
	if strings.TrimSpace(backupPath) == "" || strings.TrimSpace(dbPath) == "" {
		return fmt.Errorf("backup path and db path are required")
	}
	if !force {
		if _, err := os.Stat(dbPath); err == nil {
			return fmt.Errorf("target db already exists; use --force to overwrite")
		}
	}
	checksumFile := backupPath + ".sha256"
	if expected, err := os.ReadFile(checksumFile); err == nil {
		actual, err := fileSHA256(backupPath)
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(expected)) != actual {
			return fmt.Errorf("backup checksum mismatch")
		}
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	return copyFile(backupPath, dbPath)
}

func ListBackups(dir string) ([]BackupInfo, error) {
	files, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}
	out := make([]BackupInfo, 0)
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".db") {
			continue
		}
		full := filepath.Join(dir, f.Name())
		st, err := os.Stat(full)
		if err != nil {
			continue
		}
		checksum := ""
		if b, err := os.ReadFile(full + ".sha256"); err == nil {
			checksum = strings.TrimSpace(string(b))
		}
		out = append(out, BackupInfo{Path: full, Checksum: checksum, CreatedAt: st.ModTime(), SizeBytes: st.Size()})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

const (
	orphanDetailsQuery = `
SELECT
  (SELECT COUNT(1) FROM feeding_details f LEFT JOIN care_events e ON e.id = f.care_event_id WHERE e.id IS NULL) +
  (SELECT COUNT(1) FROM diaper_details d LEFT JOIN care_events e ON e.id = d.care_event_id WHERE e.id IS NULL)`
	mismatchedDetailsQuery = `
SELECT
  (SELECT COUNT(1) FROM feeding_details f JOIN care_events e ON e.id = f.care_event_id WHERE e.type <> 'feeding') +
  (SELECT COUNT(1) FROM diaper_details d JOIN care_events e ON e.id = d.care_event_id WHERE e.type <> 'diaper')`
	missingDetailsQuery = `
SELECT COUNT(1) FROM care_events e
WHERE (e.type = 'feeding' AND NOT EXISTS (SELECT 1 FROM feeding_details f WHERE f.care_event_id = e.id))
   OR (e.type = 'diaper' AND NOT EXISTS (SELECT 1 FROM diaper_details d WHERE d.care_event_id = e.id))`
)

// RunDoctor inspects the database. With fix set it deletes orphan and
// mismatched detail rows; events missing a detail are only reported since
// the data to rebuild them is gone.
func RunDoctor(db *sql.DB, fix bool) (DoctorReport, error) {
	report := DoctorReport{}
	if err := db.QueryRow(`PRAGMA integrity_check`).Scan(&report.IntegrityCheck); err != nil {
		return report, fmt.Errorf("doctor integrity check: %w", err)
	}
	if err := db.QueryRow(`SELECT IFNULL(MAX(version), 0) FROM schema_migrations`).Scan(&report.SchemaVersion); err != nil {
		return report, fmt.Errorf("doctor schema version: %w", err)
	}
	if err := db.QueryRow(`SELECT COUNT(1) FROM care_events`).Scan(&report.EventCount); err != nil {
		return report, fmt.Errorf("doctor event count: %w", err)
	}
	if err := db.QueryRow(orphanDetailsQuery).Scan(&report.OrphanDetails); err != nil {
		return report, fmt.Errorf("doctor orphan check: %w", err)
	}
	if err := db.QueryRow(mismatchedDetailsQuery).Scan(&report.MismatchedDetails); err != nil {
		return report, fmt.Errorf("doctor mismatch check: %w", err)
	}
	if err := db.QueryRow(missingDetailsQuery).Scan(&report.MissingDetails); err != nil {
		return report, fmt.Errorf("doctor missing detail check: %w", err)
	}

	rows, err := db.Query(`SELECT occurred_at, created_at, updated_at FROM care_events`)
	if err != nil {
		return report, fmt.Errorf("doctor timestamp query: %w", err)
	}
	for rows.Next() {
		var occurred, created, updated string
		if err := rows.Scan(&occurred, &created, &updated); err != nil {
			_ = rows.Close()
			return report, fmt.Errorf("doctor timestamp scan: %w", err)
		}
		for _, raw := range []string{occurred, created, updated} {
			if _, err := time.Parse(time.RFC3339, raw); err != nil {
				report.InvalidTimestamps++
				break
			}
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return report, fmt.Errorf("doctor timestamp iterate: %w", err)
	}
	_ = rows.Close()

	if fix && (report.OrphanDetails > 0 || report.MismatchedDetails > 0) {
		tx, err := db.Begin()
		if err != nil {
			return report, fmt.Errorf("doctor fix begin tx: %w", err)
		}
		stmts := []string{
			`DELETE FROM feeding_details WHERE care_event_id NOT IN (SELECT id FROM care_events WHERE type = 'feeding')`,
			`DELETE FROM diaper_details WHERE care_event_id NOT IN (SELECT id FROM care_events WHERE type = 'diaper')`,
		}
		for _, stmt := range stmts {
			res, err := tx.Exec(stmt)
			if err != nil {
				_ = tx.Rollback()
				return report, fmt.Errorf("doctor fix detail rows: %w", err)
			}
			n, _ := res.RowsAffected()
			report.FixedDetailRows += int(n)
		}
		if err := tx.Commit(); err != nil {
			return report, fmt.Errorf("doctor fix commit: %w", err)
		}
	}

	return report, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source file: %w", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("sync destination file: %w", err)
	}
	return nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for checksum: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
