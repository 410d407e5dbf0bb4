package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// unsetEnv clears keys for the test and restores them afterwards.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func TestConfigLoad_Defaults(t *testing.T) {
	unsetEnv(t, "SUMERU_DB_PATH", "SUMERU_LOG_LEVEL", "SUMERU_TIMEZONE", "SUMERU_CHART_DAYS", "SUMERU_API_ADDR")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.ChartDays != 7 || cfg.APIAddr != "127.0.0.1:8787" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Level != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %v", cfg.Level)
	}
	if cfg.Location != time.Local {
		t.Fatalf("expected local timezone, got %v", cfg.Location)
	}
	if filepath.Base(cfg.DBPath) != "sumeru.db" {
		t.Fatalf("unexpected default db path %q", cfg.DBPath)
	}
}

func TestConfigLoad_EnvOverride(t *testing.T) {
	unsetEnv(t, "SUMERU_API_ADDR")
	t.Setenv("SUMERU_DB_PATH", "/tmp/care.db")
	t.Setenv("SUMERU_LOG_LEVEL", "debug")
	t.Setenv("SUMERU_TIMEZONE", "Asia/Shanghai")
	t.Setenv("SUMERU_CHART_DAYS", "14")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.DBPath != "/tmp/care.db" || cfg.ChartDays != 14 {
		t.Fatalf("env override failed: %+v", cfg)
	}
	if cfg.Level != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %v", cfg.Level)
	}
	if cfg.Location.String() != "Asia/Shanghai" {
		t.Fatalf("expected Asia/Shanghai, got %v", cfg.Location)
	}
}

func TestConfigLoad_RejectsBadValues(t *testing.T) {
	unsetEnv(t, "SUMERU_DB_PATH", "SUMERU_LOG_LEVEL", "SUMERU_API_ADDR")
	t.Setenv("SUMERU_TIMEZONE", "Mars/Olympus")
	if _, err := New(); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}

	t.Setenv("SUMERU_TIMEZONE", "UTC")
	t.Setenv("SUMERU_CHART_DAYS", "0")
	if _, err := New(); err == nil {
		t.Fatalf("expected error for zero chart days")
	}

	t.Setenv("SUMERU_CHART_DAYS", "7")
	t.Setenv("SUMERU_LOG_LEVEL", "shouty")
	if _, err := New(); err == nil {
		t.Fatalf("expected error for unknown log level")
	}
}

func TestNewForTestingIsResolved(t *testing.T) {
	cfg := NewForTesting("x.db")
	if cfg.Location == nil || cfg.DBPath != "x.db" || cfg.ChartDays <= 0 {
		t.Fatalf("unexpected testing config: %+v", cfg)
	}
}
