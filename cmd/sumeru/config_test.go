package sumeru

import (
	"strings"
	"testing"
)

func TestConfigSetGetAndTypeFilter(t *testing.T) {
	newTestEnv(t)

	if _, err := run(t, "config", "set"); err == nil {
		t.Fatalf("expected error without flags")
	}
	if _, err := run(t, "config", "set", "--chart-days", "0"); err == nil {
		t.Fatalf("expected error for zero chart days")
	}
	out := mustRun(t, "config", "set", "--chart-days", "14", "--type-filter", "diaper")
	if !strings.Contains(out, "Updated 2 config value(s)") {
		t.Fatalf("unexpected set output %q", out)
	}
	out = mustRun(t, "config", "get")
	if !strings.Contains(out, "chart_days\t14") || !strings.Contains(out, "type_filter\tdiaper") {
		t.Fatalf("unexpected get output:\n%s", out)
	}

	mustRun(t, "care", "add", "--type", "bath", "--time", "19:00")
	mustRun(t, "care", "add", "--type", "diaper", "--diaper", "wet", "--time", "18:00")
	out = mustRun(t, "care", "list")
	if strings.Contains(out, "Bath") || !strings.Contains(out, "Wet") {
		t.Fatalf("expected stored filter to apply:\n%s", out)
	}
	out = mustRun(t, "care", "list", "--type", "all")
	if !strings.Contains(out, "Bath") {
		t.Fatalf("expected --type all to override the stored filter:\n%s", out)
	}
}
