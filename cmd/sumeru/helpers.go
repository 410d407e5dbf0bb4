package sumeru

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lhuanyu/Sumeru/internal/app"
	"github.com/lhuanyu/Sumeru/internal/db"
	"github.com/lhuanyu/Sumeru/internal/model"
	"github.com/lhuanyu/Sumeru/internal/service"
	"github.com/lhuanyu/Sumeru/internal/store"
)

// nowFunc is replaced in tests.
var nowFunc = time.Now

func withDB(run func(*sql.DB) error) error {
	path := cfg.DBPath
	if err := app.EnsureDBDir(path); err != nil {
		return err
	}
	sqldb, err := db.Open(path)
	if err != nil {
		return err
	}
	defer sqldb.Close()

	if err := db.ApplyMigrations(sqldb); err != nil {
		return err
	}
	return run(sqldb)
}

func withRepo(run func(*sql.DB, store.Repository) error) error {
	return withDB(func(sqldb *sql.DB) error {
		return run(sqldb, store.NewSQLite(sqldb))
	})
}

func loadPreferences(sqldb *sql.DB) (service.Preferences, error) {
	return service.LoadPreferences(sqldb, service.Preferences{ChartDays: cfg.ChartDays})
}

// parseDateTimeOrNow reads --date/--time in the configured zone. A time
// without a date means today.
func parseDateTimeOrNow(date, timeStr string) (time.Time, error) {
	date = strings.TrimSpace(date)
	timeStr = strings.TrimSpace(timeStr)
	now := nowFunc().In(cfg.Location)
	if date == "" && timeStr == "" {
		return now, nil
	}
	if date == "" {
		date = now.Format("2006-01-02")
	}
	if timeStr == "" {
		t, err := time.ParseInLocation("2006-01-02", date, cfg.Location)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", date)
		}
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+timeStr, cfg.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date/--time (expected YYYY-MM-DD and HH:MM)")
	}
	return t, nil
}

func parseDateTime(date, timeStr string) (time.Time, error) {
	date = strings.TrimSpace(date)
	timeStr = strings.TrimSpace(timeStr)
	if date == "" || timeStr == "" {
		return time.Time{}, fmt.Errorf("both --date and --time are required")
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+timeStr, cfg.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date/--time (expected YYYY-MM-DD and HH:MM)")
	}
	return t, nil
}

// parseEndClock resolves an HH:MM end time against start. An end clock
// earlier than the start clock rolls over to the next day.
func parseEndClock(start time.Time, clock string) (time.Time, error) {
	c, err := time.Parse("15:04", strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --end %q (expected HH:MM)", clock)
	}
	s := start.In(cfg.Location)
	end := time.Date(s.Year(), s.Month(), s.Day(), c.Hour(), c.Minute(), 0, 0, cfg.Location)
	if end.Before(s) {
		end = end.AddDate(0, 0, 1)
	}
	return end, nil
}

// parseTypeFilter accepts a care type, or "all" and "" for no filter.
func parseTypeFilter(value string) (model.CareType, error) {
	v := strings.TrimSpace(value)
	if v == "" || strings.EqualFold(v, "all") {
		return "", nil
	}
	return model.ParseCareType(v)
}

func printJSON(out io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(out, string(b))
	return nil
}
