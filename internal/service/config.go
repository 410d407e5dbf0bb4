package service

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lhuanyu/Sumeru/internal/model"
)

const (
	ConfigChartDays  = "chart_days"
	ConfigTypeFilter = "type_filter"
)

// Preferences are the view settings kept in app_config.
type Preferences struct {
	ChartDays  int            `json:"chart_days"`
	TypeFilter model.CareType `json:"type_filter"`
}

func SetConfig(db *sql.DB, key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return fmt.Errorf("%w: config key is required", ErrInvalidInput)
	}
	_, err := db.Exec(`
INSERT INTO app_config(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("set config %q: %w", key, err)
	}
	return nil
}

func GetConfig(db *sql.DB, key string) (string, bool, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return "", false, fmt.Errorf("%w: config key is required", ErrInvalidInput)
	}
	var value string
	err := db.QueryRow(`SELECT value FROM app_config WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get config %q: %w", key, err)
	}
	return value, true, nil
}

func ListConfig(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM app_config ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list config: %w", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate config: %w", err)
	}
	return out, nil
}

func SetChartDays(db *sql.DB, days int) error {
	if err := validatePositiveInt("chart days", days); err != nil {
		return err
	}
	return SetConfig(db, ConfigChartDays, strconv.Itoa(days))
}

// SetTypeFilter stores the list filter. "all" and "" clear it.
func SetTypeFilter(db *sql.DB, value string) error {
	v := strings.TrimSpace(strings.ToLower(value))
	if v == "" || v == "all" {
		return SetConfig(db, ConfigTypeFilter, "")
	}
	t, err := model.ParseCareType(v)
	if err != nil {
		return err
	}
	return SetConfig(db, ConfigTypeFilter, string(t))
}

// LoadPreferences overlays stored values on defaults. Unparseable stored
// values are reported rather than silently ignored.
func LoadPreferences(db *sql.DB, defaults Preferences) (Preferences, error) {
	out := defaults
	raw, ok, err := GetConfig(db, ConfigChartDays)
	if err != nil {
		return out, err
	}
	if ok && raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			return out, fmt.Errorf("stored %s %q is invalid", ConfigChartDays, raw)
		}
		out.ChartDays = days
	}
	raw, ok, err = GetConfig(db, ConfigTypeFilter)
	if err != nil {
		return out, err
	}
	if ok {
		if raw == "" {
			out.TypeFilter = ""
		} else {
			t, err := model.ParseCareType(raw)
			if err != nil {
				return out, fmt.Errorf("stored %s: %w", ConfigTypeFilter, err)
			}
			out.TypeFilter = t
		}
	}
	return out, nil
}
