package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"github.com/lhuanyu/Sumeru/internal/aggregate"
	"github.com/lhuanyu/Sumeru/internal/app"
	"github.com/lhuanyu/Sumeru/internal/logger"
)

// Prefix for every environment variable, e.g. SUMERU_DB_PATH.
const Prefix = "SUMERU"

// Config holds process settings read from the environment. Command-line
// flags and preferences stored in the database are applied on top.
type Config struct {
	DBPath    string `envconfig:"DB_PATH" default:""`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"warn"`
	Timezone  string `envconfig:"TIMEZONE" default:"Local"`
	ChartDays int    `envconfig:"CHART_DAYS" default:"7"`
	APIAddr   string `envconfig:"API_ADDR" default:"127.0.0.1:8787"`

	// Resolved by ResolveDefaults.
	Level    zerolog.Level  `ignored:"true"`
	Location *time.Location `ignored:"true"`
}

// ResolveDefaults fills the database path and parses the level and zone.
func (c *Config) ResolveDefaults() error {
	if strings.TrimSpace(c.DBPath) == "" {
		path, err := app.DefaultDBPath()
		if err != nil {
			return err
		}
		c.DBPath = path
	}

	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	c.Level = level

	loc, err := LoadLocation(c.Timezone)
	if err != nil {
		return err
	}
	c.Location = loc

	if c.ChartDays <= 0 {
		return fmt.Errorf("unsupported CHART_DAYS: %d", c.ChartDays)
	}
	if strings.TrimSpace(c.APIAddr) == "" {
		return fmt.Errorf("API_ADDR must not be empty")
	}
	return nil
}

// New creates a Config by parsing SUMERU_* environment variables.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewForTesting returns resolved defaults pointing at dbPath without
// consulting the environment.
func NewForTesting(dbPath string) *Config {
	return &Config{
		DBPath:    dbPath,
		LogLevel:  "warn",
		Timezone:  "UTC",
		ChartDays: aggregate.DefaultChartDays,
		APIAddr:   "127.0.0.1:0",
		Level:     logger.DefaultLevel,
		Location:  time.UTC,
	}
}

// MarshalZerologObject lets the loaded config be logged with EmbedObject.
func (c *Config) MarshalZerologObject(e *zerolog.Event) {
	e.Str("db_path", c.DBPath).
		Str("log_level", c.Level.String()).
		Str("timezone", c.Location.String()).
		Int("chart_days", c.ChartDays).
		Str("api_addr", c.APIAddr)
}

// LoadLocation resolves an IANA zone name. "Local" and "" mean the
// process zone.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}
