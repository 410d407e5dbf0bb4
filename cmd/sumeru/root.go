package sumeru

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lhuanyu/Sumeru/internal/config"
	"github.com/lhuanyu/Sumeru/internal/logger"
)

var (
	dbPath   string
	logLevel string
	tzName   string

	cfg *config.Config
	log = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "sumeru",
	Short: "sumeru keeps a baby's feeding, diaper, and sleep log",
	Long: `sumeru is a local-first care log for infants. It records feedings, diapers,
sleep, baths, and other events, summarizes them per day, and charts feeding volume.

Settings come from SUMERU_* environment variables (SUMERU_DB_PATH, SUMERU_LOG_LEVEL,
SUMERU_TIMEZONE, SUMERU_CHART_DAYS, SUMERU_API_ADDR); the global flags override them.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadRuntime,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Debug().Stack().Err(err).Msg("command failed")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&tzName, "tz", "", "IANA time zone used for day boundaries (default: local)")
}

func loadRuntime(cmd *cobra.Command, _ []string) error {
	c, err := config.New()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		c.DBPath = dbPath
	}
	if flags.Changed("log-level") {
		c.LogLevel = logLevel
	}
	if flags.Changed("tz") {
		c.Timezone = tzName
	}
	if err := c.ResolveDefaults(); err != nil {
		return err
	}
	cfg = c
	log = logger.New("sumeru", c.Level)
	log.Debug().EmbedObject(c).Str("command", cmd.CommandPath()).Msg("config loaded")
	return nil
}
