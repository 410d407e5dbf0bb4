package sumeru

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lhuanyu/Sumeru/internal/db"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the local care log database",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			version, err := db.SchemaVersion(sqldb)
			if err != nil {
				return err
			}
			log.Info().Str("path", cfg.DBPath).Int("schema", version).Msg("database ready")
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized sumeru database at %s (schema v%d)\n", cfg.DBPath, version)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
