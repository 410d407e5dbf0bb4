package sumeru

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lhuanyu/Sumeru/internal/service"
)

var (
	doctorFix  bool
	doctorJSON bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run data integrity checks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			report, err := service.RunDoctor(sqldb, doctorFix)
			if err != nil {
				return err
			}
			fixed := report.FixedDetailRows
			if doctorFix {
				// Re-check after fixes so exit status reflects final state.
				report, err = service.RunDoctor(sqldb, false)
				if err != nil {
					return err
				}
				report.FixedDetailRows = fixed
			}
			if doctorJSON {
				if err := printJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Integrity check: %s\n", report.IntegrityCheck)
				fmt.Fprintf(out, "Schema version: %d\n", report.SchemaVersion)
				fmt.Fprintf(out, "Events: %d\n", report.EventCount)
				fmt.Fprintf(out, "Orphan detail rows: %d\n", report.OrphanDetails)
				fmt.Fprintf(out, "Mismatched detail rows: %d\n", report.MismatchedDetails)
				fmt.Fprintf(out, "Events missing a detail: %d\n", report.MissingDetails)
				fmt.Fprintf(out, "Invalid timestamps: %d\n", report.InvalidTimestamps)
				if doctorFix {
					fmt.Fprintf(out, "Fixed detail rows: %d\n", fixed)
				}
			}
			if !report.Healthy() {
				log.Warn().Interface("report", report).Msg("integrity issues found")
				return fmt.Errorf("doctor found integrity issues")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Delete orphan and mismatched detail rows")
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "Output JSON")
}
