package sumeru

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lhuanyu/Sumeru/internal/service"
	"github.com/lhuanyu/Sumeru/internal/store"
)

var (
	todayDate string
	todayJSON bool
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's feedings, diapers, and sleep",
	RunE: func(cmd *cobra.Command, args []string) error {
		now := nowFunc()
		target := now
		if todayDate != "" {
			parsed, err := time.ParseInLocation("2006-01-02", todayDate, cfg.Location)
			if err != nil {
				return fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", todayDate)
			}
			target = parsed
		}
		return withRepo(func(_ *sql.DB, repo store.Repository) error {
			day, err := service.DaySummaryFor(cmd.Context(), repo, target, now, cfg.Location)
			if err != nil {
				return err
			}
			if todayJSON {
				return printJSON(cmd.OutOrStdout(), day)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Date: %s (%s)\n", day.Date, day.Label)
			fmt.Fprintf(out, "Feedings: %d (%dml", day.FeedingCount, day.FeedingMl)
			if day.SolidG > 0 {
				fmt.Fprintf(out, ", %dg solids", day.SolidG)
			}
			fmt.Fprintln(out, ")")
			fmt.Fprintf(out, "Diapers: %d\n", day.DiaperCount)
			fmt.Fprintf(out, "Sleep: %s\n", day.Sleep)
			for _, p := range day.Events {
				printEventRow(out, p, now)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(todayCmd)
	todayCmd.Flags().StringVar(&todayDate, "date", "", "Date YYYY-MM-DD (default today)")
	todayCmd.Flags().BoolVar(&todayJSON, "json", false, "Output JSON")
}
