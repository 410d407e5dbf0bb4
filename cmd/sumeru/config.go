package sumeru

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lhuanyu/Sumeru/internal/service"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage stored view preferences",
}

var (
	cfgChartDays  int
	cfgTypeFilter string
)

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set preference values",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			updates := 0
			if cmd.Flags().Changed("chart-days") {
				if err := service.SetChartDays(sqldb, cfgChartDays); err != nil {
					return err
				}
				updates++
			}
			if cmd.Flags().Changed("type-filter") {
				if err := service.SetTypeFilter(sqldb, cfgTypeFilter); err != nil {
					return err
				}
				updates++
			}
			if updates == 0 {
				return fmt.Errorf("set at least one flag")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d config value(s)\n", updates)
			return nil
		})
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show stored preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			stored, err := service.ListConfig(sqldb)
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(stored))
			for k := range stored {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintln(cmd.OutOrStdout(), "KEY\tVALUE")
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", k, stored[k])
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd, configGetCmd)

	configSetCmd.Flags().IntVar(&cfgChartDays, "chart-days", 0, "Days shown by chart feeding")
	configSetCmd.Flags().StringVar(&cfgTypeFilter, "type-filter", "", "Default type filter for care list (or all)")
}
