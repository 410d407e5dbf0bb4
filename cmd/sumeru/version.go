package sumeru

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lhuanyu/Sumeru/internal/db"
)

// Set with -ldflags "-X github.com/lhuanyu/Sumeru/cmd/sumeru.version=...".
var (
	version = "dev"
	commit  = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version/build metadata",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sumeru %s (commit %s, schema v%d)\n", version, commit, db.LatestVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
