package sumeru

import (
	"context"
	"database/sql"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lhuanyu/Sumeru/internal/api"
	"github.com/lhuanyu/Sumeru/internal/service"
	"github.com/lhuanyu/Sumeru/internal/store"
	"github.com/lhuanyu/Sumeru/internal/store/memory"
)

var (
	serveAddr   string
	serveMemory bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the care log as a local JSON API",
	Long: `Serve exposes events, day summaries, and the feeding chart under /api/v1.
GET /api/v1/watch?after=N blocks until a write newer than version N.
With --memory events live only in the process, which is handy for demos.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		addr := cfg.APIAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (Ctrl-C to stop)\n", addr)
		if serveMemory {
			return runServer(ctx, addr, memory.NewStore(), service.Preferences{ChartDays: cfg.ChartDays})
		}
		return withRepo(func(sqldb *sql.DB, repo store.Repository) error {
			prefs, err := loadPreferences(sqldb)
			if err != nil {
				return err
			}
			return runServer(ctx, addr, repo, prefs)
		})
	},
}

func runServer(ctx context.Context, addr string, repo store.Repository, prefs service.Preferences) error {
	pub := store.NewPublisher(repo, log)
	srv := api.NewServer(api.Config{Addr: addr, Location: cfg.Location, ChartDays: prefs.ChartDays}, pub, log)
	return srv.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: SUMERU_API_ADDR or 127.0.0.1:8787)")
	serveCmd.Flags().BoolVar(&serveMemory, "memory", false, "Keep events in memory instead of the database")
}
