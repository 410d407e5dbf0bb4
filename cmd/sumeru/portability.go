package sumeru

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lhuanyu/Sumeru/internal/service"
	"github.com/lhuanyu/Sumeru/internal/store"
)

var (
	exportFormat string
	exportOut    string
	importFormat string
	importIn     string
	importMode   string
	importDryRun bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export care events (json or csv)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(exportOut) == "" {
			return fmt.Errorf("--out is required")
		}
		return withRepo(func(_ *sql.DB, repo store.Repository) error {
			data, err := service.ExportDataSnapshot(cmd.Context(), repo, nowFunc())
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			switch strings.ToLower(strings.TrimSpace(exportFormat)) {
			case "json":
				b, err := json.MarshalIndent(data, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal export json: %w", err)
				}
				buf.Write(b)
			case "csv":
				if err := service.WriteEventsCSV(&buf, data.Events); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unsupported --format %q (use json or csv)", exportFormat)
			}
			if err := os.WriteFile(exportOut, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write export file: %w", err)
			}
			log.Info().Int("events", len(data.Events)).Str("path", exportOut).Msg("exported")
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d events to %s\n", len(data.Events), exportOut)
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import care events (json or csv)",
	Long: `Import events from a file written by export. Every row is validated before
anything is written. --mode decides what happens to events whose id already exists:
fail aborts, skip keeps the stored event, merge overwrites it, and replace deletes
all stored events first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(importIn) == "" {
			return fmt.Errorf("--in is required")
		}
		f, err := os.Open(importIn)
		if err != nil {
			return fmt.Errorf("open import file: %w", err)
		}
		defer f.Close()

		var data *service.ExportData
		switch strings.ToLower(strings.TrimSpace(importFormat)) {
		case "json":
			if data, err = service.DecodeExportJSON(f); err != nil {
				return err
			}
		case "csv":
			payloads, err := service.ReadEventsCSV(f, cfg.Location)
			if err != nil {
				return err
			}
			data = &service.ExportData{Version: service.ExportVersion, Events: payloads}
		default:
			return fmt.Errorf("unsupported --format %q (use json or csv)", importFormat)
		}

		return withRepo(func(_ *sql.DB, repo store.Repository) error {
			report, err := service.ImportDataSnapshotWithOptions(cmd.Context(), repo, data, service.ImportOptions{
				Mode:   service.ImportMode(importMode),
				DryRun: importDryRun,
			})
			if err != nil {
				return err
			}
			prefix := "Import report"
			if importDryRun {
				prefix = "Import report (dry run)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: inserted=%d updated=%d skipped=%d deleted=%d conflicts=%d\n", prefix, report.Inserted, report.Updated, report.Skipped, report.Deleted, report.Conflicts)
			for _, w := range report.Warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)

	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Export format: json or csv")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file path")
	importCmd.Flags().StringVar(&importFormat, "format", "json", "Import format: json or csv")
	importCmd.Flags().StringVar(&importIn, "in", "", "Input file path")
	importCmd.Flags().StringVar(&importMode, "mode", string(service.ImportModeMerge), "Conflict mode: fail, skip, merge, or replace")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate and report without writing")
}
