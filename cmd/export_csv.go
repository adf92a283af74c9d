package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/polybasket/polybasket/internal/analyze"
	"github.com/polybasket/polybasket/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var exportCsvCmd = &cobra.Command{
	Use:   "export-csv",
	Short: "Export the persisted tables to CSV files",
	Long: `Exports the watcher's PostgreSQL tables to CSV files for offline analysis.
asset_price_latest and paper_pnl are exported in full; asset_price_ticks and
arb_signals are limited to a recent window. The database connection comes
from DATABASE_URL.`,
	RunE: runExportCsv,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(exportCsvCmd)
	exportCsvCmd.Flags().StringP("out-dir", "o", "exports", "Directory to write CSV files into")
	exportCsvCmd.Flags().Float64("since-hours", 24, "Window in hours for tick and signal exports")
	exportCsvCmd.Flags().Bool("include-raw", false, "Include the raw JSON column in the latest export")
	exportCsvCmd.Flags().Int64("event-id", 0, "Event id for pnl and signal exports (defaults to EVENT_ID)")
}

func runExportCsv(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Load .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	// Load config
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create logger
	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Get flags
	outDir, _ := cmd.Flags().GetString("out-dir")
	sinceHours, _ := cmd.Flags().GetFloat64("since-hours")
	includeRaw, _ := cmd.Flags().GetBool("include-raw")
	eventID, _ := cmd.Flags().GetInt64("event-id")
	if eventID == 0 {
		eventID = cfg.EventID
	}

	exporter, err := analyze.NewExporter(cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer exporter.Close()

	files, err := exporter.Export(ctx, analyze.ExportOptions{
		OutDir:     outDir,
		SinceHours: sinceHours,
		IncludeRaw: includeRaw,
		EventID:    eventID,
		Now:        time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	fmt.Printf("Exported %d files:\n", len(files))
	for _, f := range files {
		fmt.Printf("  %s\n", f)
	}
	return nil
}
