package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/polybasket/polybasket/internal/app"
	"github.com/polybasket/polybasket/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the basket watcher",
	Long: `Starts the basket watcher, which will:
1. Resolve YES/NO token ids for the configured markets from the Gamma API
2. Subscribe to their orderbooks via the CLOB websocket
3. Paper-trade the YES basket when the sum of best asks drops below threshold
4. Serve status, health and metrics over HTTP

Configuration is read from the environment; a .env file is loaded if present.`,
	RunE: runWatcher,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
}

func runWatcher(cmd *cobra.Command, args []string) error {
	// Load .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	// Load config
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	// Create logger
	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
