package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "polybasket",
	Short: "Polymarket multi-market YES-basket arbitrage watcher",
	Long: `Polybasket watches a basket of related Polymarket binary markets over the
CLOB websocket and paper-trades the complete-set arbitrage: when the sum of
best YES asks across every market drops below the threshold, it buys one YES
share in each market on paper and holds until the condition reverts.

Market metadata is resolved from the Gamma API, books are maintained from
snapshot, delta and top-of-book events, and state is optionally persisted to
PostgreSQL for offline analysis.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
