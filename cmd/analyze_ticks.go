package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/polybasket/polybasket/internal/analyze"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var analyzeTicksCmd = &cobra.Command{
	Use:   "analyze-ticks",
	Short: "Scan an exported ticks CSV for basket arbitrage timestamps",
	Long: `Scans an asset_price_ticks CSV export for timestamps where the sum of
best YES asks across every observed YES asset was below the threshold. A
timestamp only counts when every YES asset has a price at it.`,
	RunE: runAnalyzeTicks,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(analyzeTicksCmd)
	analyzeTicksCmd.Flags().StringP("file", "f", "", "Path to the asset_price_ticks CSV export (required)")
	analyzeTicksCmd.Flags().StringP("threshold", "t", "1", "YES-ask sum threshold")
	_ = analyzeTicksCmd.MarkFlagRequired("file")
}

func runAnalyzeTicks(cmd *cobra.Command, args []string) error {
	// Get flags
	path, _ := cmd.Flags().GetString("file")
	thresholdStr, _ := cmd.Flags().GetString("threshold")

	threshold, err := decimal.NewFromString(thresholdStr)
	if err != nil {
		return fmt.Errorf("parse threshold: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	report, err := analyze.ScanTicks(f, threshold)
	if err != nil {
		return fmt.Errorf("scan ticks: %w", err)
	}

	fmt.Printf("YES assets observed: %d\n", report.YesAssets)
	fmt.Printf("Timestamps with sum(best YES ask) < %s: %d\n\n", threshold, len(report.Opportunities))

	for _, opp := range report.Opportunities {
		fmt.Printf("%s  sum=%s\n", opp.AsOf, opp.Sum)

		assets := make([]string, 0, len(opp.Prices))
		for asset := range opp.Prices {
			assets = append(assets, asset)
		}
		sort.Strings(assets)
		for _, asset := range assets {
			fmt.Printf("  %s  ask=%s\n", asset, opp.Prices[asset])
		}
	}

	if len(report.Opportunities) == 0 {
		fmt.Println("No arbitrage timestamps found.")
	}

	return nil
}
