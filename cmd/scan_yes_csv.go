package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/polybasket/polybasket/internal/analyze"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var scanYesCsvCmd = &cobra.Command{
	Use:   "scan-yes-csv",
	Short: "Scan a wide YES-price CSV for net-positive arbitrage intervals",
	Long: `Scans a wide CSV of Buy-YES prices (two timestamp columns followed by one
price column per outcome) for contiguous intervals where buying every YES leg
nets a positive edge after fees. Rows closer together than the gap limit are
merged into one interval.`,
	RunE: runScanYesCsv,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(scanYesCsvCmd)
	scanYesCsvCmd.Flags().StringP("file", "f", "", "Path to the wide YES-price CSV (required)")
	scanYesCsvCmd.Flags().String("eps", "0", "Minimum net edge to count a row")
	scanYesCsvCmd.Flags().IntP("top", "n", 10, "Number of intervals to show, by max edge")
	scanYesCsvCmd.Flags().String("fee-rate", "0", "Proportional fee rate on notional")
	scanYesCsvCmd.Flags().String("fee-fixed", "0", "Fixed fee per leg")
	scanYesCsvCmd.Flags().Int64("max-gap", 90, "Maximum gap in seconds before an interval breaks")
	_ = scanYesCsvCmd.MarkFlagRequired("file")
}

func runScanYesCsv(cmd *cobra.Command, args []string) error {
	// Get flags
	path, _ := cmd.Flags().GetString("file")
	epsStr, _ := cmd.Flags().GetString("eps")
	top, _ := cmd.Flags().GetInt("top")
	feeRateStr, _ := cmd.Flags().GetString("fee-rate")
	feeFixedStr, _ := cmd.Flags().GetString("fee-fixed")
	maxGap, _ := cmd.Flags().GetInt64("max-gap")

	eps, err := decimal.NewFromString(epsStr)
	if err != nil {
		return fmt.Errorf("parse eps: %w", err)
	}
	feeRate, err := decimal.NewFromString(feeRateStr)
	if err != nil {
		return fmt.Errorf("parse fee-rate: %w", err)
	}
	feeFixed, err := decimal.NewFromString(feeFixedStr)
	if err != nil {
		return fmt.Errorf("parse fee-fixed: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	outcomes, rows, skipped, err := analyze.ReadYesRows(f)
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	fmt.Printf("Outcomes: %d, rows: %d, skipped: %d\n", len(outcomes), len(rows), skipped)

	fees := analyze.FeeModel{Rate: feeRate, Fixed: feeFixed}
	intervals := analyze.FindIntervals(rows, eps, fees, maxGap)
	if len(intervals) == 0 {
		fmt.Println("No net-positive intervals found.")
		return nil
	}

	fmt.Printf("Intervals found: %d, showing top %d by max edge\n\n", len(intervals), top)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "START\tEND\tROWS\tMAX EDGE\tAVG EDGE\tSUM AT MAX\n")
	for _, iv := range analyze.TopIntervals(intervals, top) {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			formatTS(iv.Start.TS),
			formatTS(iv.End.TS),
			iv.Count,
			iv.MaxEdge.StringFixed(4),
			iv.AvgEdge.StringFixed(4),
			iv.MaxRow.SumYes.StringFixed(4))
	}
	return w.Flush()
}

func formatTS(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04:05")
}
