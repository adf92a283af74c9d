package analyze

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"
)

// TickOpportunity is one timestamp where the YES-ask sum sat below the
// threshold.
type TickOpportunity struct {
	AsOf   string
	Sum    decimal.Decimal
	Prices map[string]decimal.Decimal
}

// TickReport summarizes a tick-CSV scan.
type TickReport struct {
	YesAssets     int
	Opportunities []TickOpportunity
}

// ScanTicks scans an exported asset_price_ticks CSV for timestamps where the
// YES-ask sum across all observed YES assets is below threshold. Rows that
// are not YES or lack a parseable best_ask are skipped; a timestamp only
// counts once every observed YES asset has a price at it.
func ScanTicks(r io.Reader, threshold decimal.Decimal) (*TickReport, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"asset_id", "as_of", "outcome", "best_ask"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	// as_of -> asset_id -> best_ask
	byTime := make(map[string]map[string]decimal.Decimal)
	yesAssets := make(map[string]struct{})

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		if row[col["outcome"]] != "YES" {
			continue
		}

		askStr := row[col["best_ask"]]
		if askStr == "" {
			continue
		}
		ask, err := decimal.NewFromString(askStr)
		if err != nil {
			continue
		}

		asOf := row[col["as_of"]]
		assetID := row[col["asset_id"]]

		prices, ok := byTime[asOf]
		if !ok {
			prices = make(map[string]decimal.Decimal)
			byTime[asOf] = prices
		}
		prices[assetID] = ask
		yesAssets[assetID] = struct{}{}
	}

	times := make([]string, 0, len(byTime))
	for asOf := range byTime {
		times = append(times, asOf)
	}
	sort.Strings(times)

	report := &TickReport{YesAssets: len(yesAssets)}
	for _, asOf := range times {
		prices := byTime[asOf]
		if len(prices) < len(yesAssets) {
			continue
		}

		sum := decimal.Zero
		for _, p := range prices {
			sum = sum.Add(p)
		}

		if sum.LessThan(threshold) {
			report.Opportunities = append(report.Opportunities, TickOpportunity{
				AsOf:   asOf,
				Sum:    sum,
				Prices: prices,
			})
		}
	}

	return report, nil
}
