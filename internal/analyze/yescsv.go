package analyze

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// YesRow is one minute-level observation of Buy-YES prices for every outcome.
type YesRow struct {
	TS        int64
	Date      string
	YesPrices []decimal.Decimal
	SumYes    decimal.Decimal
}

// Interval is a contiguous run of rows with positive net edge. Rows more
// than the gap limit apart break the run.
type Interval struct {
	Start   YesRow
	End     YesRow
	Count   int
	MaxEdge decimal.Decimal
	AvgEdge decimal.Decimal
	MaxRow  YesRow
}

// FeeModel prices a basket entry: a proportional rate on notional plus a
// fixed fee per leg.
type FeeModel struct {
	Rate  decimal.Decimal
	Fixed decimal.Decimal
}

// NetEdge is 1 minus the total cost of buying every YES leg at the row's
// prices under the fee model.
func (f FeeModel) NetEdge(row YesRow) decimal.Decimal {
	legs := decimal.NewFromInt(int64(len(row.YesPrices)))
	totalCost := row.SumYes.Mul(decimal.NewFromInt(1).Add(f.Rate)).Add(legs.Mul(f.Fixed))
	return decimal.NewFromInt(1).Sub(totalCost)
}

// ReadYesRows parses a wide YES-price CSV: two leading timestamp columns
// followed by one Buy-YES price column per outcome. Rows with any
// unparseable cell are counted and skipped. Rows are returned sorted by
// timestamp.
func ReadYesRows(r io.Reader) (outcomes []string, rows []YesRow, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 3 {
		return nil, nil, 0, fmt.Errorf("expected at least 3 columns, got %d", len(header))
	}
	outcomes = header[2:]

	for {
		line, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, 0, fmt.Errorf("read row: %w", err)
		}

		if len(line) < 3 {
			skipped++
			continue
		}

		prices := make([]decimal.Decimal, 0, len(line)-2)
		ok := true
		for _, cell := range line[2:] {
			p, err := decimal.NewFromString(cell)
			if err != nil {
				ok = false
				break
			}
			prices = append(prices, p)
		}
		if !ok {
			skipped++
			continue
		}

		tsFloat, err := strconv.ParseFloat(line[1], 64)
		if err != nil {
			skipped++
			continue
		}

		sum := decimal.Zero
		for _, p := range prices {
			sum = sum.Add(p)
		}

		rows = append(rows, YesRow{
			TS:        int64(tsFloat),
			Date:      line[0],
			YesPrices: prices,
			SumYes:    sum,
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].TS < rows[j].TS })
	return outcomes, rows, skipped, nil
}

// FindIntervals groups rows with net edge above eps into contiguous
// intervals, merging rows no more than maxGapSeconds apart.
func FindIntervals(rows []YesRow, eps decimal.Decimal, fees FeeModel, maxGapSeconds int64) []Interval {
	var arb []YesRow
	for _, r := range rows {
		if fees.NetEdge(r).GreaterThan(eps) {
			arb = append(arb, r)
		}
	}
	if len(arb) == 0 {
		return nil
	}

	var intervals []Interval
	start := arb[0]
	prev := arb[0]
	maxEdge := fees.NetEdge(arb[0])
	maxRow := arb[0]
	sumEdge := maxEdge
	n := 1

	flush := func(end YesRow) {
		intervals = append(intervals, Interval{
			Start:   start,
			End:     end,
			Count:   n,
			MaxEdge: maxEdge,
			AvgEdge: sumEdge.Div(decimal.NewFromInt(int64(n))),
			MaxRow:  maxRow,
		})
	}

	for _, cur := range arb[1:] {
		if cur.TS-prev.TS <= maxGapSeconds {
			prev = cur
			n++
			edge := fees.NetEdge(cur)
			sumEdge = sumEdge.Add(edge)
			if edge.GreaterThan(maxEdge) {
				maxEdge = edge
				maxRow = cur
			}
			continue
		}

		flush(prev)
		start = cur
		prev = cur
		maxEdge = fees.NetEdge(cur)
		maxRow = cur
		sumEdge = maxEdge
		n = 1
	}

	flush(prev)
	return intervals
}

// TopIntervals returns up to n intervals sorted by max edge descending.
func TopIntervals(intervals []Interval, n int) []Interval {
	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MaxEdge.GreaterThan(sorted[j].MaxEdge)
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}
