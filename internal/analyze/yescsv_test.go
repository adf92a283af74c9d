package analyze

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yesHeader = `"Date (UTC)","Timestamp (UTC)","Outcome A","Outcome B"` + "\n"

func TestReadYesRows(t *testing.T) {
	csvData := yesHeader +
		`"12-12-2025 16:02","120","0.40","0.50"` + "\n" +
		`"12-12-2025 16:00","0","0.30","0.40"` + "\n" +
		`"12-12-2025 16:01","60","nan","0.40"` + "\n"

	outcomes, rows, skipped, err := ReadYesRows(strings.NewReader(csvData))
	require.NoError(t, err)

	assert.Equal(t, []string{"Outcome A", "Outcome B"}, outcomes)
	assert.Equal(t, 1, skipped)
	require.Len(t, rows, 2)

	// Sorted by timestamp.
	assert.Equal(t, int64(0), rows[0].TS)
	assert.Equal(t, int64(120), rows[1].TS)
	assert.True(t, rows[0].SumYes.Equal(dec("0.70")))
}

func TestNetEdge(t *testing.T) {
	row := YesRow{
		YesPrices: []decimal.Decimal{dec("0.30"), dec("0.40")},
		SumYes:    dec("0.70"),
	}

	noFees := FeeModel{}
	assert.True(t, noFees.NetEdge(row).Equal(dec("0.30")))

	// 0.70 * 1.002 + 2 * 0.0001 = 0.7016; edge = 0.2984
	fees := FeeModel{Rate: dec("0.002"), Fixed: dec("0.0001")}
	assert.True(t, fees.NetEdge(row).Equal(dec("0.2984")),
		"got %s", fees.NetEdge(row))
}

func yesRow(ts int64, sum string) YesRow {
	return YesRow{
		TS:        ts,
		YesPrices: []decimal.Decimal{dec(sum)},
		SumYes:    dec(sum),
	}
}

func TestFindIntervals(t *testing.T) {
	rows := []YesRow{
		yesRow(0, "0.90"),   // arb
		yesRow(60, "0.95"),  // arb, same interval
		yesRow(120, "1.05"), // not arb
		yesRow(600, "0.80"), // arb, gap > 90s from previous arb row
		yesRow(660, "0.85"), // arb, same interval
	}

	intervals := FindIntervals(rows, decimal.Zero, FeeModel{}, 90)
	require.Len(t, intervals, 2)

	first := intervals[0]
	assert.Equal(t, int64(0), first.Start.TS)
	assert.Equal(t, int64(60), first.End.TS)
	assert.Equal(t, 2, first.Count)
	assert.True(t, first.MaxEdge.Equal(dec("0.10")))
	assert.True(t, first.AvgEdge.Equal(dec("0.075")))

	second := intervals[1]
	assert.Equal(t, int64(600), second.Start.TS)
	assert.Equal(t, 2, second.Count)
	assert.True(t, second.MaxEdge.Equal(dec("0.20")))
	assert.Equal(t, int64(600), second.MaxRow.TS)
}

func TestFindIntervals_NoArb(t *testing.T) {
	rows := []YesRow{yesRow(0, "1.05"), yesRow(60, "1.10")}
	assert.Nil(t, FindIntervals(rows, decimal.Zero, FeeModel{}, 90))
}

func TestTopIntervals(t *testing.T) {
	intervals := []Interval{
		{MaxEdge: dec("0.05")},
		{MaxEdge: dec("0.20")},
		{MaxEdge: dec("0.10")},
	}

	top := TopIntervals(intervals, 2)
	require.Len(t, top, 2)
	assert.True(t, top[0].MaxEdge.Equal(dec("0.20")))
	assert.True(t, top[1].MaxEdge.Equal(dec("0.10")))

	// Input untouched.
	assert.True(t, intervals[0].MaxEdge.Equal(dec("0.05")))
}
