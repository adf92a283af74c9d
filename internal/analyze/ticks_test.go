package analyze

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

const tickHeader = "asset_id,as_of,market_id,outcome,best_bid,best_ask,mid,source\n"

func TestScanTicks(t *testing.T) {
	csvData := tickHeader +
		"a,2026-08-01T12:00:00Z,1,YES,0.17,0.20,0.185,clob_ws\n" +
		"b,2026-08-01T12:00:00Z,2,YES,0.27,0.30,0.285,clob_ws\n" +
		"a,2026-08-01T12:01:00Z,1,YES,0.40,0.45,0.425,clob_ws\n" +
		"b,2026-08-01T12:01:00Z,2,YES,0.50,0.60,0.55,clob_ws\n"

	report, err := ScanTicks(strings.NewReader(csvData), dec("1"))
	require.NoError(t, err)

	assert.Equal(t, 2, report.YesAssets)
	require.Len(t, report.Opportunities, 1)

	opp := report.Opportunities[0]
	assert.Equal(t, "2026-08-01T12:00:00Z", opp.AsOf)
	assert.True(t, opp.Sum.Equal(dec("0.50")))
	assert.True(t, opp.Prices["a"].Equal(dec("0.20")))
}

func TestScanTicks_IgnoresNonYesAndBadRows(t *testing.T) {
	csvData := tickHeader +
		"a,t1,1,YES,0.17,0.20,0.185,clob_ws\n" +
		"a-no,t1,1,NO,0.78,0.80,0.79,clob_ws\n" +
		"b,t1,2,YES,0.27,not-a-number,,clob_ws\n" +
		"c,t1,3,YES,0.10,,0.10,clob_ws\n"

	report, err := ScanTicks(strings.NewReader(csvData), dec("1"))
	require.NoError(t, err)

	// Only asset a survives filtering, so t1 is complete with just it.
	assert.Equal(t, 1, report.YesAssets)
	require.Len(t, report.Opportunities, 1)
	assert.True(t, report.Opportunities[0].Sum.Equal(dec("0.20")))
}

func TestScanTicks_IncompleteTimestampSkipped(t *testing.T) {
	csvData := tickHeader +
		"a,t1,1,YES,0.17,0.20,0.185,clob_ws\n" +
		"b,t1,2,YES,0.27,0.30,0.285,clob_ws\n" +
		"a,t2,1,YES,0.10,0.15,0.125,clob_ws\n"

	report, err := ScanTicks(strings.NewReader(csvData), dec("1"))
	require.NoError(t, err)

	// t2 lacks asset b, so it never counts even though 0.15 < 1.
	require.Len(t, report.Opportunities, 1)
	assert.Equal(t, "t1", report.Opportunities[0].AsOf)
}

func TestScanTicks_MissingColumn(t *testing.T) {
	_, err := ScanTicks(strings.NewReader("asset_id,as_of\n"), dec("1"))
	assert.Error(t, err)
}
