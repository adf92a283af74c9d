package basket

import (
	"testing"
	"time"

	"github.com/polybasket/polybasket/internal/orderbook"
	"github.com/polybasket/polybasket/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testMarkets() []types.MarketTokens {
	return []types.MarketTokens{
		{MarketID: 1, Question: "A?", YesAssetID: "a-yes", NoAssetID: "a-no"},
		{MarketID: 2, Question: "B?", YesAssetID: "b-yes", NoAssetID: "b-no"},
		{MarketID: 3, Question: "C?", YesAssetID: "c-yes", NoAssetID: "c-no"},
		{MarketID: 4, Question: "D?", YesAssetID: "d-yes", NoAssetID: "d-no"},
	}
}

func setTop(books *orderbook.Set, assetID, bid, ask string) {
	var b, a decimal.NullDecimal
	if bid != "" {
		b = types.NullDec(dec(bid))
	}
	if ask != "" {
		a = types.NullDec(dec(ask))
	}
	books.Get(assetID).ApplyTop(b, a, time.Now(), nil)
}

func newEvaluator(threshold string) *Evaluator {
	return New(Config{
		Markets:   testMarkets(),
		Threshold: dec(threshold),
		Logger:    zap.NewNop(),
	})
}

func TestEvaluate_Open(t *testing.T) {
	e := newEvaluator("1")
	books := orderbook.NewSet()

	setTop(books, "a-yes", "0.18", "0.20")
	setTop(books, "b-yes", "0.28", "0.30")
	setTop(books, "c-yes", "0.18", "0.20")
	setTop(books, "d-yes", "0.18", "0.20")

	view := e.Evaluate(books)

	assert.True(t, view.Ready)
	assert.True(t, view.Open)
	require.True(t, view.SumYesAsk.Valid)
	assert.True(t, view.SumYesAsk.Decimal.Equal(dec("0.90")))
}

func TestEvaluate_ExactThresholdDoesNotOpen(t *testing.T) {
	e := newEvaluator("1")
	books := orderbook.NewSet()

	for _, aid := range []string{"a-yes", "b-yes", "c-yes", "d-yes"} {
		setTop(books, aid, "0.24", "0.25")
	}

	view := e.Evaluate(books)

	assert.True(t, view.Ready)
	assert.False(t, view.Open, "sum == threshold must not open (strict <)")
	assert.True(t, view.SumYesAsk.Decimal.Equal(dec("1.00")))
}

func TestEvaluate_MissingLegBlocksReadiness(t *testing.T) {
	e := newEvaluator("1")
	books := orderbook.NewSet()

	setTop(books, "a-yes", "0.18", "0.20")
	setTop(books, "b-yes", "0.18", "0.20")
	setTop(books, "c-yes", "0.18", "0.20")
	// d-yes never emitted.

	view := e.Evaluate(books)

	assert.False(t, view.Ready)
	assert.False(t, view.Open)
	assert.False(t, view.SumYesAsk.Valid)
}

func TestEvaluate_OneSidedTopStillCounts(t *testing.T) {
	e := newEvaluator("1")
	books := orderbook.NewSet()

	setTop(books, "a-yes", "", "0.20")
	setTop(books, "b-yes", "", "0.20")
	setTop(books, "c-yes", "", "0.20")
	setTop(books, "d-yes", "", "0.20")

	view := e.Evaluate(books)

	assert.True(t, view.Ready, "YES asks alone decide readiness")
	assert.True(t, view.Open)

	_, ok := view.AllYesBids(e.Markets())
	assert.False(t, ok, "no bids anywhere")
}

func TestEvaluate_PerMarketView(t *testing.T) {
	e := newEvaluator("1")
	books := orderbook.NewSet()

	setTop(books, "a-yes", "0.18", "0.20")
	setTop(books, "a-no", "0.78", "0.80")

	view := e.Evaluate(books)

	mt := view.PerMarket[1]
	assert.Equal(t, "0.18", mt.YesBid.Decimal.String())
	assert.Equal(t, "0.2", mt.YesAsk.Decimal.String())
	assert.Equal(t, "0.78", mt.NoBid.Decimal.String())
	assert.Equal(t, "0.8", mt.NoAsk.Decimal.String())
}

func TestAllYesAsksAndBids(t *testing.T) {
	e := newEvaluator("1")
	books := orderbook.NewSet()

	for _, aid := range []string{"a-yes", "b-yes", "c-yes", "d-yes"} {
		setTop(books, aid, "0.22", "0.24")
	}

	view := e.Evaluate(books)

	asks, ok := view.AllYesAsks(e.Markets())
	require.True(t, ok)
	assert.Len(t, asks, 4)
	assert.True(t, asks[2].Equal(dec("0.24")))

	bids, ok := view.AllYesBids(e.Markets())
	require.True(t, ok)
	assert.True(t, bids[3].Equal(dec("0.22")))
}
