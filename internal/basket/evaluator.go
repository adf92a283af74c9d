package basket

import (
	"github.com/polybasket/polybasket/internal/orderbook"
	"github.com/polybasket/polybasket/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MarketTop is the derived per-market view of the four relevant tops.
type MarketTop struct {
	YesBid decimal.NullDecimal
	YesAsk decimal.NullDecimal
	NoBid  decimal.NullDecimal
	NoAsk  decimal.NullDecimal
}

// View is the basket condition derived from current book state. SumYesAsk is
// present only when every configured market has a YES ask; Open uses a strict
// comparison against the threshold.
type View struct {
	PerMarket map[int64]MarketTop
	SumYesAsk decimal.NullDecimal
	Ready     bool
	Open      bool
}

// Evaluator recomputes the basket condition on every normalized event. It is
// a pure function of current book state and the configured market set; it
// tolerates one-sided staleness across assets.
type Evaluator struct {
	markets   []types.MarketTokens
	threshold decimal.Decimal
	logger    *zap.Logger
}

// Config holds evaluator configuration.
type Config struct {
	Markets   []types.MarketTokens
	Threshold decimal.Decimal
	Logger    *zap.Logger
}

// New creates a new basket evaluator.
func New(cfg Config) *Evaluator {
	return &Evaluator{
		markets:   cfg.Markets,
		threshold: cfg.Threshold,
		logger:    cfg.Logger,
	}
}

// Markets returns the configured market descriptors in basket order.
func (e *Evaluator) Markets() []types.MarketTokens {
	return e.markets
}

// Threshold returns the configured open threshold.
func (e *Evaluator) Threshold() decimal.Decimal {
	return e.threshold
}

// Evaluate derives the per-market view and the open condition from the
// current tops.
func (e *Evaluator) Evaluate(books *orderbook.Set) View {
	view := View{PerMarket: make(map[int64]MarketTop, len(e.markets))}

	sum := decimal.Zero
	complete := true

	for _, m := range e.markets {
		var mt MarketTop

		if yes, ok := books.Lookup(m.YesAssetID); ok {
			top := yes.Top()
			mt.YesBid = top.BestBid
			mt.YesAsk = top.BestAsk
		}
		if no, ok := books.Lookup(m.NoAssetID); ok {
			top := no.Top()
			mt.NoBid = top.BestBid
			mt.NoAsk = top.BestAsk
		}

		view.PerMarket[m.MarketID] = mt

		if mt.YesAsk.Valid {
			sum = sum.Add(mt.YesAsk.Decimal)
		} else {
			complete = false
		}
	}

	if complete {
		view.SumYesAsk = types.NullDec(sum)
		view.Ready = true
		view.Open = sum.LessThan(e.threshold)
		sumf, _ := sum.Float64()
		SumYesAsk.Set(sumf)
	}

	if view.Open {
		ConditionOpen.Set(1)
	} else {
		ConditionOpen.Set(0)
	}

	return view
}

// AllYesBids returns market_id -> yes_bid if every configured market has one,
// else false. The paper trader needs the full set to close or mark a basket.
func (v View) AllYesBids(markets []types.MarketTokens) (map[int64]decimal.Decimal, bool) {
	bids := make(map[int64]decimal.Decimal, len(markets))
	for _, m := range markets {
		mt, ok := v.PerMarket[m.MarketID]
		if !ok || !mt.YesBid.Valid {
			return nil, false
		}
		bids[m.MarketID] = mt.YesBid.Decimal
	}
	return bids, true
}

// AllYesAsks returns market_id -> yes_ask if every configured market has one,
// else false.
func (v View) AllYesAsks(markets []types.MarketTokens) (map[int64]decimal.Decimal, bool) {
	asks := make(map[int64]decimal.Decimal, len(markets))
	for _, m := range markets {
		mt, ok := v.PerMarket[m.MarketID]
		if !ok || !mt.YesAsk.Valid {
			return nil, false
		}
		asks[m.MarketID] = mt.YesAsk.Decimal
	}
	return asks, true
}
