package trader

import (
	"time"

	"github.com/google/uuid"
	"github.com/polybasket/polybasket/internal/basket"
	"github.com/polybasket/polybasket/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SignalKindBuyYesAll is the signal kind recorded when the basket opens.
const SignalKindBuyYesAll = "BUY_YES_ALL"

// Position is the open paper basket: one YES per configured market.
type Position struct {
	QtyPerLeg      decimal.Decimal
	EntryYesPrices map[int64]decimal.Decimal
	EntryFees      map[int64]decimal.Decimal
	OpenedAt       time.Time
}

// OpenSignal describes one open transition, in the shape the signal row
// persists.
type OpenSignal struct {
	ID        string
	AsOf      time.Time
	Kind      string
	Edge      decimal.Decimal
	Threshold decimal.Decimal
	SumYesAsk decimal.Decimal
	MarketIDs []int64
}

// StepResult reports what one evaluation did to the position.
type StepResult struct {
	Opened *OpenSignal
	Closed bool
}

// Trader is the two-state paper trading machine. It holds the only mutable
// trading state of the system: the current position and accumulated realized
// PnL. Entries are hypothetically filled at the YES ask, exits and marks at
// the YES bid.
type Trader struct {
	markets   []types.MarketTokens
	qty       decimal.Decimal
	feeRate   decimal.Decimal
	threshold decimal.Decimal
	logger    *zap.Logger

	pos      *Position
	realized decimal.Decimal
}

// Config holds paper trader configuration.
type Config struct {
	Markets   []types.MarketTokens
	Qty       decimal.Decimal
	FeeRate   decimal.Decimal
	Threshold decimal.Decimal
	Logger    *zap.Logger
}

// New creates a new paper trader in the flat state.
func New(cfg Config) *Trader {
	return &Trader{
		markets:   cfg.Markets,
		qty:       cfg.Qty,
		feeRate:   cfg.FeeRate,
		threshold: cfg.Threshold,
		logger:    cfg.Logger,
		realized:  decimal.Zero,
	}
}

// Step drives the state machine with a fresh basket view. Open attempts with
// a missing YES ask and close attempts with a missing YES bid are skipped,
// not errors; the machine simply holds.
func (t *Trader) Step(view basket.View, asOf time.Time) StepResult {
	if t.pos == nil {
		if !view.Open {
			return StepResult{}
		}
		return t.open(view, asOf)
	}

	if view.Ready && !view.Open {
		return t.close(view)
	}

	return StepResult{}
}

func (t *Trader) open(view basket.View, asOf time.Time) StepResult {
	asks, ok := view.AllYesAsks(t.markets)
	if !ok {
		SkipsTotal.WithLabelValues("open_missing_ask").Inc()
		return StepResult{}
	}

	entryPrices := make(map[int64]decimal.Decimal, len(t.markets))
	entryFees := make(map[int64]decimal.Decimal, len(t.markets))
	marketIDs := make([]int64, 0, len(t.markets))
	for _, m := range t.markets {
		ask := asks[m.MarketID]
		entryPrices[m.MarketID] = ask
		entryFees[m.MarketID] = CalcFee(t.feeRate, ask.Mul(t.qty))
		marketIDs = append(marketIDs, m.MarketID)
	}

	t.pos = &Position{
		QtyPerLeg:      t.qty,
		EntryYesPrices: entryPrices,
		EntryFees:      entryFees,
		OpenedAt:       asOf,
	}

	sum := view.SumYesAsk.Decimal
	edge := t.threshold.Sub(sum).Div(t.threshold)

	OpensTotal.Inc()
	edgef, _ := edge.Float64()
	OpenEdge.Observe(edgef)

	id := uuid.New().String()
	t.logger.Info("basket-opened",
		zap.String("signal-id", id),
		zap.String("sum-yes-ask", sum.String()),
		zap.String("edge", edge.String()),
		zap.String("qty-per-leg", t.qty.String()))

	return StepResult{Opened: &OpenSignal{
		ID:        id,
		AsOf:      asOf,
		Kind:      SignalKindBuyYesAll,
		Edge:      edge,
		Threshold: t.threshold,
		SumYesAsk: sum,
		MarketIDs: marketIDs,
	}}
}

func (t *Trader) close(view basket.View) StepResult {
	bids, ok := view.AllYesBids(t.markets)
	if !ok {
		SkipsTotal.WithLabelValues("close_missing_bid").Inc()
		return StepResult{}
	}

	exitPnL := decimal.Zero
	exitFee := decimal.Zero
	entryFeeSum := decimal.Zero
	for _, m := range t.markets {
		bid := bids[m.MarketID]
		entry := t.pos.EntryYesPrices[m.MarketID]
		exitPnL = exitPnL.Add(bid.Sub(entry).Mul(t.pos.QtyPerLeg))
		exitFee = exitFee.Add(CalcFee(t.feeRate, bid.Mul(t.pos.QtyPerLeg)))
		entryFeeSum = entryFeeSum.Add(t.pos.EntryFees[m.MarketID])
	}

	delta := exitPnL.Sub(entryFeeSum).Sub(exitFee)
	t.realized = t.realized.Add(delta)
	t.pos = nil

	ClosesTotal.Inc()
	realizedf, _ := t.realized.Float64()
	RealizedPnLGauge.Set(realizedf)

	t.logger.Info("basket-closed",
		zap.String("trade-pnl", delta.String()),
		zap.String("realized-pnl", t.realized.String()))

	return StepResult{Closed: true}
}

// Unrealized marks the open basket to the current YES bids, net of entry fees
// and the estimated exit fee. Absent while flat or while any YES bid is
// missing; the operator must distinguish unknown from flat.
func (t *Trader) Unrealized(view basket.View) decimal.NullDecimal {
	if t.pos == nil {
		return decimal.NullDecimal{}
	}

	bids, ok := view.AllYesBids(t.markets)
	if !ok {
		return decimal.NullDecimal{}
	}

	mtm := decimal.Zero
	estExitFee := decimal.Zero
	entryFeeSum := decimal.Zero
	for _, m := range t.markets {
		bid := bids[m.MarketID]
		entry := t.pos.EntryYesPrices[m.MarketID]
		mtm = mtm.Add(bid.Sub(entry).Mul(t.pos.QtyPerLeg))
		estExitFee = estExitFee.Add(CalcFee(t.feeRate, bid.Mul(t.pos.QtyPerLeg)))
		entryFeeSum = entryFeeSum.Add(t.pos.EntryFees[m.MarketID])
	}

	return types.NullDec(mtm.Sub(entryFeeSum).Sub(estExitFee))
}

// Holding reports whether a basket is currently open.
func (t *Trader) Holding() bool {
	return t.pos != nil
}

// Position returns a copy of the open position, or nil while flat.
func (t *Trader) Position() *Position {
	if t.pos == nil {
		return nil
	}

	cp := Position{
		QtyPerLeg:      t.pos.QtyPerLeg,
		EntryYesPrices: make(map[int64]decimal.Decimal, len(t.pos.EntryYesPrices)),
		EntryFees:      make(map[int64]decimal.Decimal, len(t.pos.EntryFees)),
		OpenedAt:       t.pos.OpenedAt,
	}
	for k, v := range t.pos.EntryYesPrices {
		cp.EntryYesPrices[k] = v
	}
	for k, v := range t.pos.EntryFees {
		cp.EntryFees[k] = v
	}
	return &cp
}

// RealizedPnL returns accumulated realized PnL.
func (t *Trader) RealizedPnL() decimal.Decimal {
	return t.realized
}
