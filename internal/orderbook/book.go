package orderbook

import (
	"time"

	"github.com/polybasket/polybasket/pkg/types"
	"github.com/shopspring/decimal"
)

// Book maintains one asset's limit order book. Depth is kept per side as
// price -> level (keyed by the canonical decimal string so equal prices in
// different notations collapse); the top is recomputed from depth under
// snapshot/delta flow and overwritten directly under top-only flow.
type Book struct {
	bids map[string]types.Level
	asks map[string]types.Level
	top  types.Top
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{
		bids: make(map[string]types.Level),
		asks: make(map[string]types.Level),
	}
}

// ApplySnapshot clears both sides and loads the provided levels, then
// recomputes the top. Levels with size <= 0 are not stored; duplicate prices
// within one snapshot keep the last value.
func (b *Book) ApplySnapshot(bids, asks []types.Level, asOf time.Time, raw map[string]any) {
	clear(b.bids)
	clear(b.asks)

	for _, lvl := range bids {
		if lvl.Size.Sign() <= 0 {
			continue
		}
		b.bids[lvl.Price.String()] = lvl
	}
	for _, lvl := range asks {
		if lvl.Size.Sign() <= 0 {
			continue
		}
		b.asks[lvl.Price.String()] = lvl
	}

	b.recomputeTop(asOf, raw)
	SnapshotsAppliedTotal.Inc()
}

// ApplyChanges applies incremental level mutations and recomputes the top.
// A size <= 0 removes the level (a no-op if it was never there); unknown side
// tags are ignored.
func (b *Book) ApplyChanges(changes []types.Change, asOf time.Time, raw map[string]any) {
	for _, ch := range changes {
		var side map[string]types.Level
		switch ch.Side {
		case "buy", "bid":
			side = b.bids
		case "sell", "ask":
			side = b.asks
		default:
			continue
		}

		key := ch.Price.String()
		if ch.Size.Sign() <= 0 {
			delete(side, key)
		} else {
			side[key] = types.Level{Price: ch.Price, Size: ch.Size}
		}
	}

	b.recomputeTop(asOf, raw)
	ChangesAppliedTotal.Inc()
}

// ApplyTop overwrites the top directly. Depth maps are retained; they may be
// stale, but top-only updates are authoritative for the top view.
func (b *Book) ApplyTop(bestBid, bestAsk decimal.NullDecimal, asOf time.Time, raw map[string]any) {
	b.top = types.Top{BestBid: bestBid, BestAsk: bestAsk, AsOf: asOf, Raw: raw}
	TopsAppliedTotal.Inc()
}

// Top returns the current top of book.
func (b *Book) Top() types.Top {
	return b.top
}

func (b *Book) recomputeTop(asOf time.Time, raw map[string]any) {
	var bestBid, bestAsk decimal.NullDecimal

	for _, lvl := range b.bids {
		if !bestBid.Valid || lvl.Price.GreaterThan(bestBid.Decimal) {
			bestBid = types.NullDec(lvl.Price)
		}
	}
	for _, lvl := range b.asks {
		if !bestAsk.Valid || lvl.Price.LessThan(bestAsk.Decimal) {
			bestAsk = types.NullDec(lvl.Price)
		}
	}

	b.top = types.Top{BestBid: bestBid, BestAsk: bestAsk, AsOf: asOf, Raw: raw}
}
