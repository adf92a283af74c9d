package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Level is a single order book level. Size is strictly positive wherever a
// level is stored; a size <= 0 on the wire means removal.
type Level struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// Change is one incremental book mutation. Side is normalized to lower case;
// "buy"/"bid" hit the bid side, "sell"/"ask" the ask side.
type Change struct {
	Side  string
	Price decimal.Decimal
	Size  decimal.Decimal
}

// Top is the derived top of book for one asset.
type Top struct {
	BestBid decimal.NullDecimal
	BestAsk decimal.NullDecimal
	AsOf    time.Time
	Raw     map[string]any
}

var two = decimal.NewFromInt(2)

// Mid returns (best_bid + best_ask) / 2, absent unless both sides are
// present.
func (t Top) Mid() decimal.NullDecimal {
	if !t.BestBid.Valid || !t.BestAsk.Valid {
		return decimal.NullDecimal{}
	}
	return NullDec(t.BestBid.Decimal.Add(t.BestAsk.Decimal).Div(two))
}

// NullDec wraps a decimal as a present NullDecimal.
func NullDec(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// EventKind tags a normalized feed event.
type EventKind string

const (
	KindSnapshot EventKind = "snapshot"
	KindTop      EventKind = "top"
	KindChanges  EventKind = "changes"
	KindUnknown  EventKind = "unknown"
)

// BookEvent is the tagged variant produced by the feed parser. Exactly the
// fields of the tagged kind are populated; Raw always carries the originating
// message for persistence.
type BookEvent struct {
	Kind    EventKind
	Bids    []Level
	Asks    []Level
	BestBid decimal.NullDecimal
	BestAsk decimal.NullDecimal
	Changes []Change
	Raw     map[string]any
}

// FeedItem is one normalized event keyed by asset id.
type FeedItem struct {
	AssetID string
	Event   BookEvent
}

// Frame is one decoded text frame from the stream client, stamped at receive
// time.
type Frame struct {
	AsOf time.Time
	Data []byte
}
