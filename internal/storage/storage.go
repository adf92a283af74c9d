package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SourceClobWS tags rows produced from the CLOB websocket feed.
const SourceClobWS = "clob_ws"

// LatestRow is one asset's current top of book, upserted on asset_id.
type LatestRow struct {
	AssetID  string
	MarketID int64
	Outcome  string
	AsOf     time.Time
	BestBid  decimal.NullDecimal
	BestAsk  decimal.NullDecimal
	Mid      decimal.NullDecimal
	Source   string
	Raw      map[string]any
}

// TickRow is one historical top-of-book observation, deduplicated on
// (asset_id, as_of).
type TickRow struct {
	AssetID  string
	MarketID int64
	Outcome  string
	AsOf     time.Time
	BestBid  decimal.NullDecimal
	BestAsk  decimal.NullDecimal
	Mid      decimal.NullDecimal
	Source   string
	Raw      map[string]any
}

// SignalRow records one basket open.
type SignalRow struct {
	EventID int64
	AsOf    time.Time
	Kind    string
	Edge    decimal.Decimal
	Detail  map[string]any
}

// PnLRow is the per-event paper PnL summary, upserted on event_id.
type PnLRow struct {
	EventID    int64
	Realized   decimal.Decimal
	Unrealized decimal.Decimal
}

// Writer persists watcher output. Implementations must be safe to call from
// a single goroutine; the coordinator serializes all writes.
type Writer interface {
	// UpsertLatest writes an asset's current top of book.
	UpsertLatest(ctx context.Context, row LatestRow) error

	// InsertTick appends a historical top-of-book observation.
	InsertTick(ctx context.Context, row TickRow) error

	// InsertSignal records a basket open.
	InsertSignal(ctx context.Context, row SignalRow) error

	// UpsertPnL writes the per-event PnL summary.
	UpsertPnL(ctx context.Context, row PnLRow) error

	// Close releases the underlying connection.
	Close() error
}
