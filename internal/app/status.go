package app

import (
	"sync"
	"time"

	"github.com/polybasket/polybasket/internal/basket"
	"github.com/polybasket/polybasket/pkg/types"
	"github.com/shopspring/decimal"
)

// MarketStatus is one market's view in the status snapshot. Absent quotes
// are null, not zero.
type MarketStatus struct {
	MarketID int64   `json:"market_id"`
	Question string  `json:"question"`
	YesBid   *string `json:"yes_bid"`
	YesAsk   *string `json:"yes_ask"`
	NoBid    *string `json:"no_bid"`
	NoAsk    *string `json:"no_ask"`
}

// Status is the watcher snapshot served on the status endpoint.
type Status struct {
	AsOf       string         `json:"as_of"`
	SumYesAsk  *string        `json:"sum_yes_ask"`
	Threshold  string         `json:"threshold"`
	Open       bool           `json:"open"`
	Holding    bool           `json:"holding"`
	Realized   string         `json:"realized_pnl"`
	Unrealized *string        `json:"unrealized_pnl"`
	Markets    []MarketStatus `json:"markets"`
}

// statusBoard hands the event loop's latest snapshot to HTTP handlers.
type statusBoard struct {
	mu      sync.RWMutex
	current Status
}

// Status implements httpserver.StatusProvider.
func (b *statusBoard) Status() any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

func (b *statusBoard) publish(s Status) {
	b.mu.Lock()
	b.current = s
	b.mu.Unlock()
}

func nullStr(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}

func buildStatus(asOf time.Time, markets []types.MarketTokens, view basket.View, threshold decimal.Decimal, holding bool, realized decimal.Decimal, unrealized decimal.NullDecimal) Status {
	s := Status{
		AsOf:       asOf.UTC().Format(time.RFC3339Nano),
		SumYesAsk:  nullStr(view.SumYesAsk),
		Threshold:  threshold.String(),
		Open:       view.Open,
		Holding:    holding,
		Realized:   realized.String(),
		Unrealized: nullStr(unrealized),
		Markets:    make([]MarketStatus, 0, len(markets)),
	}

	for _, m := range markets {
		mt := view.PerMarket[m.MarketID]
		s.Markets = append(s.Markets, MarketStatus{
			MarketID: m.MarketID,
			Question: m.Question,
			YesBid:   nullStr(mt.YesBid),
			YesAsk:   nullStr(mt.YesAsk),
			NoBid:    nullStr(mt.NoBid),
			NoAsk:    nullStr(mt.NoAsk),
		})
	}

	return s
}
