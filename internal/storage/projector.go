package storage

import (
	"context"
	"time"

	"github.com/polybasket/polybasket/internal/trader"
	"github.com/polybasket/polybasket/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Projector turns in-memory watcher state into database rows. Price and PnL
// writes are throttled to one batch per interval; signal writes bypass the
// throttle so no open is lost. Write errors are logged and swallowed: the
// feed must keep running through database outages.
type Projector struct {
	writer     Writer
	eventID    int64
	interval   time.Duration
	writeTicks bool
	meta       map[string]types.AssetMeta
	logger     *zap.Logger

	lastFlush time.Time
}

// ProjectorConfig holds projector configuration.
type ProjectorConfig struct {
	Writer     Writer
	EventID    int64
	Interval   time.Duration
	WriteTicks bool
	Meta       map[string]types.AssetMeta
	Logger     *zap.Logger
}

// NewProjector creates a new projector. The first flush happens one full
// interval after start.
func NewProjector(cfg ProjectorConfig) *Projector {
	return &Projector{
		writer:     cfg.Writer,
		eventID:    cfg.EventID,
		interval:   cfg.Interval,
		writeTicks: cfg.WriteTicks,
		meta:       cfg.Meta,
		logger:     cfg.Logger,
		lastFlush:  time.Now(),
	}
}

// MaybeFlush writes the current tops and PnL summary if the flush interval
// has elapsed. Assets without configured metadata are skipped.
func (p *Projector) MaybeFlush(ctx context.Context, now time.Time, tops map[string]types.Top, realized decimal.Decimal, unrealized decimal.NullDecimal) {
	if now.Sub(p.lastFlush) < p.interval {
		return
	}
	p.lastFlush = now
	FlushesTotal.Inc()

	for assetID, top := range tops {
		meta, ok := p.meta[assetID]
		if !ok {
			continue
		}

		row := LatestRow{
			AssetID:  assetID,
			MarketID: meta.MarketID,
			Outcome:  meta.Outcome,
			AsOf:     top.AsOf,
			BestBid:  top.BestBid,
			BestAsk:  top.BestAsk,
			Mid:      top.Mid(),
			Source:   SourceClobWS,
			Raw:      top.Raw,
		}
		if err := p.writer.UpsertLatest(ctx, row); err != nil {
			p.logger.Warn("flush-latest-failed",
				zap.String("asset-id", assetID),
				zap.Error(err))
			continue
		}

		if p.writeTicks {
			if err := p.writer.InsertTick(ctx, TickRow(row)); err != nil {
				p.logger.Warn("flush-tick-failed",
					zap.String("asset-id", assetID),
					zap.Error(err))
			}
		}
	}

	// An unknown mark persists as zero; the summary row is not nullable.
	unreal := decimal.Zero
	if unrealized.Valid {
		unreal = unrealized.Decimal
	}
	if err := p.writer.UpsertPnL(ctx, PnLRow{
		EventID:    p.eventID,
		Realized:   realized,
		Unrealized: unreal,
	}); err != nil {
		p.logger.Warn("flush-pnl-failed", zap.Error(err))
	}
}

// WriteSignal records a basket open immediately.
func (p *Projector) WriteSignal(ctx context.Context, sig *trader.OpenSignal) {
	row := SignalRow{
		EventID: p.eventID,
		AsOf:    sig.AsOf,
		Kind:    sig.Kind,
		Edge:    sig.Edge,
		Detail: map[string]any{
			"signal_id":   sig.ID,
			"threshold":   sig.Threshold.String(),
			"sum_yes_ask": sig.SumYesAsk.String(),
			"markets":     sig.MarketIDs,
		},
	}

	if err := p.writer.InsertSignal(ctx, row); err != nil {
		p.logger.Warn("signal-write-failed", zap.Error(err))
	}
}
