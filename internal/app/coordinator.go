package app

import (
	"context"
	"time"

	"github.com/polybasket/polybasket/internal/basket"
	"github.com/polybasket/polybasket/internal/feed"
	"github.com/polybasket/polybasket/internal/orderbook"
	"github.com/polybasket/polybasket/internal/storage"
	"github.com/polybasket/polybasket/internal/trader"
	"github.com/polybasket/polybasket/pkg/healthprobe"
	"github.com/polybasket/polybasket/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Coordinator is the single-threaded heart of the watcher. It owns the books
// and the trader; every frame flows through here in arrival order, so no
// other component needs locking around book or position state.
type Coordinator struct {
	parser    *feed.Parser
	books     *orderbook.Set
	evaluator *basket.Evaluator
	trader    *trader.Trader
	projector *storage.Projector
	board     *statusBoard
	health    *healthprobe.HealthChecker
	logger    *zap.Logger

	printInterval time.Duration
	lastPrint     time.Time
}

// CoordinatorConfig holds coordinator wiring.
type CoordinatorConfig struct {
	Parser        *feed.Parser
	Evaluator     *basket.Evaluator
	Trader        *trader.Trader
	Projector     *storage.Projector
	Board         *statusBoard
	Health        *healthprobe.HealthChecker
	PrintInterval time.Duration
	Logger        *zap.Logger
}

// NewCoordinator creates a new coordinator with empty books.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	return &Coordinator{
		parser:        cfg.Parser,
		books:         orderbook.NewSet(),
		evaluator:     cfg.Evaluator,
		trader:        cfg.Trader,
		projector:     cfg.Projector,
		board:         cfg.Board,
		health:        cfg.Health,
		printInterval: cfg.PrintInterval,
		lastPrint:     time.Now(),
		logger:        cfg.Logger,
	}
}

// Loop consumes frames until the context is canceled or the channel closes.
func (c *Coordinator) Loop(ctx context.Context, frames <-chan types.Frame) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			c.HandleFrame(ctx, frame)
		}
	}
}

// HandleFrame applies one frame's events to the books, re-evaluates the
// basket, steps the paper trader, and projects state out.
func (c *Coordinator) HandleFrame(ctx context.Context, frame types.Frame) {
	items := c.parser.ParseFrame(frame.Data)
	if len(items) == 0 {
		return
	}

	for _, item := range items {
		c.applyEvent(item, frame.AsOf)
	}

	view := c.evaluator.Evaluate(c.books)
	if view.Ready && c.health != nil {
		c.health.SetReady(true)
	}

	result := c.trader.Step(view, frame.AsOf)
	if result.Opened != nil && c.projector != nil {
		c.projector.WriteSignal(ctx, result.Opened)
	}

	unrealized := c.trader.Unrealized(view)

	now := time.Now().UTC()
	if c.projector != nil {
		c.projector.MaybeFlush(ctx, now, c.books.Tops(), c.trader.RealizedPnL(), unrealized)
	}

	c.maybePrint(now, view, unrealized)

	if c.board != nil {
		c.board.publish(buildStatus(
			frame.AsOf,
			c.evaluator.Markets(),
			view,
			c.evaluator.Threshold(),
			c.trader.Holding(),
			c.trader.RealizedPnL(),
			unrealized,
		))
	}
}

func (c *Coordinator) applyEvent(item types.FeedItem, asOf time.Time) {
	book := c.books.Get(item.AssetID)
	ev := item.Event

	switch ev.Kind {
	case types.KindSnapshot:
		book.ApplySnapshot(ev.Bids, ev.Asks, asOf, ev.Raw)
	case types.KindTop:
		book.ApplyTop(ev.BestBid, ev.BestAsk, asOf, ev.Raw)
	case types.KindChanges:
		book.ApplyChanges(ev.Changes, asOf, ev.Raw)
	case types.KindUnknown:
		if bids, asks, ok := c.parser.SnapshotFromRaw(ev.Raw); ok {
			book.ApplySnapshot(bids, asks, asOf, ev.Raw)
		}
	}
}

// maybePrint emits the throttled operator summary.
func (c *Coordinator) maybePrint(now time.Time, view basket.View, unrealized decimal.NullDecimal) {
	if now.Sub(c.lastPrint) < c.printInterval {
		return
	}
	c.lastPrint = now

	fields := []zap.Field{
		zap.Bool("ready", view.Ready),
		zap.Bool("open", view.Open),
		zap.Bool("holding", c.trader.Holding()),
		zap.String("realized-pnl", c.trader.RealizedPnL().String()),
	}
	if view.SumYesAsk.Valid {
		fields = append(fields, zap.String("sum-yes-ask", view.SumYesAsk.Decimal.String()))
	}
	if unrealized.Valid {
		fields = append(fields, zap.String("unrealized-pnl", unrealized.Decimal.String()))
	}

	c.logger.Info("basket-state", fields...)

	for _, m := range c.evaluator.Markets() {
		mt := view.PerMarket[m.MarketID]
		c.logger.Debug("market-top",
			zap.Int64("market-id", m.MarketID),
			zap.Any("yes-bid", nullStr(mt.YesBid)),
			zap.Any("yes-ask", nullStr(mt.YesAsk)),
			zap.Any("no-bid", nullStr(mt.NoBid)),
			zap.Any("no-ask", nullStr(mt.NoAsk)),
			zap.String("question", m.Question))
	}
}
