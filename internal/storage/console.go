package storage

import (
	"context"

	"go.uber.org/zap"
)

// ConsoleWriter implements Writer by logging rows instead of persisting
// them. Used when database writes are disabled.
type ConsoleWriter struct {
	logger *zap.Logger
}

// NewConsoleWriter creates a new console writer.
func NewConsoleWriter(logger *zap.Logger) *ConsoleWriter {
	return &ConsoleWriter{logger: logger}
}

// UpsertLatest logs an asset's current top of book.
func (c *ConsoleWriter) UpsertLatest(_ context.Context, row LatestRow) error {
	c.logger.Debug("latest",
		zap.String("asset-id", row.AssetID),
		zap.Int64("market-id", row.MarketID),
		zap.String("outcome", row.Outcome),
		zap.Any("best-bid", row.BestBid),
		zap.Any("best-ask", row.BestAsk))
	return nil
}

// InsertTick logs a historical top-of-book observation.
func (c *ConsoleWriter) InsertTick(_ context.Context, row TickRow) error {
	c.logger.Debug("tick",
		zap.String("asset-id", row.AssetID),
		zap.Time("as-of", row.AsOf))
	return nil
}

// InsertSignal logs a basket open.
func (c *ConsoleWriter) InsertSignal(_ context.Context, row SignalRow) error {
	c.logger.Info("signal",
		zap.Int64("event-id", row.EventID),
		zap.String("kind", row.Kind),
		zap.String("edge", row.Edge.String()))
	return nil
}

// UpsertPnL logs the per-event PnL summary.
func (c *ConsoleWriter) UpsertPnL(_ context.Context, row PnLRow) error {
	c.logger.Debug("pnl",
		zap.Int64("event-id", row.EventID),
		zap.String("realized", row.Realized.String()),
		zap.String("unrealized", row.Unrealized.String()))
	return nil
}

// Close is a no-op.
func (c *ConsoleWriter) Close() error {
	return nil
}
