package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresWriter implements Writer using PostgreSQL. A failed write closes
// the handle so the next write reconnects; transient DB restarts cost at
// most one flush interval of data.
type PostgresWriter struct {
	databaseURL string
	db          *sql.DB
	logger      *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	DatabaseURL string
	Logger      *zap.Logger
}

// NewPostgresWriter creates a new PostgreSQL writer and verifies the
// connection.
func NewPostgresWriter(cfg *PostgresConfig) (*PostgresWriter, error) {
	w := &PostgresWriter{
		databaseURL: cfg.DatabaseURL,
		logger:      cfg.Logger,
	}

	db, err := w.ensure()
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-writer-connected")
	return w, nil
}

func (w *PostgresWriter) ensure() (*sql.DB, error) {
	if w.db != nil {
		return w.db, nil
	}

	db, err := sql.Open("postgres", w.databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	w.db = db
	return db, nil
}

// dropConn closes the handle after a failed write so the next call
// reconnects.
func (w *PostgresWriter) dropConn() {
	if w.db == nil {
		return
	}
	_ = w.db.Close()
	w.db = nil
	ReconnectsTotal.Inc()
}

func (w *PostgresWriter) exec(ctx context.Context, table, query string, args ...any) error {
	db, err := w.ensure()
	if err != nil {
		WriteErrorsTotal.WithLabelValues(table).Inc()
		return err
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		WriteErrorsTotal.WithLabelValues(table).Inc()
		w.dropConn()
		return fmt.Errorf("write %s: %w", table, err)
	}

	WritesTotal.WithLabelValues(table).Inc()
	return nil
}

func jsonbArg(v map[string]any) ([]byte, error) {
	if v == nil {
		v = map[string]any{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal jsonb: %w", err)
	}
	return b, nil
}

// UpsertLatest writes an asset's current top of book.
func (w *PostgresWriter) UpsertLatest(ctx context.Context, row LatestRow) error {
	raw, err := jsonbArg(row.Raw)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO asset_price_latest (
			asset_id, market_id, outcome, as_of, best_bid, best_ask, mid, source, raw
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		ON CONFLICT (asset_id) DO UPDATE SET
			market_id = EXCLUDED.market_id,
			outcome = EXCLUDED.outcome,
			as_of = EXCLUDED.as_of,
			best_bid = EXCLUDED.best_bid,
			best_ask = EXCLUDED.best_ask,
			mid = EXCLUDED.mid,
			source = EXCLUDED.source,
			raw = EXCLUDED.raw,
			updated_at = now()
	`

	return w.exec(ctx, "asset_price_latest", query,
		row.AssetID,
		row.MarketID,
		row.Outcome,
		row.AsOf,
		row.BestBid,
		row.BestAsk,
		row.Mid,
		row.Source,
		raw,
	)
}

// InsertTick appends a historical top-of-book observation. Duplicate
// (asset_id, as_of) pairs are dropped.
func (w *PostgresWriter) InsertTick(ctx context.Context, row TickRow) error {
	raw, err := jsonbArg(row.Raw)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO asset_price_ticks (
			asset_id, as_of, market_id, outcome, best_bid, best_ask, mid, source, raw
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		ON CONFLICT (asset_id, as_of) DO NOTHING
	`

	return w.exec(ctx, "asset_price_ticks", query,
		row.AssetID,
		row.AsOf,
		row.MarketID,
		row.Outcome,
		row.BestBid,
		row.BestAsk,
		row.Mid,
		row.Source,
		raw,
	)
}

// InsertSignal records a basket open.
func (w *PostgresWriter) InsertSignal(ctx context.Context, row SignalRow) error {
	detail, err := jsonbArg(row.Detail)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO arb_signals (event_id, as_of, kind, edge, detail)
		VALUES ($1, $2, $3, $4, $5)
	`

	return w.exec(ctx, "arb_signals", query,
		row.EventID,
		row.AsOf,
		row.Kind,
		row.Edge,
		detail,
	)
}

// UpsertPnL writes the per-event PnL summary.
func (w *PostgresWriter) UpsertPnL(ctx context.Context, row PnLRow) error {
	query := `
		INSERT INTO paper_pnl (event_id, realized_pnl, unrealized_pnl)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id) DO UPDATE SET
			realized_pnl = EXCLUDED.realized_pnl,
			unrealized_pnl = EXCLUDED.unrealized_pnl,
			updated_at = now()
	`

	return w.exec(ctx, "paper_pnl", query,
		row.EventID,
		row.Realized,
		row.Unrealized,
	)
}

// Close closes the database connection.
func (w *PostgresWriter) Close() error {
	if w.db == nil {
		return nil
	}
	w.logger.Info("closing-postgres-writer")
	err := w.db.Close()
	w.db = nil
	return err
}
