package analyze

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// ExportOptions controls a database-to-CSV export run.
type ExportOptions struct {
	OutDir     string
	SinceHours float64
	IncludeRaw bool
	EventID    int64
	Now        time.Time
}

// Exporter dumps the persisted tables to CSV files. Tick-like tables
// (asset_price_ticks, arb_signals) are limited to a recent window; the small
// summary tables are exported in full.
type Exporter struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExporter opens a database connection for exporting.
func NewExporter(databaseURL string, logger *zap.Logger) (*Exporter, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Exporter{db: db, logger: logger}, nil
}

// Close releases the database connection.
func (e *Exporter) Close() error {
	return e.db.Close()
}

type exportQuery struct {
	file  string
	query string
	args  []any
}

func (e *Exporter) queries(opts ExportOptions) []exportQuery {
	ts := opts.Now.UTC().Format("20060102-150405-UTC")
	since := opts.Now.UTC().Add(-time.Duration(opts.SinceHours * float64(time.Hour)))

	rawCols := ""
	if opts.IncludeRaw {
		rawCols = ", raw"
	}

	return []exportQuery{
		{
			file: fmt.Sprintf("asset_price_latest_%s.csv", ts),
			query: fmt.Sprintf(`
				SELECT asset_id, market_id, outcome, as_of, best_bid, best_ask, mid, source%s, updated_at
				FROM asset_price_latest
				ORDER BY market_id, outcome
			`, rawCols),
		},
		{
			file: fmt.Sprintf("paper_pnl_%s.csv", ts),
			query: `
				SELECT event_id, realized_pnl, unrealized_pnl, updated_at
				FROM paper_pnl
				WHERE event_id = $1
				ORDER BY event_id
			`,
			args: []any{opts.EventID},
		},
		{
			file: fmt.Sprintf("arb_signals_last_%gh_%s.csv", opts.SinceHours, ts),
			query: `
				SELECT signal_id, event_id, as_of, kind, edge, detail, created_at
				FROM arb_signals
				WHERE event_id = $1 AND as_of >= $2
				ORDER BY as_of ASC
			`,
			args: []any{opts.EventID, since},
		},
		{
			file: fmt.Sprintf("asset_price_ticks_last_%gh_%s.csv", opts.SinceHours, ts),
			query: fmt.Sprintf(`
				SELECT asset_id, as_of, market_id, outcome, best_bid, best_ask, mid, source%s
				FROM asset_price_ticks
				WHERE as_of >= $1
				ORDER BY as_of ASC
			`, rawCols),
			args: []any{since},
		},
	}
}

// Export writes one CSV per table and returns the written paths. A failing
// table is logged and skipped so the remaining exports still run.
func (e *Exporter) Export(ctx context.Context, opts ExportOptions) ([]string, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var written []string
	for _, q := range e.queries(opts) {
		path := filepath.Join(opts.OutDir, q.file)
		if err := e.exportQuery(ctx, q, path); err != nil {
			e.logger.Warn("export-failed",
				zap.String("file", q.file),
				zap.Error(err))
			continue
		}
		e.logger.Info("export-written", zap.String("path", path))
		written = append(written, path)
	}
	return written, nil
}

func (e *Exporter) exportQuery(ctx context.Context, q exportQuery, path string) error {
	rows, err := e.db.QueryContext(ctx, q.query, q.args...)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("columns: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	values := make([]sql.NullString, len(cols))
	scanArgs := make([]any, len(cols))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	record := make([]string, len(cols))
	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		for i, v := range values {
			if v.Valid {
				record[i] = v.String
			} else {
				record[i] = ""
			}
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate rows: %w", err)
	}

	w.Flush()
	return w.Error()
}
