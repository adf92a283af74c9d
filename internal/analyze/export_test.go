package analyze

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func mockExporter(t *testing.T) (*Exporter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Exporter{db: db, logger: zap.NewNop()}, mock
}

func TestExport(t *testing.T) {
	e, mock := mockExporter(t)
	dir := t.TempDir()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM asset_price_latest").
		WillReturnRows(sqlmock.NewRows([]string{
			"asset_id", "market_id", "outcome", "as_of", "best_bid", "best_ask", "mid", "source", "updated_at",
		}).AddRow("a-yes", "1", "YES", "2026-08-01T11:59:00Z", "0.18", "0.20", "0.19", "clob_ws", "2026-08-01T12:00:00Z"))

	mock.ExpectQuery("FROM paper_pnl").
		WithArgs(int64(45883)).
		WillReturnRows(sqlmock.NewRows([]string{
			"event_id", "realized_pnl", "unrealized_pnl", "updated_at",
		}).AddRow("45883", "0.20", "0", "2026-08-01T12:00:00Z"))

	mock.ExpectQuery("FROM arb_signals").
		WithArgs(int64(45883), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"signal_id", "event_id", "as_of", "kind", "edge", "detail", "created_at",
		}))

	mock.ExpectQuery("FROM asset_price_ticks").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"asset_id", "as_of", "market_id", "outcome", "best_bid", "best_ask", "mid", "source",
		}))

	written, err := e.Export(context.Background(), ExportOptions{
		OutDir:     dir,
		SinceHours: 3,
		EventID:    45883,
		Now:        now,
	})
	require.NoError(t, err)
	require.Len(t, written, 4)
	assert.NoError(t, mock.ExpectationsWereMet())

	// The latest export holds the header plus one data row.
	f, err := os.Open(filepath.Join(dir, "asset_price_latest_20260801-120000-UTC.csv"))
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "asset_id", records[0][0])
	assert.Equal(t, "a-yes", records[1][0])
	assert.Equal(t, "0.20", records[1][5])
}

func TestExport_FailingTableSkipped(t *testing.T) {
	e, mock := mockExporter(t)
	dir := t.TempDir()

	mock.ExpectQuery("FROM asset_price_latest").
		WillReturnError(sqlmock.ErrCancelled)

	mock.ExpectQuery("FROM paper_pnl").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"event_id", "realized_pnl", "unrealized_pnl", "updated_at",
		}))

	mock.ExpectQuery("FROM arb_signals").
		WithArgs(int64(1), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"signal_id", "event_id", "as_of", "kind", "edge", "detail", "created_at",
		}))

	mock.ExpectQuery("FROM asset_price_ticks").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"asset_id", "as_of", "market_id", "outcome", "best_bid", "best_ask", "mid", "source",
		}))

	written, err := e.Export(context.Background(), ExportOptions{
		OutDir:     dir,
		SinceHours: 1,
		EventID:    1,
	})
	require.NoError(t, err)
	assert.Len(t, written, 3, "failed table is skipped, not fatal")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExport_IncludeRaw(t *testing.T) {
	e, _ := mockExporter(t)

	queries := e.queries(ExportOptions{IncludeRaw: true, SinceHours: 3, EventID: 1, Now: time.Now()})
	assert.Contains(t, queries[0].query, ", raw")
	assert.Contains(t, queries[3].query, ", raw")

	queries = e.queries(ExportOptions{SinceHours: 3, EventID: 1, Now: time.Now()})
	assert.NotContains(t, queries[0].query, ", raw")
}
