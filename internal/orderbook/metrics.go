package orderbook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SnapshotsAppliedTotal counts full book snapshots applied.
	SnapshotsAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polybasket_orderbook_snapshots_applied_total",
		Help: "Total number of full snapshots applied to books",
	})

	// ChangesAppliedTotal counts delta batches applied.
	ChangesAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polybasket_orderbook_changes_applied_total",
		Help: "Total number of change batches applied to books",
	})

	// TopsAppliedTotal counts top-only updates applied.
	TopsAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polybasket_orderbook_tops_applied_total",
		Help: "Total number of top-of-book updates applied to books",
	})

	// BooksTracked tracks the number of per-asset books in memory.
	BooksTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polybasket_orderbook_books_tracked",
		Help: "Number of per-asset books tracked in memory",
	})
)
