package trader

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OpensTotal counts basket opens.
	OpensTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polybasket_trader_opens_total",
		Help: "Total paper baskets opened",
	})

	// ClosesTotal counts basket closes.
	ClosesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polybasket_trader_closes_total",
		Help: "Total paper baskets closed",
	})

	// SkipsTotal counts transitions skipped for missing quotes.
	SkipsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polybasket_trader_skips_total",
		Help: "Transitions skipped because a required quote was missing",
	}, []string{"reason"})

	// OpenEdge observes the edge at each open.
	OpenEdge = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polybasket_trader_open_edge",
		Help:    "Edge fraction at basket open",
		Buckets: prometheus.LinearBuckets(0, 0.02, 10),
	})

	// RealizedPnLGauge tracks cumulative realized PnL.
	RealizedPnLGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polybasket_trader_realized_pnl",
		Help: "Cumulative realized paper PnL",
	})
)
