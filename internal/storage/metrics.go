package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WritesTotal counts successful writes by table.
	WritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polybasket_storage_writes_total",
		Help: "Total successful database writes",
	}, []string{"table"})

	// WriteErrorsTotal counts failed writes by table.
	WriteErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polybasket_storage_write_errors_total",
		Help: "Total failed database writes",
	}, []string{"table"})

	// ReconnectsTotal counts connection drops after failed writes.
	ReconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polybasket_storage_reconnects_total",
		Help: "Total database handle resets after write failures",
	})

	// FlushesTotal counts throttled price flushes.
	FlushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polybasket_storage_flushes_total",
		Help: "Total throttled price flushes to the database",
	})
)
