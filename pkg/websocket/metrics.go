package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks whether the stream is currently connected.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polybasket_websocket_active_connections",
		Help: "Number of active WebSocket connections (0 or 1)",
	})

	// ConnectsTotal counts successful dial+subscribe sequences.
	ConnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polybasket_websocket_connects_total",
		Help: "Total successful WebSocket connections",
	})

	// ReconnectAttemptsTotal counts reconnection attempts.
	ReconnectAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polybasket_websocket_reconnect_attempts_total",
		Help: "Total WebSocket reconnection attempts",
	})

	// ReconnectFailuresTotal counts failed reconnection attempts.
	ReconnectFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polybasket_websocket_reconnect_failures_total",
		Help: "Total failed WebSocket reconnection attempts",
	})

	// FramesReceivedTotal counts data frames received.
	FramesReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polybasket_websocket_frames_received_total",
		Help: "Total data frames received from the market channel",
	})

	// FrameBytes observes frame sizes.
	FrameBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polybasket_websocket_frame_bytes",
		Help:    "Size of received frames in bytes",
		Buckets: prometheus.ExponentialBuckets(64, 4, 8),
	})

	// PingsSentTotal counts keepalive pings sent.
	PingsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polybasket_websocket_pings_sent_total",
		Help: "Total keepalive PING frames sent",
	})

	// KeepalivesDiscardedTotal counts PING/PONG frames discarded.
	KeepalivesDiscardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polybasket_websocket_keepalives_discarded_total",
		Help: "Total PING/PONG keepalive frames discarded",
	})
)
