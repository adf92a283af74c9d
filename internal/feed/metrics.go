package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ItemsEmittedTotal counts normalized events by kind.
	ItemsEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polybasket_feed_items_emitted_total",
			Help: "Total number of normalized feed events emitted",
		},
		[]string{"kind"},
	)

	// FramesDroppedTotal counts dropped frames and elements by reason.
	FramesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polybasket_feed_frames_dropped_total",
			Help: "Total number of frames or frame elements dropped during parsing",
		},
		[]string{"reason"},
	)
)
