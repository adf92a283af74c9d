package basket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SumYesAsk tracks the latest complete YES-ask sum across the basket.
	SumYesAsk = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polybasket_basket_sum_yes_ask",
		Help: "Sum of best YES asks across the configured markets (last complete evaluation)",
	})

	// ConditionOpen is 1 while the open condition holds.
	ConditionOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polybasket_basket_condition_open",
		Help: "Whether the basket open condition currently holds (sum below threshold)",
	})
)
