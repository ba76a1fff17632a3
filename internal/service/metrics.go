package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	directSwapsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cambio_direct_swaps_total",
		Help: "Count of settled direct swaps.",
	})

	offersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cambio_offers_total",
		Help: "Count of offer lifecycle events by kind.",
	}, []string{"event"})

	alertsTriggeredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cambio_alerts_triggered_total",
		Help: "Count of rate alerts that fired.",
	})
)
