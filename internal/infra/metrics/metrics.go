package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TimerWrites counts create/update/delete outcomes on the management API.
	TimerWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "countdown_timer_writes_total",
			Help: "Total number of timer write operations",
		},
		[]string{"op", "result"},
	)

	// ActiveLookups counts storefront active-timer lookups by the layer that
	// answered them (filtered, cache, store, error).
	ActiveLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "countdown_active_lookups_total",
			Help: "Total number of storefront active-timer lookups by source",
		},
		[]string{"source"},
	)

	// SweptTimers counts timers deactivated by the expiry sweeper.
	SweptTimers = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "countdown_swept_timers_total",
			Help: "Total number of ended timers deactivated by the sweeper",
		},
	)
)
