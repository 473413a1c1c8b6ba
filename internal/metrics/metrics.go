package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BarsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voltrader_bars_processed_total",
			Help: "Total number of synthesized bars fed to the engine (by instance).",
		},
		[]string{"instance"},
	)

	SignalsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voltrader_signals_emitted_total",
			Help: "Total number of open/close signals emitted (by instance and kind).",
		},
		[]string{"instance", "kind"},
	)

	OrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voltrader_orders_submitted_total",
			Help: "Total number of orders sent to the execution gateway (by instance).",
		},
		[]string{"instance"},
	)

	SnapshotSaves = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "voltrader_snapshot_saves_total",
			Help: "Total number of successful runtime state snapshots.",
		},
	)

	SnapshotFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "voltrader_snapshot_failures_total",
			Help: "Total number of failed runtime state snapshots.",
		},
	)

	ActivePositions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "voltrader_active_positions",
			Help: "Current number of managed open positions (by instance).",
		},
		[]string{"instance"},
	)
)

func init() {
	prometheus.MustRegister(
		BarsProcessed,
		SignalsEmitted,
		OrdersSubmitted,
		SnapshotSaves,
		SnapshotFailures,
		ActivePositions,
	)
}
