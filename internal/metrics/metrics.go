package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Cycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_cycles_total",
			Help: "Trading cycles by outcome",
		},
		[]string{"outcome"}, // ok|skipped|error
	)

	Orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_orders_total",
			Help: "Orders placed by side and status",
		},
		[]string{"side", "status"},
	)

	BreakoutRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_breakout_rejections_total",
			Help: "Breakout admission rejections by reason",
		},
		[]string{"reason"},
	)

	Running = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bot_running",
			Help: "1 while the cycle worker is running",
		},
		[]string{"user"},
	)

	Equity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_equity_usd",
			Help: "Portfolio value in USD",
		},
	)

	Restarts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_restarts_total",
			Help: "Trader restarts",
		},
	)
)

func init() {
	prometheus.MustRegister(
		Cycles,
		Orders,
		BreakoutRejections,
		Running,
		Equity,
		Restarts,
	)
}
