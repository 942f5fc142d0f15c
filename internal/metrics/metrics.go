package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	FetchCycles = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coinpulse_price_fetch_cycles_total",
		Help: "Total number of price fetch cycles attempted",
	})
	FetchFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coinpulse_price_fetch_failures_total",
		Help: "Total number of failed price fetch cycles",
	})
	AlertsFired = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coinpulse_alerts_fired_total",
		Help: "Total number of price alerts fired",
	})
)

func init() {
	prometheus.MustRegister(FetchCycles, FetchFailures, AlertsFired)
}
