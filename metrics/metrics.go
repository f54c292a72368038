// Package metrics exposes Prometheus counters for simulation runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "quantlab_runs_total", Help: "Simulation runs by outcome"},
		[]string{"outcome"},
	)
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "quantlab_trades_total", Help: "Simulated fills"},
		[]string{"asset", "side"},
	)
	ClampsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "quantlab_clamps_total", Help: "Orders reduced or dropped before fill"},
		[]string{"reason"},
	)
	HaltsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "quantlab_halts_total", Help: "Runs halted before the last bar"},
		[]string{"reason"},
	)
	ValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "quantlab_validations_total", Help: "Strategy validations by verdict and rule"},
		[]string{"verdict", "rule"},
	)
	TrialsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "quantlab_montecarlo_trials_total", Help: "Monte Carlo trials completed"},
	)
)

func init() {
	prometheus.MustRegister(RunsTotal, TradesTotal, ClampsTotal, HaltsTotal, ValidationsTotal, TrialsTotal)
}

// Serve starts a /metrics endpoint in the background and returns the server
// so callers can Close it.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
