package liquidator

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	attempts   *prometheus.CounterVec
	prepares   *prometheus.CounterVec
	candidates prometheus.Gauge
	rounds     prometheus.Counter
}

var (
	metricsOnce     sync.Once
	metricsRegistry *metrics
)

func keeperMetrics() *metrics {
	metricsOnce.Do(func() {
		metricsRegistry = &metrics{
			attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "margin_liquidation_attempts_total",
				Help: "Liquidation attempts of the keeper by final state.",
			}, []string{"state"}),
			prepares: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "margin_liquidation_prepares_total",
				Help: "Async unwrap preparations of the keeper by result.",
			}, []string{"result"}),
			candidates: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "margin_liquidation_candidates",
				Help: "Liquidatable accounts found in the last round.",
			}),
			rounds: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "margin_liquidation_rounds_total",
				Help: "Completed keeper rounds.",
			}),
		}
		prometheus.MustRegister(
			metricsRegistry.attempts,
			metricsRegistry.prepares,
			metricsRegistry.candidates,
			metricsRegistry.rounds,
		)
	})
	return metricsRegistry
}

func (m *metrics) observeAttempt(state string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(state).Inc()
}

func (m *metrics) observePrepare(result string) {
	if m == nil {
		return
	}
	m.prepares.WithLabelValues(result).Inc()
}
