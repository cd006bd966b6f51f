package llm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records relay and parser activity.
type Metrics interface {
	ObserveRelayRequest(outcome string, duration time.Duration)
	IncParseStrategy(strategy Strategy)
	IncCache(hit bool)
}

type promMetrics struct {
	relayRequests *prometheus.CounterVec
	relayDuration prometheus.Histogram
	parseStrategy *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
}

// NewMetrics registers the classifier metrics on reg.
func NewMetrics(reg prometheus.Registerer) Metrics {
	factory := promauto.With(reg)
	return &promMetrics{
		relayRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sortwise",
			Subsystem: "relay",
			Name:      "requests_total",
			Help:      "Inference relay requests, labeled by outcome.",
		}, []string{"outcome"}),
		relayDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sortwise",
			Subsystem: "relay",
			Name:      "request_duration_seconds",
			Help:      "Inference relay round trip time.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}),
		parseStrategy: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sortwise",
			Subsystem: "parser",
			Name:      "strategy_total",
			Help:      "Replies decoded, labeled by the strategy that succeeded.",
		}, []string{"strategy"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sortwise",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Reply cache lookups, labeled by result.",
		}, []string{"result"}),
	}
}

func (m *promMetrics) ObserveRelayRequest(outcome string, duration time.Duration) {
	m.relayRequests.WithLabelValues(outcome).Inc()
	m.relayDuration.Observe(duration.Seconds())
}

func (m *promMetrics) IncParseStrategy(strategy Strategy) {
	m.parseStrategy.WithLabelValues(string(strategy)).Inc()
}

func (m *promMetrics) IncCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// NoopMetrics returns a Metrics that records nothing.
func NoopMetrics() Metrics {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) ObserveRelayRequest(string, time.Duration) {}
func (noopMetrics) IncParseStrategy(Strategy)                 {}
func (noopMetrics) IncCache(bool)                             {}
