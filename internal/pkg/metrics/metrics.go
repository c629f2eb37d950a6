package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the RED instruments shared by the order use cases and the
// auto-delivery sweep.
type Metrics struct {
	UsecaseRequests *prometheus.CounterVec
	UsecaseDuration *prometheus.HistogramVec
	AutoDelivered   prometheus.Counter
}

// New builds the metric vectors and registers them on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UsecaseRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "usecase_requests_total",
				Help: "Total number of use case invocations.",
			},
			[]string{"use_case", "outcome"},
		),
		UsecaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "usecase_duration_seconds",
				Help:    "Duration of use case execution in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"use_case"},
		),
		AutoDelivered: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "orders_auto_delivered_total",
				Help: "Count of confirmed orders advanced to delivered by the sweep.",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.UsecaseRequests, m.UsecaseDuration, m.AutoDelivered)
	}
	return m
}

// Nop returns unregistered instruments for tests.
func Nop() *Metrics {
	return New(nil)
}

// Observe records one use case invocation.
func (m *Metrics) Observe(useCase, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.UsecaseRequests.WithLabelValues(useCase, outcome).Inc()
	m.UsecaseDuration.WithLabelValues(useCase).Observe(seconds)
}
