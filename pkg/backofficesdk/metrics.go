package backofficesdk

import "github.com/prometheus/client_golang/prometheus"

// Metrics instruments the HTTP gateway. A nil registerer leaves the
// collectors unregistered, which is handy in tests.
type Metrics struct {
	// Requests counts outbound requests by method and status ("network_error"
	// when the transport failed).
	Requests *prometheus.CounterVec

	// RequestDuration observes wall time of outbound requests.
	RequestDuration prometheus.Histogram

	// Refreshes counts token refresh attempts by result.
	Refreshes *prometheus.CounterVec

	// Replays counts requests replayed after a 401-triggered refresh.
	Replays prometheus.Counter
}

// NewMetrics builds and registers the gateway metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Outbound API requests by method and status.",
		}, []string{"method", "status"}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "backoffice",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Outbound API request duration.",
			Buckets:   prometheus.DefBuckets,
		}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "gateway",
			Name:      "token_refreshes_total",
			Help:      "Token refresh attempts by result.",
		}, []string{"result"}),
		Replays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "gateway",
			Name:      "request_replays_total",
			Help:      "Requests replayed once after a 401-triggered refresh.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Requests, m.RequestDuration, m.Refreshes, m.Replays)
	}
	return m
}
