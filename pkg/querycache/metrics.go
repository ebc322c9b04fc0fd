package querycache

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes cache behaviour counters. All fields are registered on the
// provided registerer; pass prometheus.DefaultRegisterer for the global one.
type Metrics struct {
	Hits          prometheus.Counter
	Misses        prometheus.Counter
	StaleServed   prometheus.Counter
	Invalidations prometheus.Counter
	Evictions     prometheus.Counter
}

// NewMetrics builds and registers the cache metrics. A nil registerer leaves
// the counters unregistered, which is handy in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "querycache",
			Name:      "hits_total",
			Help:      "Reads served from a fresh cache entry.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "querycache",
			Name:      "misses_total",
			Help:      "Reads that required a backend fetch.",
		}),
		StaleServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "querycache",
			Name:      "stale_served_total",
			Help:      "Reads served stale while a revalidation ran in the background.",
		}),
		Invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "querycache",
			Name:      "invalidations_total",
			Help:      "Entries marked stale by mutation tags.",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "querycache",
			Name:      "evictions_total",
			Help:      "Entries evicted after their retention window.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Hits, m.Misses, m.StaleServed, m.Invalidations, m.Evictions)
	}
	return m
}
