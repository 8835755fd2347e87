package cache

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors a Cache reports to.
// A nil *Metrics records nothing.
type Metrics struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	writes        prometheus.Counter
	flushErrors   *prometheus.CounterVec
	hydrateErrors *prometheus.CounterVec
	entries       prometheus.Gauge
}

// NewMetrics creates the cache collectors and registers them with reg.
// A nil reg leaves them unregistered, which is handy in tests.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Cache lookups that found a live entry",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Cache lookups that found nothing or an expired entry",
		}),
		writes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_writes_total",
			Help:      "Successful flushes of the cache table",
		}),
		flushErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_flush_errors_total",
			Help:      "Failed flushes of the cache table by backing store",
		}, []string{"store"}),
		hydrateErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hydrate_errors_total",
			Help:      "Hydrations that fell back to an empty table by backing store",
		}, []string{"store"}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_entries",
			Help:      "Entries in the last persisted cache table",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.hits, m.misses, m.writes, m.flushErrors, m.hydrateErrors, m.entries)
	}
	return m
}

func (m *Metrics) hit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *Metrics) wrote(entries int) {
	if m != nil {
		m.writes.Inc()
		m.entries.Set(float64(entries))
	}
}

func (m *Metrics) setEntries(n int) {
	if m != nil {
		m.entries.Set(float64(n))
	}
}

func (m *Metrics) flushFailed(store string) {
	if m != nil {
		m.flushErrors.WithLabelValues(store).Inc()
	}
}

func (m *Metrics) hydrateFailed(store string) {
	if m != nil {
		m.hydrateErrors.WithLabelValues(store).Inc()
	}
}

// Hits exposes the hit counter for inspection.
func (m *Metrics) Hits() prometheus.Counter { return m.hits }

// Misses exposes the miss counter for inspection.
func (m *Metrics) Misses() prometheus.Counter { return m.misses }

// FlushErrors exposes the flush error counter for one store.
func (m *Metrics) FlushErrors(store string) prometheus.Counter {
	return m.flushErrors.WithLabelValues(store)
}
