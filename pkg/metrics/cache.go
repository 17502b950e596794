package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics registra las consultas e invalidaciones del caché de agregados por pool.
type CacheMetrics struct {
	lookups       *prometheus.CounterVec
	invalidations *prometheus.CounterVec
}

// NewCacheMetrics registra las métricas del caché en el registerer dado.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	if reg == nil {
		return &CacheMetrics{}
	}
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aggregate_cache_lookups_total",
		Help: "Aggregate cache lookups by pool and result.",
	}, []string{"pool", "result"})
	invalidations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aggregate_cache_invalidations_total",
		Help: "Aggregate cache pool invalidations.",
	}, []string{"pool"})
	reg.MustRegister(lookups, invalidations)
	return &CacheMetrics{lookups: lookups, invalidations: invalidations}
}

// IncHit cuenta una consulta servida desde el pool.
func (m *CacheMetrics) IncHit(pool string) {
	if m == nil || m.lookups == nil {
		return
	}
	m.lookups.WithLabelValues(normalizeLabel(pool), "hit").Inc()
}

// IncMiss cuenta una consulta que tuvo que cargar.
func (m *CacheMetrics) IncMiss(pool string) {
	if m == nil || m.lookups == nil {
		return
	}
	m.lookups.WithLabelValues(normalizeLabel(pool), "miss").Inc()
}

// IncInvalidation cuenta una invalidación completa del pool.
func (m *CacheMetrics) IncInvalidation(pool string) {
	if m == nil || m.invalidations == nil {
		return
	}
	m.invalidations.WithLabelValues(normalizeLabel(pool)).Inc()
}
