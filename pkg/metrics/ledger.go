package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// QueryMetrics registra qué estrategia de listado sirvió cada petición.
type QueryMetrics struct {
	attempts *prometheus.CounterVec
}

// NewQueryMetrics registra las métricas de listado en el registerer dado.
func NewQueryMetrics(reg prometheus.Registerer) *QueryMetrics {
	if reg == nil {
		return &QueryMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_query_tier_total",
		Help: "Ledger listing attempts by strategy tier and outcome.",
	}, []string{"tier", "outcome"})
	reg.MustRegister(attempts)
	return &QueryMetrics{attempts: attempts}
}

// IncServed cuenta un nivel que respondió el listado.
func (m *QueryMetrics) IncServed(tier string) {
	if m == nil || m.attempts == nil {
		return
	}
	m.attempts.WithLabelValues(normalizeLabel(tier), "served").Inc()
}

// IncFailed cuenta un nivel que falló y pasó al siguiente.
func (m *QueryMetrics) IncFailed(tier string) {
	if m == nil || m.attempts == nil {
		return
	}
	m.attempts.WithLabelValues(normalizeLabel(tier), "failed").Inc()
}

// EngineMetrics registra las mutaciones del motor de inventario.
type EngineMetrics struct {
	mutations *prometheus.CounterVec
	conflicts prometheus.Counter
}

// NewEngineMetrics registra las métricas del motor en el registerer dado.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_mutations_total",
		Help: "Ledger mutations by operation and result.",
	}, []string{"operation", "result"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_conflict_retries_total",
		Help: "Mutations retried after a concurrent modification.",
	})
	reg.MustRegister(mutations, conflicts)
	return &EngineMetrics{mutations: mutations, conflicts: conflicts}
}

// ObserveMutation cuenta una mutación terminada; result es el tipo de error u "ok".
func (m *EngineMetrics) ObserveMutation(operation, result string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(operation), normalizeLabel(result)).Inc()
}

// IncConflictRetry cuenta un reintento tras ErrConflict.
func (m *EngineMetrics) IncConflictRetry() {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
