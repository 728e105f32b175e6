package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// InventoryMetrics counts inventory mutations by operation and outcome.
type InventoryMetrics struct {
	mutations *prometheus.CounterVec
}

func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "marketdesk_inventory_mutations_total",
		Help: "Inventory create, update and delete attempts.",
	}, []string{"op", "outcome"})
	reg.MustRegister(mutations)
	return &InventoryMetrics{mutations: mutations}
}

// IncMutation counts one mutation attempt.
func (m *InventoryMetrics) IncMutation(op, outcome string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}
