package metrics

import "github.com/prometheus/client_golang/prometheus"

// AccessMetrics counts requests turned away by the access guards.
type AccessMetrics struct {
	denials *prometheus.CounterVec
}

func NewAccessMetrics(reg prometheus.Registerer) *AccessMetrics {
	if reg == nil {
		return &AccessMetrics{}
	}
	denials := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "marketdesk_access_denials_total",
		Help: "Requests denied by authentication or role guards.",
	}, []string{"reason"})
	reg.MustRegister(denials)
	return &AccessMetrics{denials: denials}
}

// IncDenial counts one denial for reason.
func (a *AccessMetrics) IncDenial(reason string) {
	if a == nil || a.denials == nil {
		return
	}
	a.denials.WithLabelValues(normalizeLabel(reason)).Inc()
}
