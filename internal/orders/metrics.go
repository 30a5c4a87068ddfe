package orders

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts orders by the state they finished in.
type Metrics struct {
	finished *prometheus.CounterVec
}

// NewMetrics registers order metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		finished: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "orders_finished_total",
			Help: "Orders that reached a final state, partitioned by status and failure reason.",
		}, []string{"status", "reason"}),
	}
}

func (m *Metrics) record(status Status, reason string) {
	if m == nil {
		return
	}
	m.finished.WithLabelValues(string(status), reason).Inc()
}
