package store

import "github.com/prometheus/client_golang/prometheus"

const (
	resultOK      = "ok"
	resultError   = "error"
	resultInvalid = "invalid"
)

// Metrics counts collection loads and persists. A nil *Metrics is a no-op.
type Metrics struct {
	loads    *prometheus.CounterVec
	persists *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		loads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "openats_store_loads_total",
				Help: "Collection loads by storage key and outcome.",
			},
			[]string{"key", "status"},
		),
		persists: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "openats_store_persists_total",
				Help: "Collection writes by storage key and result.",
			},
			[]string{"key", "result"},
		),
	}
	reg.MustRegister(m.loads, m.persists)
	return m
}

func (m *Metrics) observeLoad(key string, s LoadStatus) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(key, string(s)).Inc()
}

func (m *Metrics) observePersist(key, result string) {
	if m == nil {
		return
	}
	m.persists.WithLabelValues(key, result).Inc()
}
