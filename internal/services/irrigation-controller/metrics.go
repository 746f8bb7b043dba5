package irrigation_controller

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/LeonardoBeccarini/farmtech/internal/policy"
)

type Metrics struct {
	decisions  *prometheus.CounterVec
	rejected   *prometheus.CounterVec
	duplicates prometheus.Counter
}

// NewMetrics registers the controller collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farmtech",
			Name:      "decisions_total",
			Help:      "Irrigation decisions by matched condition.",
		}, []string{"condition", "irrigate"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farmtech",
			Name:      "readings_rejected_total",
			Help:      "Sensor readings dropped before evaluation.",
		}, []string{"reason"}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "farmtech",
			Name:      "readings_duplicate_total",
			Help:      "QoS1 redeliveries discarded by the deduper.",
		}),
	}
	reg.MustRegister(m.decisions, m.rejected, m.duplicates)
	return m
}

func (m *Metrics) observeDecision(d policy.Decision) {
	m.decisions.WithLabelValues(d.MatchedCondition.String(), strconv.FormatBool(d.ShouldIrrigate)).Inc()
}

func (m *Metrics) reject(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}
