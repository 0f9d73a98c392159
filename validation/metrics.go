package validation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts validation runs and node outcomes. A nil *Metrics records
// nothing.
type Metrics struct {
	runs     *prometheus.CounterVec
	nodes    *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jsonldschema",
			Name:      "validation_runs_total",
			Help:      "Document validations by outcome (success, failure, error).",
		}, []string{"outcome"}),
		nodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jsonldschema",
			Name:      "validated_nodes_total",
			Help:      "Framed nodes checked, by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "jsonldschema",
			Name:      "validation_duration_seconds",
			Help:      "Wall time of a document validation.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.nodes, m.duration)
	}
	return m
}

func (m *Metrics) observeRun(rep *Report, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
	case rep != nil && !rep.Success:
		outcome = "failure"
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.duration.Observe(d.Seconds())
}

func (m *Metrics) observeNode(valid bool) {
	if m == nil {
		return
	}
	if valid {
		m.nodes.WithLabelValues("valid").Inc()
		return
	}
	m.nodes.WithLabelValues("invalid").Inc()
}
