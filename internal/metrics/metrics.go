// Package metrics provides Prometheus metrics for the dispatcher, mirroring
// the registered-gauge-and-counter shape ned1313-tf-mirror's internal/metrics
// package uses for its own background job processor.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dbq"

var (
	global *Metrics
	once   sync.Once
)

// Metrics holds every Prometheus collector the dispatcher registers.
type Metrics struct {
	JobsByStatus   *prometheus.GaugeVec
	JobsCompleted  prometheus.Counter
	JobsFailed     *prometheus.CounterVec
	JobDuration    prometheus.Histogram
	GateInUse      prometheus.Gauge
	GateCapacity   prometheus.Gauge
	UserSlotsInUse prometheus.Gauge
}

// New returns the process-wide singleton Metrics, registering its
// collectors with the default Prometheus registerer on first call.
func New() *Metrics {
	once.Do(func() {
		global = newMetrics(prometheus.DefaultRegisterer)
	})
	return global
}

// NewWithRegistry builds a fresh, independently-registered Metrics,
// for use in tests that must not collide with the package singleton.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	return newMetrics(reg)
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		JobsByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_by_status",
			Help:      "Current number of jobs in each non-terminal status.",
		}, []string{"status"}),
		JobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_completed_total",
			Help:      "Total number of jobs that reached Completed.",
		}),
		JobsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_failed_total",
			Help:      "Total number of jobs that reached Failed, by error kind.",
		}, []string{"kind"}),
		JobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Time from Running to a terminal state.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
		GateInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gate_in_use",
			Help:      "Permits currently held on the global admission gate.",
		}),
		GateCapacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gate_capacity",
			Help:      "Total permits on the global admission gate.",
		}),
		UserSlotsInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "user_slots_distinct_users",
			Help:      "Number of distinct users with at least one in-flight job.",
		}),
	}
	reg.MustRegister(
		m.JobsByStatus,
		m.JobsCompleted,
		m.JobsFailed,
		m.JobDuration,
		m.GateInUse,
		m.GateCapacity,
		m.UserSlotsInUse,
	)
	return m
}

// ObserveCounts writes a Counts-shaped snapshot (pending/queued/running/
// transferring) into JobsByStatus.
func (m *Metrics) ObserveCounts(pending, queued, running, transferring int64) {
	m.JobsByStatus.WithLabelValues("pending").Set(float64(pending))
	m.JobsByStatus.WithLabelValues("queued").Set(float64(queued))
	m.JobsByStatus.WithLabelValues("running").Set(float64(running))
	m.JobsByStatus.WithLabelValues("transferring").Set(float64(transferring))
}
