// Package observability wires the daemon's ambient metrics: job/stage
// counters and decay statistics exposed on /metrics.
package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the daemon's Prometheus collectors.
type Metrics struct {
	JobsCompleted   prometheus.Counter
	JobsFailed      prometheus.Counter
	StageDuration   *prometheus.HistogramVec
	StageFailures   *prometheus.CounterVec
	MemoriesDecayed prometheus.Counter
	RememberTotal   prometheus.Counter
	RecallTotal     *prometheus.CounterVec
}

// New constructs and registers the daemon's metrics against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		JobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agentmemory",
			Name:      "jobs_completed_total",
			Help:      "Reflection jobs that completed all stages successfully.",
		}),
		JobsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agentmemory",
			Name:      "jobs_failed_total",
			Help:      "Reflection jobs that failed at some stage.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agentmemory",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		StageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentmemory",
			Name:      "pipeline_stage_failures_total",
			Help:      "Pipeline stage failures by stage name.",
		}, []string{"stage"}),
		MemoriesDecayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agentmemory",
			Name:      "memories_decayed_total",
			Help:      "Memories whose strength changed during a decay pass.",
		}),
		RememberTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agentmemory",
			Name:      "remember_total",
			Help:      "Remember calls served.",
		}),
		RecallTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentmemory",
			Name:      "recall_total",
			Help:      "Recall calls served, by retrieval method.",
		}, []string{"method"}),
	}

	reg.MustRegister(
		m.JobsCompleted,
		m.JobsFailed,
		m.StageDuration,
		m.StageFailures,
		m.MemoriesDecayed,
		m.RememberTotal,
		m.RecallTotal,
	)

	return m
}
