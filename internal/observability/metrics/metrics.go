package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes application-level instruments for the job and payout engines.
type Metrics struct {
	jobTransitions     *prometheus.CounterVec
	payoutTransitions  *prometheus.CounterVec
	payoutBatchJobs    prometheus.Counter
	auditWriteFailures prometheus.Counter
}

// New registers the domain counters on the default prometheus registry.
func New() *Metrics {
	m := &Metrics{
		jobTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Name:      "job_transitions_total",
			Help:      "Job status transitions by action and outcome.",
		}, []string{"action", "outcome"}),
		payoutTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Name:      "payout_transitions_total",
			Help:      "Payout status transitions by action and outcome.",
		}, []string{"action", "outcome"}),
		payoutBatchJobs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "backoffice",
			Name:      "payout_batch_jobs_total",
			Help:      "Jobs marked paid through batch processing.",
		}),
		auditWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "backoffice",
			Name:      "audit_write_failures_total",
			Help:      "Audit events that could not be persisted.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.jobTransitions,
		m.payoutTransitions,
		m.payoutBatchJobs,
		m.auditWriteFailures,
	} {
		if err := prometheus.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}

	return m
}

func (m *Metrics) IncJobTransition(action, outcome string) {
	if m == nil {
		return
	}
	m.jobTransitions.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) IncPayoutTransition(action, outcome string) {
	if m == nil {
		return
	}
	m.payoutTransitions.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) AddPayoutBatchJobs(n int) {
	if m == nil {
		return
	}
	m.payoutBatchJobs.Add(float64(n))
}

func (m *Metrics) IncAuditWriteFailure() {
	if m == nil {
		return
	}
	m.auditWriteFailures.Inc()
}
