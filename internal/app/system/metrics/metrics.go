// internal/app/system/metrics/metrics.go

// Package metrics exposes scheduler activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cohorthub"

// Metrics implements scheduling.Recorder on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	cohortsOpened prometheus.Counter
	studentsAdded prometheus.Counter
	cohortFull    prometheus.Counter
	enrollRetries prometheus.Counter
	cohortsClosed prometheus.Counter
}

// New registers the cohort counters plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		cohortsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cohorts_opened_total",
			Help:      "Cohorts created by find-or-create.",
		}),
		studentsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "students_added_total",
			Help:      "Students newly added to a cohort roster.",
		}),
		cohortFull: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cohort_full_total",
			Help:      "Add attempts rejected because the cohort was at capacity.",
		}),
		enrollRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enroll_retries_total",
			Help:      "Enrollments that lost the last seat and retried.",
		}),
		cohortsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cohorts_closed_total",
			Help:      "Cohorts closed after their end date.",
		}),
	}
	m.reg.MustRegister(
		m.cohortsOpened,
		m.studentsAdded,
		m.cohortFull,
		m.enrollRetries,
		m.cohortsClosed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) CohortOpened()  { m.cohortsOpened.Inc() }
func (m *Metrics) StudentAdded()  { m.studentsAdded.Inc() }
func (m *Metrics) CohortFull()    { m.cohortFull.Inc() }
func (m *Metrics) EnrollRetried() { m.enrollRetries.Inc() }

func (m *Metrics) CohortsClosed(n int64) {
	if n > 0 {
		m.cohortsClosed.Add(float64(n))
	}
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
