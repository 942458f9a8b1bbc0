// Package metrics holds the Prometheus collectors for association generation.
//
// A nil *Metrics is valid and records nothing, so callers never need to
// guard their Record calls.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "asngen"

// Metrics contains Prometheus metrics for the generation engine.
type Metrics struct {
	// Item offers, labeled by target ("existing" or "rule") and result
	evaluations *prometheus.CounterVec

	// Reprocess entries, labeled by work-over mode and disposition
	reprocess *prometheus.CounterVec

	// Associations created and collapsed, labeled by rule
	created   *prometheus.CounterVec
	collapsed *prometheus.CounterVec

	// Associations failing validity checks, labeled by rule and disposition
	invalid *prometheus.CounterVec

	orphans prometheus.Counter
	runs    *prometheus.CounterVec

	runDuration prometheus.Histogram
}

// NewMetrics creates collectors registered with reg. Pass a fresh
// prometheus.NewRegistry() in tests to keep runs isolated.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		evaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluations_total",
				Help:      "Total number of items offered to associations or rule templates",
			},
			[]string{"target", "result"},
		),

		reprocess: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reprocess_entries_total",
				Help:      "Total number of reprocess entries produced by constraint evaluation",
			},
			[]string{"work_over", "disposition"},
		),

		created: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "associations_created_total",
				Help:      "Total number of associations created from rule templates",
			},
			[]string{"rule"},
		),

		collapsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "associations_collapsed_total",
				Help:      "Total number of duplicate associations removed after generation",
			},
			[]string{"rule"},
		),

		invalid: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "associations_invalid_total",
				Help:      "Total number of associations that failed their rule's validity checks",
			},
			[]string{"rule", "disposition"},
		),

		orphans: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orphans_total",
				Help:      "Total number of pool items that joined no association",
			},
		),

		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of generation runs",
			},
			[]string{"result"},
		),

		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of generation runs in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to 16s
			},
		),
	}
}

// RecordEvaluation records one item offered to an existing association
// (target "existing") or a rule template (target "rule").
func (m *Metrics) RecordEvaluation(target string, matched bool) {
	if m == nil {
		return
	}
	result := "match"
	if !matched {
		result = "reject"
	}
	m.evaluations.WithLabelValues(target, result).Inc()
}

// RecordReprocess records a reprocess entry as "queued" or "dropped".
func (m *Metrics) RecordReprocess(workOver string, queued bool) {
	if m == nil {
		return
	}
	disposition := "queued"
	if !queued {
		disposition = "dropped"
	}
	m.reprocess.WithLabelValues(workOver, disposition).Inc()
}

// RecordCreated records a new association for rule.
func (m *Metrics) RecordCreated(rule string) {
	if m == nil {
		return
	}
	m.created.WithLabelValues(rule).Inc()
}

// RecordCollapsed records a duplicate association removed for rule.
func (m *Metrics) RecordCollapsed(rule string) {
	if m == nil {
		return
	}
	m.collapsed.WithLabelValues(rule).Inc()
}

// RecordInvalid records an association that failed validity as "kept"
// or "dropped".
func (m *Metrics) RecordInvalid(rule string, dropped bool) {
	if m == nil {
		return
	}
	disposition := "kept"
	if dropped {
		disposition = "dropped"
	}
	m.invalid.WithLabelValues(rule, disposition).Inc()
}

// RecordOrphans adds n orphaned items.
func (m *Metrics) RecordOrphans(n int) {
	if m == nil {
		return
	}
	m.orphans.Add(float64(n))
}

// RecordRun records a finished run and its duration in seconds.
func (m *Metrics) RecordRun(ok bool, seconds float64) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "error"
	}
	m.runs.WithLabelValues(result).Inc()
	m.runDuration.Observe(seconds)
}
