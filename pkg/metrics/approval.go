package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ApprovalMetrics records counters and timings for the purchase order
// approval workflow. All methods are nil-safe so tests can pass a zero value.
type ApprovalMetrics struct {
	transitions      *prometheus.CounterVec
	lineDecisions    *prometheus.CounterVec
	bulkOutcomes     *prometheus.CounterVec
	finalizeDuration prometheus.Histogram
	finalizeFailures prometheus.Counter
}

// NewApprovalMetrics registers the workflow metrics on the provided registerer.
func NewApprovalMetrics(reg prometheus.Registerer) *ApprovalMetrics {
	if reg == nil {
		return &ApprovalMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "purchase_order_transitions_total",
		Help: "Purchase order status transitions by target status.",
	}, []string{"to_status"})
	lineDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "purchase_order_line_decisions_total",
		Help: "Line allocation decisions by resulting line status.",
	}, []string{"line_status"})
	bulkOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "purchase_order_bulk_decisions_total",
		Help: "Lines touched by bulk decision runs, by outcome.",
	}, []string{"outcome"})
	finalizeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "purchase_order_finalize_duration_seconds",
		Help:    "Duration of the finalization transaction in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	finalizeFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "purchase_order_finalize_failures_total",
		Help: "Finalization attempts that rolled back.",
	})
	reg.MustRegister(transitions, lineDecisions, bulkOutcomes, finalizeDuration, finalizeFailures)
	return &ApprovalMetrics{
		transitions:      transitions,
		lineDecisions:    lineDecisions,
		bulkOutcomes:     bulkOutcomes,
		finalizeDuration: finalizeDuration,
		finalizeFailures: finalizeFailures,
	}
}

// IncTransition counts a purchase order moving to the named status.
func (m *ApprovalMetrics) IncTransition(toStatus string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(toStatus)).Inc()
}

// IncLineDecision counts a line decision by its resulting status.
func (m *ApprovalMetrics) IncLineDecision(lineStatus string) {
	if m == nil || m.lineDecisions == nil {
		return
	}
	m.lineDecisions.WithLabelValues(normalizeLabel(lineStatus)).Inc()
}

// AddBulkOutcomes counts the lines a bulk decision run processed and failed.
func (m *ApprovalMetrics) AddBulkOutcomes(processed, failed int) {
	if m == nil || m.bulkOutcomes == nil {
		return
	}
	m.bulkOutcomes.WithLabelValues("processed").Add(float64(processed))
	m.bulkOutcomes.WithLabelValues("failed").Add(float64(failed))
}

// ObserveFinalize records how long a finalization transaction took.
func (m *ApprovalMetrics) ObserveFinalize(duration time.Duration) {
	if m == nil || m.finalizeDuration == nil {
		return
	}
	m.finalizeDuration.Observe(duration.Seconds())
}

// IncFinalizeFailure counts a finalization attempt that rolled back.
func (m *ApprovalMetrics) IncFinalizeFailure() {
	if m == nil || m.finalizeFailures == nil {
		return
	}
	m.finalizeFailures.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
