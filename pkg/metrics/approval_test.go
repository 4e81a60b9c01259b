package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestApprovalMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewApprovalMetrics(reg)

	m.IncTransition("approved")
	m.IncTransition("approved")
	m.IncLineDecision("backordered")
	m.AddBulkOutcomes(3, 1)
	m.IncFinalizeFailure()
	m.ObserveFinalize(50 * time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.transitions.WithLabelValues("approved")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.lineDecisions.WithLabelValues("backordered")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.bulkOutcomes.WithLabelValues("processed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.bulkOutcomes.WithLabelValues("failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.finalizeFailures))
}

func TestApprovalMetricsNilSafe(t *testing.T) {
	var m *ApprovalMetrics
	assert.NotPanics(t, func() {
		m.IncTransition("approved")
		m.IncLineDecision("")
		m.AddBulkOutcomes(2, 0)
		m.ObserveFinalize(time.Second)
		m.IncFinalizeFailure()
	})

	empty := NewApprovalMetrics(nil)
	assert.NotPanics(t, func() {
		empty.IncTransition("ordered")
	})
}

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "unknown", normalizeLabel(""))
	assert.Equal(t, "approved", normalizeLabel("approved"))
}
