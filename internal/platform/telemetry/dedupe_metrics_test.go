package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupeMetrics_ObservePass(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewDedupeMetrics(reg)
	require.NoError(t, err)

	m.ObservePass(0, 0)
	m.ObservePass(3, 3)
	m.ObservePass(2, 1)

	assert.InDelta(t, 1, testutil.ToFloat64(m.passes.WithLabelValues("noop")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.passes.WithLabelValues("clean")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.passes.WithLabelValues("partial")), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(m.found), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(m.deleted), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.failed), 0)
}

func TestDedupeMetrics_RegisterTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := NewDedupeMetrics(reg)
	require.NoError(t, err)
	second, err := NewDedupeMetrics(reg)
	require.NoError(t, err)

	second.ObservePass(1, 1)

	assert.InDelta(t, 1, testutil.ToFloat64(first.deleted), 0)
}

func TestDedupeMetrics_NilIsNoop(t *testing.T) {
	var m *DedupeMetrics

	assert.NotPanics(t, func() {
		m.ObservePass(2, 1)
		m.ObserveDelete(0.2)
	})
}
