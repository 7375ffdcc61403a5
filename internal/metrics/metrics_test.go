package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestObserveCountsSetsGauges(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())
	m.ObserveCounts(3, 1, 2, 0)

	var metric dto.Metric
	g, err := m.JobsByStatus.GetMetricWithLabelValues("pending")
	require.NoError(t, err)
	require.NoError(t, g.Write(&metric))
	require.Equal(t, float64(3), metric.GetGauge().GetValue())
}

func TestNewWithRegistryDoesNotCollideWithSingleton(t *testing.T) {
	a := New()
	b := NewWithRegistry(prometheus.NewRegistry())
	require.NotSame(t, a, b)
}
