package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestSessionCreatedIncrementsActiveGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SessionCreated(true)
	m.SessionCreated(false)

	families, err := reg.Gather()
	require.NoError(t, err)

	var active *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == namespace+"_sessions_active" {
			active = f
		}
	}
	require.NotNil(t, active)
	require.Len(t, active.Metric, 1)
	require.Equal(t, float64(1), active.Metric[0].GetGauge().GetValue())
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.SessionCreated(true)
		m.SessionClosed("good")
		m.ActivationResult("good")
		m.DiscoveryQueueDepth(1, 3)
	})
}
