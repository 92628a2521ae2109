package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	require := require.New(t)
	m := New()

	m.Admitted("EthRelayMessage")
	m.Admitted("EthRelayMessage")
	m.Duplicate("EthRelayMessage")
	m.SetQueueDepth(3)
	m.Dispatched("approveTransfer", "submitted")

	require.Equal(2.0, testutil.ToFloat64(m.EventsAdmitted.WithLabelValues("EthRelayMessage")))
	require.Equal(1.0, testutil.ToFloat64(m.Duplicates.WithLabelValues("EthRelayMessage")))
	require.Equal(3.0, testutil.ToFloat64(m.QueueDepth))
	require.Equal(1.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("approveTransfer", "submitted")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.Admitted("x")
		m.Duplicate("x")
		m.SetQueueDepth(1)
		m.Dispatched("x", "y")
		m.Indexed("ethereum", 1)
	})
}
