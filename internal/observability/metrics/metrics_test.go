package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAppointmentMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAppointmentMetrics(reg)

	m.ObserveFetch("upcoming_active", "success", 0.2)
	m.ObserveFetch("upcoming_active", "success", 0.1)
	m.ObserveFetch("past_active", "error", 1.5)
	m.ObserveStaleDiscard("past_active")
	m.SetActiveViews(3)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.fetchTotal.WithLabelValues("upcoming_active", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.fetchTotal.WithLabelValues("past_active", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.staleDiscards.WithLabelValues("past_active")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.activeViews))
}

func TestAppointmentMetricsNilSafe(t *testing.T) {
	var m *AppointmentMetrics
	m.ObserveFetch("upcoming_active", "success", 0.1)
	m.ObserveStaleDiscard("upcoming_active")
	m.SetActiveViews(1)
}
