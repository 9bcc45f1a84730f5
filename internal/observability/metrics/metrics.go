package metrics

import "github.com/prometheus/client_golang/prometheus"

// AppointmentMetrics exposes counters/histograms for backend fetches and view updates.
type AppointmentMetrics struct {
	fetchTotal    *prometheus.CounterVec
	fetchLatency  *prometheus.HistogramVec
	staleDiscards *prometheus.CounterVec
	activeViews   prometheus.Gauge
}

func NewAppointmentMetrics(reg prometheus.Registerer) *AppointmentMetrics {
	m := &AppointmentMetrics{
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "patient_bff",
			Subsystem: "backend",
			Name:      "fetch_total",
			Help:      "Total appointment fetches against the healthcare backend",
		}, []string{"slice", "outcome"}),
		fetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "patient_bff",
			Subsystem: "backend",
			Name:      "fetch_latency_seconds",
			Help:      "Latency of appointment fetches",
			Buckets:   prometheus.DefBuckets,
		}, []string{"slice"}),
		staleDiscards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "patient_bff",
			Subsystem: "views",
			Name:      "stale_discards_total",
			Help:      "Fetch responses dropped because a newer request superseded them",
		}, []string{"slice"}),
		activeViews: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "patient_bff",
			Subsystem: "views",
			Name:      "active",
			Help:      "Appointment views currently held in memory",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.fetchTotal, m.fetchLatency, m.staleDiscards, m.activeViews)
	return m
}

func (m *AppointmentMetrics) ObserveFetch(slice, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.fetchTotal.WithLabelValues(slice, outcome).Inc()
	m.fetchLatency.WithLabelValues(slice).Observe(seconds)
}

func (m *AppointmentMetrics) ObserveStaleDiscard(slice string) {
	if m == nil {
		return
	}
	m.staleDiscards.WithLabelValues(slice).Inc()
}

func (m *AppointmentMetrics) SetActiveViews(n int) {
	if m == nil {
		return
	}
	m.activeViews.Set(float64(n))
}
