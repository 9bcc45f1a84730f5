package service

import (
	"context"
	"io"
	"testing"
	"time"

	"patient-appointments-bff/internal/domain/entity"
	"patient-appointments-bff/internal/observability/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	tokens []string
}

func (s *stubSource) FetchAppointments(_ context.Context, token string, _ entity.AppointmentQuery) ([]entity.Appointment, error) {
	s.tokens = append(s.tokens, token)
	return nil, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestViewSessionService_GetOrCreate(t *testing.T) {
	src := &stubSource{}
	svc := NewViewSessionService(src, "CordeliaKareAdmin", time.Minute, quietLogger(), nil)
	defer svc.Stop()

	session := &entity.Session{ID: "sess-1", BackendToken: "upstream-1"}

	first, created := svc.GetOrCreate(session)
	require.NotNil(t, first)
	assert.True(t, created)

	second, created := svc.GetOrCreate(session)
	assert.False(t, created)
	assert.Same(t, first, second)
	assert.Equal(t, 1, svc.Len())

	require.NoError(t, first.LoadUpcoming(context.Background()))
	assert.Equal(t, []string{"upstream-1"}, src.tokens)
}

func TestViewSessionService_Drop(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewAppointmentMetrics(reg)
	svc := NewViewSessionService(&stubSource{}, "CordeliaKareAdmin", time.Minute, quietLogger(), m)
	defer svc.Stop()

	svc.GetOrCreate(&entity.Session{ID: "a"})
	svc.GetOrCreate(&entity.Session{ID: "b"})
	assert.Equal(t, 2, svc.Len())

	svc.Drop("a")
	svc.Drop("a")
	svc.Drop("missing")
	assert.Equal(t, 1, svc.Len())

	_, created := svc.GetOrCreate(&entity.Session{ID: "a"})
	assert.True(t, created)
	assert.Equal(t, 2, svc.Len())
}

func TestViewSessionService_EvictIdle(t *testing.T) {
	svc := NewViewSessionService(&stubSource{}, "CordeliaKareAdmin", 10*time.Minute, quietLogger(), nil)
	defer svc.Stop()

	svc.GetOrCreate(&entity.Session{ID: "idle"})
	svc.GetOrCreate(&entity.Session{ID: "busy"})

	assert.Zero(t, svc.evictIdle(time.Now()))

	later := time.Now().Add(11 * time.Minute)
	busy, ok := svc.views.Load("busy")
	require.True(t, ok)
	busy.(*viewEntry).lastUsed.Store(later.UnixNano())

	assert.Equal(t, 1, svc.evictIdle(later))
	assert.Equal(t, 1, svc.Len())

	_, created := svc.GetOrCreate(&entity.Session{ID: "idle"})
	assert.True(t, created)
}

func TestViewSessionService_ActiveViewsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewAppointmentMetrics(reg)
	svc := NewViewSessionService(&stubSource{}, "CordeliaKareAdmin", time.Minute, quietLogger(), m)
	defer svc.Stop()

	svc.GetOrCreate(&entity.Session{ID: "a"})
	svc.GetOrCreate(&entity.Session{ID: "b"})
	svc.Drop("b")

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "patient_bff_views_active" {
			found = true
			assert.Equal(t, float64(1), f.GetMetric()[0].GetGauge().GetValue())
		}
	}
	assert.True(t, found)
}

func TestViewSessionService_StopIsIdempotent(t *testing.T) {
	svc := NewViewSessionService(&stubSource{}, "CordeliaKareAdmin", time.Minute, quietLogger(), nil)
	svc.Stop()
	svc.Stop()
}
