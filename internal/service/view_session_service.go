package service

import (
	"sync"
	"sync/atomic"
	"time"

	"patient-appointments-bff/internal/domain/entity"
	"patient-appointments-bff/internal/domain/repository"
	"patient-appointments-bff/internal/observability/metrics"
	"patient-appointments-bff/internal/viewmodel"

	"github.com/sirupsen/logrus"
)

const (
	defaultViewIdleTimeout = 30 * time.Minute
	minViewCleanupInterval = time.Second
)

// ViewSessionService keeps one appointment view model per login session.
//
// Views live in memory only. They are dropped on logout or after IdleTimeout
// without a request, by a background loop. Call Stop() during graceful shutdown.
type ViewSessionService struct {
	source       repository.AppointmentSource
	doctorTenant string
	idleTimeout  time.Duration
	log          *logrus.Logger
	metrics      *metrics.AppointmentMetrics

	views sync.Map // map[string]*viewEntry
	count atomic.Int64

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

// viewEntry tracks usage for idle eviction
type viewEntry struct {
	vm       *viewmodel.AppointmentViewModel
	lastUsed atomic.Int64 // Unix nanoseconds
}

func NewViewSessionService(
	source repository.AppointmentSource,
	doctorTenant string,
	idleTimeout time.Duration,
	log *logrus.Logger,
	appointmentMetrics *metrics.AppointmentMetrics,
) *ViewSessionService {
	if idleTimeout <= 0 {
		idleTimeout = defaultViewIdleTimeout
	}
	svc := &ViewSessionService{
		source:       source,
		doctorTenant: doctorTenant,
		idleTimeout:  idleTimeout,
		log:          log,
		metrics:      appointmentMetrics,
		stopChan:     make(chan struct{}),
	}

	svc.wg.Add(1)
	go svc.cleanupLoop()

	return svc
}

// Stop ends the cleanup loop. Safe to call multiple times.
func (s *ViewSessionService) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopChan)
		s.wg.Wait()
		s.log.Info("ViewSessionService stopped")
	}
}

// GetOrCreate returns the view for a session, creating it on first use.
// created reports whether the caller should run the initial load.
func (s *ViewSessionService) GetOrCreate(session *entity.Session) (vm *viewmodel.AppointmentViewModel, created bool) {
	if existing, ok := s.views.Load(session.ID); ok {
		entry := existing.(*viewEntry)
		entry.lastUsed.Store(time.Now().UnixNano())
		return entry.vm, false
	}

	fresh := &viewEntry{vm: viewmodel.New(viewmodel.Options{
		Source:            s.source,
		BearerToken:       session.BackendToken,
		DoctorAdminTenant: s.doctorTenant,
		Log:               s.log,
		Metrics:           s.metrics,
	})}
	fresh.lastUsed.Store(time.Now().UnixNano())

	actual, loaded := s.views.LoadOrStore(session.ID, fresh)
	entry := actual.(*viewEntry)
	if loaded {
		entry.lastUsed.Store(time.Now().UnixNano())
		return entry.vm, false
	}

	s.metrics.SetActiveViews(int(s.count.Add(1)))
	s.log.Debugf("Created appointment view for session %s", session.ID)
	return entry.vm, true
}

// Drop discards the view of a session, if any
func (s *ViewSessionService) Drop(sessionID string) {
	if _, ok := s.views.LoadAndDelete(sessionID); ok {
		s.metrics.SetActiveViews(int(s.count.Add(-1)))
		s.log.Debugf("Dropped appointment view for session %s", sessionID)
	}
}

// Len returns the number of views held in memory
func (s *ViewSessionService) Len() int {
	return int(s.count.Load())
}

func (s *ViewSessionService) cleanupLoop() {
	defer s.wg.Done()

	interval := s.idleTimeout / 2
	if interval < minViewCleanupInterval {
		interval = minViewCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			s.log.Debug("View cleanup goroutine stopping")
			return
		case now := <-ticker.C:
			s.evictIdle(now)
		}
	}
}

// evictIdle removes views unused since now minus idleTimeout and returns how many went
func (s *ViewSessionService) evictIdle(now time.Time) int {
	cutoff := now.Add(-s.idleTimeout).UnixNano()
	var evicted int

	s.views.Range(func(key, value any) bool {
		entry, ok := value.(*viewEntry)
		if !ok {
			return true
		}
		if entry.lastUsed.Load() < cutoff {
			if s.views.CompareAndDelete(key, value) {
				s.count.Add(-1)
				evicted++
			}
		}
		return true
	})

	if evicted > 0 {
		s.metrics.SetActiveViews(s.Len())
		s.log.Debugf("Evicted %d idle appointment views", evicted)
	}
	return evicted
}
