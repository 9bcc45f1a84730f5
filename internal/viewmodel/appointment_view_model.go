package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"patient-appointments-bff/internal/domain/entity"
	"patient-appointments-bff/internal/domain/repository"
	"patient-appointments-bff/internal/observability/metrics"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
)

var (
	ErrIncompleteDateRange = errors.New("please select both dates")
	ErrInvalidDateRange    = errors.New("from date must not be after to date")
	ErrInvalidTab          = errors.New("invalid tab")
	ErrInvalidCategory     = errors.New("invalid category")
	// ErrStaleResponse is returned when a newer request for the same slice superseded this one
	ErrStaleResponse = errors.New("response superseded by a newer request")
)

// Slice names one of the four independently fetched server slices.
type Slice string

const (
	SliceUpcomingActive    Slice = "upcoming_active"
	SlicePastActive        Slice = "past_active"
	SliceUpcomingCancelled Slice = "upcoming_cancelled"
	SlicePastCancelled     Slice = "past_cancelled"
)

func activeSlice(tab entity.Tab) Slice {
	if tab == entity.TabPast {
		return SlicePastActive
	}
	return SliceUpcomingActive
}

func cancelledSlice(tab entity.Tab) Slice {
	if tab == entity.TabPast {
		return SlicePastCancelled
	}
	return SliceUpcomingCancelled
}

func tabOf(slice Slice) entity.Tab {
	if slice == SlicePastActive || slice == SlicePastCancelled {
		return entity.TabPast
	}
	return entity.TabUpcoming
}

// cell is the state owned by one slice. gen identifies the most recent request;
// a response carrying an older gen is dropped.
type cell struct {
	items    []entity.Appointment
	loaded   bool
	gen      uint64
	inflight int
}

// Options carries the per-session dependencies of a view model.
type Options struct {
	Source            repository.AppointmentSource
	BearerToken       string
	DoctorAdminTenant string
	Log               *logrus.Logger
	Metrics           *metrics.AppointmentMetrics
}

// AppointmentViewModel reconciles the four appointment slices into the upcoming and past lists.
// The mutex is never held across a backend call.
type AppointmentViewModel struct {
	source       repository.AppointmentSource
	token        string
	doctorTenant string
	log          *logrus.Logger
	metrics      *metrics.AppointmentMetrics

	mu         sync.Mutex
	cells      map[Slice]*cell
	tab        entity.Tab
	categories map[entity.Tab]entity.Category
	// picks counts explicit category selections per tab
	picks      map[entity.Tab]uint64
	dateRange  *entity.DateRange
	displayed  map[entity.Tab][]entity.Appointment
}

// View is an immutable snapshot of what the patient currently sees.
type View struct {
	Tab          entity.Tab
	Category     entity.Category
	DateRange    *entity.DateRange
	Appointments []entity.Appointment
	Loading      bool
	Loaded       bool
}

func New(opts Options) *AppointmentViewModel {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AppointmentViewModel{
		source:       opts.Source,
		token:        opts.BearerToken,
		doctorTenant: opts.DoctorAdminTenant,
		log:          log,
		metrics:      opts.Metrics,
		cells: map[Slice]*cell{
			SliceUpcomingActive:    {},
			SlicePastActive:        {},
			SliceUpcomingCancelled: {},
			SlicePastCancelled:     {},
		},
		tab: entity.TabUpcoming,
		categories: map[entity.Tab]entity.Category{
			entity.TabUpcoming: entity.CategoryAll,
			entity.TabPast:     entity.CategoryAll,
		},
		picks:     map[entity.Tab]uint64{},
		displayed: map[entity.Tab][]entity.Appointment{},
	}
}

// LoadUpcoming fetches active upcoming appointments and resets the upcoming category to All,
// unless a category was selected while the fetch was in flight.
func (vm *AppointmentViewModel) LoadUpcoming(ctx context.Context) error {
	return vm.load(ctx, SliceUpcomingActive, entity.AppointmentQuery{
		Status: entity.AppointmentStatusActive,
		Tab:    entity.BackendTabUpcoming,
	}, func(picked bool) {
		if !picked {
			vm.categories[entity.TabUpcoming] = entity.CategoryAll
		}
	})
}

// LoadPast fetches past appointments, optionally bounded by an inclusive date range.
// Supplying only one bound is rejected before any request is made.
func (vm *AppointmentViewModel) LoadPast(ctx context.Context, from, to *time.Time) error {
	dateRange, err := NewDateRange(from, to)
	if err != nil {
		return err
	}

	query := entity.AppointmentQuery{
		Status: entity.AppointmentStatusActive,
		Tab:    entity.BackendTabPast,
	}
	if dateRange != nil {
		query.Tab = entity.BackendTabCompleted
		query.StartDate = &dateRange.From
		query.EndDate = &dateRange.To
	}

	return vm.load(ctx, SlicePastActive, query, func(picked bool) {
		vm.dateRange = dateRange
		if !picked {
			vm.categories[entity.TabPast] = entity.CategoryAll
		}
	})
}

// LoadCancelled fetches the cancelled slice for a tab. It is kept apart from the active slice.
func (vm *AppointmentViewModel) LoadCancelled(ctx context.Context, scope entity.Tab) error {
	if !scope.Valid() {
		return ErrInvalidTab
	}
	backendTab := entity.BackendTabUpcoming
	if scope == entity.TabPast {
		backendTab = entity.BackendTabPast
	}
	return vm.load(ctx, cancelledSlice(scope), entity.AppointmentQuery{
		Status: entity.AppointmentStatusCancelled,
		Tab:    backendTab,
	}, nil)
}

// ApplyCategoryFilter recomputes the displayed list of a tab from already fetched data.
func (vm *AppointmentViewModel) ApplyCategoryFilter(scope entity.Tab, category entity.Category) ([]entity.Appointment, error) {
	if !scope.Valid() {
		return nil, ErrInvalidTab
	}
	if !category.Valid() {
		return nil, ErrInvalidCategory
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()

	vm.setCategory(scope, category)
	return cloneAppointments(vm.displayed[scope]), nil
}

// SelectCategory applies a category to the active tab, fetching the cancelled slice
// first if it has never been loaded.
func (vm *AppointmentViewModel) SelectCategory(ctx context.Context, category entity.Category) error {
	if !category.Valid() {
		return ErrInvalidCategory
	}

	vm.mu.Lock()
	scope := vm.tab
	needsFetch := category == entity.CategoryCancelled && !vm.cells[cancelledSlice(scope)].loaded
	vm.mu.Unlock()

	var loadErr error
	if needsFetch {
		loadErr = vm.LoadCancelled(ctx, scope)
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.tab != scope {
		// the patient switched tabs during the fetch
		return ErrStaleResponse
	}
	vm.setCategory(scope, category)
	return loadErr
}

// SwitchTab activates a tab, resetting its category to All and clearing the date range.
// In-flight fetches for the tab being left are invalidated.
func (vm *AppointmentViewModel) SwitchTab(tab entity.Tab) error {
	if !tab.Valid() {
		return ErrInvalidTab
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()

	if vm.tab == tab {
		return nil
	}

	left := vm.tab
	vm.cells[activeSlice(left)].gen++
	vm.cells[cancelledSlice(left)].gen++

	vm.tab = tab
	vm.dateRange = nil
	vm.categories[tab] = entity.CategoryAll
	vm.recompute(tab)
	return nil
}

// RefreshAll re-runs the four fetches concurrently. Once all have finished, the date range
// is cleared and both tabs return to the All category, whatever the outcome.
func (vm *AppointmentViewModel) RefreshAll(ctx context.Context) error {
	var (
		wg   conc.WaitGroup
		errs [4]error
	)
	wg.Go(func() { errs[0] = vm.LoadUpcoming(ctx) })
	wg.Go(func() { errs[1] = vm.LoadPast(ctx, nil, nil) })
	wg.Go(func() { errs[2] = vm.LoadCancelled(ctx, entity.TabUpcoming) })
	wg.Go(func() { errs[3] = vm.LoadCancelled(ctx, entity.TabPast) })
	wg.Wait()

	vm.mu.Lock()
	vm.dateRange = nil
	vm.categories[entity.TabUpcoming] = entity.CategoryAll
	vm.categories[entity.TabPast] = entity.CategoryAll
	vm.recompute(entity.TabUpcoming)
	vm.recompute(entity.TabPast)
	vm.mu.Unlock()

	var failures []error
	for _, err := range errs {
		if err != nil && !errors.Is(err, ErrStaleResponse) {
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

// View returns a snapshot of the active tab.
func (vm *AppointmentViewModel) View() View {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	active := vm.cells[activeSlice(vm.tab)]
	cancelled := vm.cells[cancelledSlice(vm.tab)]

	view := View{
		Tab:          vm.tab,
		Category:     vm.categories[vm.tab],
		Appointments: cloneAppointments(vm.displayed[vm.tab]),
		Loading:      active.inflight > 0 || cancelled.inflight > 0,
		Loaded:       active.loaded,
	}
	if view.Category == entity.CategoryCancelled {
		view.Loaded = cancelled.loaded
	}
	if vm.dateRange != nil {
		dr := *vm.dateRange
		view.DateRange = &dr
	}
	return view
}

// Displayed returns the current list of a tab regardless of which tab is active.
func (vm *AppointmentViewModel) Displayed(scope entity.Tab) []entity.Appointment {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return cloneAppointments(vm.displayed[scope])
}

// Raw returns the last successfully fetched contents of a slice.
func (vm *AppointmentViewModel) Raw(slice Slice) []entity.Appointment {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	c, ok := vm.cells[slice]
	if !ok {
		return nil
	}
	return cloneAppointments(c.items)
}

// load runs one slice fetch. On success the slice is replaced and onCommit runs under the lock
// before the tab's displayed list is recomputed; picked reports whether a category was selected
// for the tab while the fetch was in flight. On failure previous data is left untouched.
func (vm *AppointmentViewModel) load(ctx context.Context, slice Slice, query entity.AppointmentQuery, onCommit func(picked bool)) error {
	tab := tabOf(slice)

	vm.mu.Lock()
	c := vm.cells[slice]
	c.gen++
	c.inflight++
	gen := c.gen
	picks := vm.picks[tab]
	vm.mu.Unlock()

	start := time.Now()
	items, err := vm.source.FetchAppointments(ctx, vm.token, query)

	vm.mu.Lock()
	defer vm.mu.Unlock()
	c.inflight--

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	vm.metrics.ObserveFetch(string(slice), outcome, time.Since(start).Seconds())

	if c.gen != gen {
		vm.metrics.ObserveStaleDiscard(string(slice))
		vm.log.Debugf("Discarded stale %s response (gen %d, current %d, err %v)", slice, gen, c.gen, err)
		return ErrStaleResponse
	}

	if err != nil {
		vm.log.Warnf("Failed to load %s appointments: %+v", slice, err)
		return fmt.Errorf("load %s: %w", slice, err)
	}

	SortForTab(tab, items)
	c.items = items
	c.loaded = true
	if onCommit != nil {
		onCommit(vm.picks[tab] != picks)
	}
	vm.recompute(tab)
	return nil
}

// setCategory must be called with mu held.
func (vm *AppointmentViewModel) setCategory(scope entity.Tab, category entity.Category) {
	vm.categories[scope] = category
	vm.picks[scope]++
	vm.recompute(scope)
}

// recompute must be called with mu held.
func (vm *AppointmentViewModel) recompute(scope entity.Tab) {
	var list []entity.Appointment
	switch category := vm.categories[scope]; category {
	case entity.CategoryCancelled:
		list = cloneAppointments(vm.cells[cancelledSlice(scope)].items)
	default:
		list = FilterByTenant(vm.cells[activeSlice(scope)].items, category, vm.doctorTenant)
	}
	SortForTab(scope, list)
	vm.displayed[scope] = list
}

// NewDateRange validates optional bounds. Neither bound yields nil; exactly one is an error.
func NewDateRange(from, to *time.Time) (*entity.DateRange, error) {
	if from == nil && to == nil {
		return nil, nil
	}
	if from == nil || to == nil {
		return nil, ErrIncompleteDateRange
	}
	if from.After(*to) {
		return nil, ErrInvalidDateRange
	}
	return &entity.DateRange{From: *from, To: *to}, nil
}

func cloneAppointments(in []entity.Appointment) []entity.Appointment {
	out := make([]entity.Appointment, len(in))
	copy(out, in)
	return out
}
