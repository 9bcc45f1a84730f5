package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"patient-appointments-bff/internal/converter"
	"patient-appointments-bff/internal/delivery/dto"
	"patient-appointments-bff/internal/domain/entity"
	"patient-appointments-bff/internal/infrastructure/backend"
	"patient-appointments-bff/internal/service"
	"patient-appointments-bff/internal/viewmodel"

	"github.com/sirupsen/logrus"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrBackendUnauthorized = errors.New("backend rejected the session token")
	ErrBackendUnavailable  = errors.New("healthcare backend unavailable")
	ErrInvalidDateFormat   = errors.New("invalid date format, use YYYY-MM-DD")
)

// AppointmentUsecase drives the per-session appointment view. Every method returns the
// current view, also when it returns an error, so callers can keep showing the last good list.
type AppointmentUsecase interface {
	GetView(ctx context.Context, session *entity.Session) (*dto.AppointmentViewResponse, error)
	SwitchTab(ctx context.Context, session *entity.Session, req *dto.SwitchTabRequest) (*dto.AppointmentViewResponse, error)
	SelectCategory(ctx context.Context, session *entity.Session, req *dto.SelectCategoryRequest) (*dto.AppointmentViewResponse, error)
	FilterPast(ctx context.Context, session *entity.Session, req *dto.PastRangeRequest) (*dto.AppointmentViewResponse, error)
	Refresh(ctx context.Context, session *entity.Session) (*dto.AppointmentViewResponse, error)
}

type appointmentUsecase struct {
	log          *logrus.Logger
	views        *service.ViewSessionService
	auditService service.AuditService
	doctorTenant string
}

func NewAppointmentUsecase(
	log *logrus.Logger,
	views *service.ViewSessionService,
	auditService service.AuditService,
	doctorTenant string,
) AppointmentUsecase {
	return &appointmentUsecase{
		log:          log,
		views:        views,
		auditService: auditService,
		doctorTenant: doctorTenant,
	}
}

func (u *appointmentUsecase) GetView(ctx context.Context, session *entity.Session) (*dto.AppointmentViewResponse, error) {
	if session == nil {
		return nil, ErrSessionNotFound
	}
	vm, _ := u.views.GetOrCreate(session)
	return u.respond(vm, u.ensureLoaded(ctx, vm))
}

func (u *appointmentUsecase) SwitchTab(ctx context.Context, session *entity.Session, req *dto.SwitchTabRequest) (*dto.AppointmentViewResponse, error) {
	if session == nil {
		return nil, ErrSessionNotFound
	}
	vm, _ := u.views.GetOrCreate(session)

	tab := entity.Tab(req.Tab)
	if err := vm.SwitchTab(tab); err != nil {
		return u.respond(vm, err)
	}

	var err error
	if tab == entity.TabPast {
		err = vm.LoadPast(ctx, nil, nil)
	} else {
		err = vm.LoadUpcoming(ctx)
	}
	return u.respond(vm, err)
}

func (u *appointmentUsecase) SelectCategory(ctx context.Context, session *entity.Session, req *dto.SelectCategoryRequest) (*dto.AppointmentViewResponse, error) {
	if session == nil {
		return nil, ErrSessionNotFound
	}
	vm, _ := u.views.GetOrCreate(session)

	category := entity.Category(req.Category)
	if !category.Valid() {
		return u.respond(vm, viewmodel.ErrInvalidCategory)
	}

	// the first load of a tab resets its category, so it must commit before the selection
	loadErr := u.ensureLoaded(ctx, vm)
	if err := vm.SelectCategory(ctx, category); err != nil {
		return u.respond(vm, err)
	}
	return u.respond(vm, loadErr)
}

func (u *appointmentUsecase) FilterPast(ctx context.Context, session *entity.Session, req *dto.PastRangeRequest) (*dto.AppointmentViewResponse, error) {
	if session == nil {
		return nil, ErrSessionNotFound
	}
	vm, _ := u.views.GetOrCreate(session)

	from, err := parseOptionalDate(req.FromDate)
	if err != nil {
		return u.respond(vm, err)
	}
	to, err := parseOptionalDate(req.ToDate)
	if err != nil {
		return u.respond(vm, err)
	}

	// validate before switching so a rejected range leaves the view untouched
	if _, err := viewmodel.NewDateRange(from, to); err != nil {
		return u.respond(vm, err)
	}
	if err := vm.SwitchTab(entity.TabPast); err != nil {
		return u.respond(vm, err)
	}
	return u.respond(vm, vm.LoadPast(ctx, from, to))
}

func (u *appointmentUsecase) Refresh(ctx context.Context, session *entity.Session) (*dto.AppointmentViewResponse, error) {
	if session == nil {
		return nil, ErrSessionNotFound
	}
	vm, _ := u.views.GetOrCreate(session)

	err := vm.RefreshAll(ctx)
	if err != nil {
		u.log.Warnf("Failed to refresh all appointments for session %s: %+v", session.ID, err)
	}

	// audit failures are logged by the service
	_ = u.auditService.LogEvent(ctx, &session.UserID, session.ID, entity.AuditActionAppointmentsRefresh, entity.JSON{
		"failed": err != nil,
	})

	return u.respond(vm, err)
}

// ensureLoaded fetches whatever backs the current tab and category if it has never loaded.
func (u *appointmentUsecase) ensureLoaded(ctx context.Context, vm *viewmodel.AppointmentViewModel) error {
	view := vm.View()
	if view.Loaded {
		return nil
	}

	switch {
	case view.Category == entity.CategoryCancelled:
		return vm.LoadCancelled(ctx, view.Tab)
	case view.Tab == entity.TabPast:
		return vm.LoadPast(ctx, nil, nil)
	default:
		return vm.LoadUpcoming(ctx)
	}
}

func (u *appointmentUsecase) respond(vm *viewmodel.AppointmentViewModel, err error) (*dto.AppointmentViewResponse, error) {
	resp := converter.ViewToResponse(vm.View(), u.doctorTenant)
	if err == nil || errors.Is(err, viewmodel.ErrStaleResponse) {
		return resp, nil
	}
	return resp, translateBackendError(err)
}

func translateBackendError(err error) error {
	var statusErr *backend.StatusError
	switch {
	case errors.Is(err, viewmodel.ErrIncompleteDateRange),
		errors.Is(err, viewmodel.ErrInvalidDateRange),
		errors.Is(err, viewmodel.ErrInvalidTab),
		errors.Is(err, viewmodel.ErrInvalidCategory),
		errors.Is(err, ErrInvalidDateFormat):
		return err
	case errors.Is(err, backend.ErrMissingToken):
		return fmt.Errorf("%w: %v", ErrBackendUnauthorized, err)
	case errors.As(err, &statusErr) &&
		(statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden):
		return fmt.Errorf("%w: %v", ErrBackendUnauthorized, err)
	default:
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
}

func parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(entity.DateLayout, value)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}
	return &t, nil
}
