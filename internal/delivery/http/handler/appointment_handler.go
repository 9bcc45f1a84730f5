package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"patient-appointments-bff/internal/delivery/dto"
	"patient-appointments-bff/internal/delivery/http/middleware"
	"patient-appointments-bff/internal/usecase"
	"patient-appointments-bff/internal/viewmodel"
	"patient-appointments-bff/pkg/response"
	"patient-appointments-bff/pkg/validator"
)

type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
	validator          *validator.CustomValidator
}

func NewAppointmentHandler(appointmentUsecase usecase.AppointmentUsecase, validator *validator.CustomValidator) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
		validator:          validator,
	}
}

// GetAppointments returns the current appointment view, loading upcoming on first use
// @Summary Appointment view
// @Tags Appointments
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /appointments [get]
func (h *AppointmentHandler) GetAppointments(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	view, err := h.appointmentUsecase.GetView(r.Context(), session)
	h.write(w, view, err, "Appointments retrieved successfully")
}

// SwitchTab activates the upcoming or past tab
// @Summary Switch tab
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.SwitchTabRequest true "Switch Tab Request"
// @Success 200 {object} response.Response
// @Router /appointments/tab [post]
func (h *AppointmentHandler) SwitchTab(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.SwitchTabRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	view, err := h.appointmentUsecase.SwitchTab(r.Context(), session, &req)
	h.write(w, view, err, "Tab switched successfully")
}

// SelectCategory narrows the active tab to All, Doctor, Hospital or Cancelled
// @Summary Select category
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.SelectCategoryRequest true "Select Category Request"
// @Success 200 {object} response.Response
// @Router /appointments/category [post]
func (h *AppointmentHandler) SelectCategory(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.SelectCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	view, err := h.appointmentUsecase.SelectCategory(r.Context(), session, &req)
	h.write(w, view, err, "Category applied successfully")
}

// FilterPast loads past appointments, optionally inside an inclusive date range
// @Summary Filter past appointments
// @Tags Appointments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.PastRangeRequest true "Past Range Request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /appointments/past [post]
func (h *AppointmentHandler) FilterPast(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.PastRangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	view, err := h.appointmentUsecase.FilterPast(r.Context(), session, &req)
	h.write(w, view, err, "Past appointments retrieved successfully")
}

// Refresh reloads all four appointment lists and resets filters
// @Summary Refresh appointments
// @Tags Appointments
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /appointments/refresh [post]
func (h *AppointmentHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	view, err := h.appointmentUsecase.Refresh(r.Context(), session)
	h.write(w, view, err, "Appointments refreshed successfully")
}

// write sends the view, attaching it to error responses as the last good state
func (h *AppointmentHandler) write(w http.ResponseWriter, view *dto.AppointmentViewResponse, err error, message string) {
	if err == nil {
		response.Success(w, http.StatusOK, message, view)
		return
	}

	switch {
	case errors.Is(err, viewmodel.ErrIncompleteDateRange):
		response.ErrorWithData(w, http.StatusBadRequest, "Please select both dates", nil, view)
	case errors.Is(err, viewmodel.ErrInvalidDateRange):
		response.ErrorWithData(w, http.StatusBadRequest, "From date must not be after to date", nil, view)
	case errors.Is(err, usecase.ErrInvalidDateFormat):
		response.ErrorWithData(w, http.StatusBadRequest, "Invalid date format, use YYYY-MM-DD", nil, view)
	case errors.Is(err, viewmodel.ErrInvalidTab), errors.Is(err, viewmodel.ErrInvalidCategory):
		response.ErrorWithData(w, http.StatusBadRequest, err.Error(), nil, view)
	case errors.Is(err, usecase.ErrSessionNotFound):
		response.Unauthorized(w, "Session not found")
	case errors.Is(err, usecase.ErrBackendUnauthorized):
		response.ErrorWithData(w, http.StatusUnauthorized, "Session expired, please log in again", nil, view)
	case errors.Is(err, usecase.ErrBackendUnavailable):
		response.ErrorWithData(w, http.StatusBadGateway, "Failed to load appointments", nil, view)
	default:
		response.ErrorWithData(w, http.StatusInternalServerError, "Failed to load appointments", nil, view)
	}
}
