package repository

import (
	"context"

	"patient-appointments-bff/internal/domain/entity"
)

// AppointmentSource fetches appointment slices from the healthcare backend.
type AppointmentSource interface {
	FetchAppointments(ctx context.Context, bearerToken string, query entity.AppointmentQuery) ([]entity.Appointment, error)
}
