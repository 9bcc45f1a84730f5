package converter

import (
	"time"

	"patient-appointments-bff/internal/delivery/dto"
	"patient-appointments-bff/internal/domain/entity"
	"patient-appointments-bff/internal/viewmodel"
)

const (
	bookedByDoctor   = "doctor"
	bookedByHospital = "hospital"
)

// AppointmentToResponse converts an Appointment to AppointmentResponse DTO
func AppointmentToResponse(appt *entity.Appointment, doctorAdminTenant string) dto.AppointmentResponse {
	bookedBy := bookedByHospital
	if appt.IsDoctorBooking(doctorAdminTenant) {
		bookedBy = bookedByDoctor
	}

	var opdDate string
	if !appt.OPDDate.IsZero() {
		opdDate = appt.OPDDate.Format(time.RFC3339)
	}

	return dto.AppointmentResponse{
		ID:             string(appt.ID),
		OPDDate:        opdDate,
		IsCompleted:    int(appt.IsCompleted),
		Status:         completionStatusName(appt.IsCompleted),
		BookedBy:       bookedBy,
		TenantUsername: appt.TenantUsername,
		HospitalName:   appt.HospitalName,
		Department:     appt.Department,
		Doctor:         appt.Doctor,
		Patient:        appt.Patient,
		HospitalLogo:   appt.HospitalLogo,
	}
}

// ViewToResponse converts a view model snapshot to AppointmentViewResponse DTO
func ViewToResponse(view viewmodel.View, doctorAdminTenant string) *dto.AppointmentViewResponse {
	appointments := make([]dto.AppointmentResponse, len(view.Appointments))
	for i := range view.Appointments {
		appointments[i] = AppointmentToResponse(&view.Appointments[i], doctorAdminTenant)
	}

	resp := &dto.AppointmentViewResponse{
		Tab:          string(view.Tab),
		Category:     string(view.Category),
		Loading:      view.Loading,
		Loaded:       view.Loaded,
		Appointments: appointments,
		Total:        len(appointments),
	}
	if view.DateRange != nil {
		resp.FromDate = view.DateRange.From.Format(entity.DateLayout)
		resp.ToDate = view.DateRange.To.Format(entity.DateLayout)
	}
	return resp
}

func completionStatusName(status entity.CompletionStatus) string {
	switch status {
	case entity.CompletionStatusCompleted:
		return "completed"
	case entity.CompletionStatusCancelled:
		return "cancelled"
	default:
		return "scheduled"
	}
}
