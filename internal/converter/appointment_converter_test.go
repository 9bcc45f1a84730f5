package converter

import (
	"encoding/json"
	"testing"
	"time"

	"patient-appointments-bff/internal/domain/entity"
	"patient-appointments-bff/internal/viewmodel"

	"github.com/stretchr/testify/assert"
)

func TestAppointmentToResponse(t *testing.T) {
	appt := entity.Appointment{
		ID:             "55",
		OPDDate:        entity.OPDDate{Time: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)},
		IsCompleted:    entity.CompletionStatusCancelled,
		TenantUsername: "CordeliaKareAdmin",
		Doctor:         json.RawMessage(`{"name":"Dr. Rao"}`),
	}

	resp := AppointmentToResponse(&appt, "CordeliaKareAdmin")

	assert.Equal(t, "55", resp.ID)
	assert.Equal(t, "2025-06-10T09:00:00Z", resp.OPDDate)
	assert.Equal(t, "cancelled", resp.Status)
	assert.Equal(t, 2, resp.IsCompleted)
	assert.Equal(t, "doctor", resp.BookedBy)
	assert.JSONEq(t, `{"name":"Dr. Rao"}`, string(resp.Doctor))

	resp = AppointmentToResponse(&entity.Appointment{TenantUsername: "CityCare"}, "CordeliaKareAdmin")
	assert.Equal(t, "hospital", resp.BookedBy)
	assert.Equal(t, "scheduled", resp.Status)
	assert.Empty(t, resp.OPDDate)
}

func TestViewToResponse(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	view := viewmodel.View{
		Tab:       entity.TabPast,
		Category:  entity.CategoryHospital,
		DateRange: &entity.DateRange{From: from, To: to},
		Loaded:    true,
		Appointments: []entity.Appointment{
			{ID: "1", IsCompleted: entity.CompletionStatusCompleted},
		},
	}

	resp := ViewToResponse(view, "CordeliaKareAdmin")

	assert.Equal(t, "past", resp.Tab)
	assert.Equal(t, "Hospital", resp.Category)
	assert.Equal(t, "2025-01-01", resp.FromDate)
	assert.Equal(t, "2025-01-31", resp.ToDate)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "completed", resp.Appointments[0].Status)
}

func TestViewToResponse_EmptyListIsNotNull(t *testing.T) {
	resp := ViewToResponse(viewmodel.View{Tab: entity.TabUpcoming, Category: entity.CategoryAll}, "x")

	raw, err := json.Marshal(resp)
	assert.NoError(t, err)
	assert.Contains(t, string(raw), `"appointments":[]`)
}
