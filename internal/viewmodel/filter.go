package viewmodel

import (
	"slices"

	"patient-appointments-bff/internal/domain/entity"
)

// SortForTab orders in place: upcoming soonest first, past most recent first.
func SortForTab(tab entity.Tab, appointments []entity.Appointment) {
	slices.SortStableFunc(appointments, func(a, b entity.Appointment) int {
		if tab == entity.TabPast {
			return b.OPDDate.Compare(a.OPDDate.Time)
		}
		return a.OPDDate.Compare(b.OPDDate.Time)
	})
}

// FilterByTenant splits on the reserved doctor tenant. Doctor keeps matches, Hospital keeps the rest.
// Any other category returns a copy of the input.
func FilterByTenant(appointments []entity.Appointment, category entity.Category, doctorAdminTenant string) []entity.Appointment {
	out := make([]entity.Appointment, 0, len(appointments))
	for _, a := range appointments {
		switch category {
		case entity.CategoryDoctor:
			if !a.IsDoctorBooking(doctorAdminTenant) {
				continue
			}
		case entity.CategoryHospital:
			if a.IsDoctorBooking(doctorAdminTenant) {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}
