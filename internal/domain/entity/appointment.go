package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CompletionStatus is the backend's tri-state is_completed code
type CompletionStatus int

const (
	CompletionStatusNotCompleted CompletionStatus = 0
	CompletionStatusCompleted    CompletionStatus = 1
	CompletionStatusCancelled    CompletionStatus = 2
)

// Appointment is a booking as returned by the healthcare backend.
// Nested descriptive fields are display-only and passed through untouched.
type Appointment struct {
	ID             AppointmentID    `json:"id"`
	OPDDate        OPDDate          `json:"opd_date"`
	IsCompleted    CompletionStatus `json:"is_completed"`
	TenantUsername string           `json:"tenant_username"`
	HospitalName   string           `json:"hospital_name"`
	Department     json.RawMessage  `json:"department,omitempty"`
	Doctor         json.RawMessage  `json:"doctor,omitempty"`
	Patient        json.RawMessage  `json:"patient,omitempty"`
	HospitalLogo   json.RawMessage  `json:"hospital_logo,omitempty"`
}

// IsCancelled checks if the backend marked the appointment cancelled
func (a *Appointment) IsCancelled() bool {
	return a.IsCompleted == CompletionStatusCancelled
}

// IsDoctorBooking reports whether the booking was authored under the reserved doctor tenant
func (a *Appointment) IsDoctorBooking(doctorAdminTenant string) bool {
	return a.TenantUsername == doctorAdminTenant
}

// AppointmentID is opaque; the backend sends either a number or a string.
type AppointmentID string

func (id *AppointmentID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = AppointmentID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("appointment id: %w", err)
	}
	*id = AppointmentID(n.String())
	return nil
}

// OPDDate is the scheduled slot timestamp
type OPDDate struct {
	time.Time
}

var opdDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

func (d *OPDDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("opd_date: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range opdDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("opd_date: unsupported format %q", s)
}

func (d OPDDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.Format(time.RFC3339))
}
