package dto

import (
	"encoding/json"
)

// Request DTOs

type SwitchTabRequest struct {
	Tab string `json:"tab" validate:"required,oneof=upcoming past"`
}

type SelectCategoryRequest struct {
	Category string `json:"category" validate:"required,oneof=All Doctor Hospital Cancelled"`
}

// PastRangeRequest filters the past tab. Both dates or neither must be sent.
type PastRangeRequest struct {
	FromDate string `json:"from_date" validate:"omitempty,datetime=2006-01-02"`
	ToDate   string `json:"to_date" validate:"omitempty,datetime=2006-01-02"`
}

// Response DTOs

type AppointmentResponse struct {
	ID             string          `json:"id"`
	OPDDate        string          `json:"opd_date"`
	IsCompleted    int             `json:"is_completed"`
	Status         string          `json:"status"`
	BookedBy       string          `json:"booked_by"`
	TenantUsername string          `json:"tenant_username,omitempty"`
	HospitalName   string          `json:"hospital_name,omitempty"`
	Department     json.RawMessage `json:"department,omitempty"`
	Doctor         json.RawMessage `json:"doctor,omitempty"`
	Patient        json.RawMessage `json:"patient,omitempty"`
	HospitalLogo   json.RawMessage `json:"hospital_logo,omitempty"`
}

// AppointmentViewResponse is what the appointments page renders
type AppointmentViewResponse struct {
	Tab          string                `json:"tab"`
	Category     string                `json:"category"`
	FromDate     string                `json:"from_date,omitempty"`
	ToDate       string                `json:"to_date,omitempty"`
	Loading      bool                  `json:"loading"`
	Loaded       bool                  `json:"loaded"`
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}
