package entity

import "time"

// DateLayout is the calendar date format used by date-range filters
const DateLayout = "2006-01-02"

// Tab is the user-facing temporal bucket. Exactly one is active at a time.
type Tab string

const (
	TabUpcoming Tab = "upcoming"
	TabPast     Tab = "past"
)

func (t Tab) Valid() bool {
	return t == TabUpcoming || t == TabPast
}

// Category narrows the displayed list of the active tab.
type Category string

const (
	CategoryAll       Category = "All"
	CategoryDoctor    Category = "Doctor"
	CategoryHospital  Category = "Hospital"
	CategoryCancelled Category = "Cancelled"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryAll, CategoryDoctor, CategoryHospital, CategoryCancelled:
		return true
	}
	return false
}

// AppointmentStatus is the status code sent to the backend
type AppointmentStatus int

const (
	AppointmentStatusActive    AppointmentStatus = 2
	AppointmentStatusCancelled AppointmentStatus = 3
)

// BackendTab is the backend's bucket name. The spelling of "upcomming" is part of the wire contract.
type BackendTab string

const (
	BackendTabUpcoming  BackendTab = "upcomming"
	BackendTabPast      BackendTab = "past"
	BackendTabCompleted BackendTab = "completed"
)

// AppointmentQuery is a domain-level filter for fetching appointments.
// Used by the backend client to avoid coupling with delivery DTOs.
type AppointmentQuery struct {
	Status    AppointmentStatus
	Tab       BackendTab
	StartDate *time.Time
	EndDate   *time.Time
}

// DateRange is an inclusive calendar range; both ends are set or neither.
type DateRange struct {
	From time.Time
	To   time.Time
}
