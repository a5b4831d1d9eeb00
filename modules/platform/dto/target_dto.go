package dto

import "time"

// ========== CRM (Target) DTOs ==========

// CalendarAppointmentFilter narrows calendar appointment listings.
type CalendarAppointmentFilter struct {
	StartDate time.Time
	EndDate   time.Time
}

// CalendarAppointmentPayload carries the writable fields of a CRM calendar
// appointment.
type CalendarAppointmentPayload struct {
	Title          string    `json:"title"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	ContactID      string    `json:"contact_id,omitempty"`
	AssignedUserID string    `json:"assigned_user_id,omitempty"`
	Notes          string    `json:"notes,omitempty"`
}

type CalendarAppointment struct {
	ID string `json:"id"`
}
