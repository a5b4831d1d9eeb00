package dto

import "time"

// ========== Field-service backend (Source) DTOs ==========

// AppointmentFilter narrows appointment listings.
type AppointmentFilter struct {
	StartDate time.Time
	EndDate   time.Time
	// TeamID limits the listing to one crew when set.
	TeamID string
	// LeadID / QuoteID limit the listing to one booking chain when set.
	LeadID  string
	QuoteID string
}

// SourceAppointmentPayload carries the writable fields of a Source appointment.
type SourceAppointmentPayload struct {
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	TeamID     string    `json:"team_id,omitempty"`
	AssigneeID string    `json:"assignee_id,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

// LeadPayload carries the contact fields used to find or create a lead.
type LeadPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type Lead struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// QuotePayload creates a quote/work-order linked to a lead.
type QuotePayload struct {
	LeadID      string `json:"lead_id"`
	Reference   string `json:"reference"`
	ServiceType string `json:"service_type"`
	Notes       string `json:"notes,omitempty"`
}

type Quote struct {
	ID string `json:"id"`
}

// PricePayload asks the backend to price a quote for a concrete interval.
// A rejection means the slot is not bookable.
type PricePayload struct {
	QuoteID   string    `json:"quote_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	TeamID    string    `json:"team_id,omitempty"`
}

// BookQuotePayload finalizes a quote into a real appointment.
type BookQuotePayload struct {
	QuoteID    string    `json:"quote_id"`
	LeadID     string    `json:"lead_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	TeamID     string    `json:"team_id,omitempty"`
	AssigneeID string    `json:"assignee_id,omitempty"`
}

// Booking is the result of booking a quote. AppointmentID can be empty;
// some backend versions only return it from a follow-up listing.
type Booking struct {
	AppointmentID string `json:"appointment_id,omitempty"`
}
