package dto

import "time"

// Appointment is the normalized shape both platforms' payloads are resolved
// into before any sync logic runs. Field resolution happens in the mapper
// package; nothing downstream touches raw payload keys.
type Appointment struct {
	ID            string    `json:"id"`
	Title         string    `json:"title,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	TeamID        string    `json:"team_id,omitempty"`
	AssigneeID    string    `json:"assignee_id,omitempty"`
	CalendarID    string    `json:"calendar_id,omitempty"`
	ContactID     string    `json:"contact_id,omitempty"`
	CustomerName  string    `json:"customer_name,omitempty"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	CustomerPhone string    `json:"customer_phone,omitempty"`
	Address       string    `json:"address,omitempty"`
	// LastModified is zero when the platform did not report one.
	LastModified time.Time `json:"last_modified,omitempty"`
}

// Team is a schedulable crew on the field-service backend.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}
