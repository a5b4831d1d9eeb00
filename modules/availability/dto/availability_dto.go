package dto

import "time"

// OverlapType classifies how a candidate interval collides with a booking.
type OverlapType string

const (
	// OverlapFull: one interval entirely contains the other.
	OverlapFull OverlapType = "full"
	// OverlapPartial: the intervals intersect without containment.
	OverlapPartial OverlapType = "partial"
	// OverlapAdjacent: the intervals do not touch, but the gap between them
	// is within the buffer.
	OverlapAdjacent OverlapType = "adjacent"
)

// AppointmentSlot is a booked interval on a team's schedule.
type AppointmentSlot struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	TeamID    string    `json:"team_id,omitempty"`
}

// SlotConflict is one collision between the candidate interval and a booking.
type SlotConflict struct {
	Slot         AppointmentSlot `json:"slot"`
	OverlapType  OverlapType     `json:"overlap_type"`
	OverlapStart time.Time       `json:"overlap_start"`
	OverlapEnd   time.Time       `json:"overlap_end"`
}

// OverlapResult is the outcome of checking one candidate interval against a
// set of bookings.
type OverlapResult struct {
	HasConflict bool           `json:"has_conflict"`
	Conflicts   []SlotConflict `json:"conflicts"`
}

// TeamRef identifies a team in availability responses.
type TeamRef struct {
	TeamID   string `json:"team_id"`
	TeamName string `json:"team_name,omitempty"`
}

// TeamConflict attaches a conflict to the team that owns the booking.
type TeamConflict struct {
	TeamID       string          `json:"team_id"`
	TeamName     string          `json:"team_name,omitempty"`
	Slot         AppointmentSlot `json:"slot"`
	OverlapType  OverlapType     `json:"overlap_type"`
	OverlapStart time.Time       `json:"overlap_start"`
	OverlapEnd   time.Time       `json:"overlap_end"`
}

// AvailabilityResult is computed fresh per request; never persisted.
// Available is tenant-wide and informational: callers needing a specific
// team must check AvailableTeams membership.
type AvailabilityResult struct {
	Available      bool           `json:"available"`
	Conflicts      []TeamConflict `json:"conflicts"`
	AvailableTeams []TeamRef      `json:"available_teams"`
}

// TeamAvailability scopes an availability check to one team.
type TeamAvailability struct {
	TeamID    string         `json:"team_id"`
	TeamName  string         `json:"team_name,omitempty"`
	Available bool           `json:"available"`
	Conflicts []SlotConflict `json:"conflicts"`
}

// OpenSlot is a bookable gap suggestion.
type OpenSlot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// ========== Requests ==========

type CheckAvailabilityRequest struct {
	StartTime     string   `json:"start_time" validate:"required"` // RFC3339
	EndTime       string   `json:"end_time" validate:"required"`   // RFC3339
	ExcludeIDs    []string `json:"exclude_ids,omitempty"`
	BufferMinutes int      `json:"buffer_minutes"`
}

type TeamAvailabilityRequest struct {
	StartTime     string `json:"start_time" validate:"required"`
	EndTime       string `json:"end_time" validate:"required"`
	ExcludeID     string `json:"exclude_id,omitempty"`
	BufferMinutes int    `json:"buffer_minutes"`
}

type FindOpenSlotsRequest struct {
	RangeStart          string `json:"range_start" validate:"required"`
	RangeEnd            string `json:"range_end" validate:"required"`
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
	BufferMinutes       int    `json:"buffer_minutes"`
	TeamID              string `json:"team_id,omitempty"`
}

type FindOpenSlotsResponse struct {
	Slots []OpenSlot `json:"slots"`
}
