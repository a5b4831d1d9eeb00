package dto

import "fieldsync/modules/sync/entity"

// SyncAction says what a single sync pass did with one appointment.
type SyncAction string

const (
	ActionCreated SyncAction = "created"
	ActionUpdated SyncAction = "updated"
	ActionSkipped SyncAction = "skipped"
)

// SyncResult is the per-appointment outcome. Sync operations report
// failures through this shape instead of raising; Error is empty on
// success.
type SyncResult struct {
	Success             bool       `json:"success"`
	Action              SyncAction `json:"action,omitempty"`
	SourceAppointmentID string     `json:"source_appointment_id,omitempty"`
	TargetAppointmentID string     `json:"target_appointment_id,omitempty"`
	Error               string     `json:"error,omitempty"`
}

// SyncSummary aggregates a reconciliation pass.
type SyncSummary struct {
	Synced  int          `json:"synced"`
	Errors  int          `json:"errors"`
	Results []SyncResult `json:"results"`
}

// ========== Requests ==========

// SyncSourceToTargetRequest carries one raw Source appointment payload.
// Keys go through alias resolution; no fixed shape is assumed here.
type SyncSourceToTargetRequest struct {
	Appointment map[string]any `json:"appointment" validate:"required"`
}

// SyncTargetToSourceRequest carries one raw Target calendar payload.
type SyncTargetToSourceRequest struct {
	Appointment map[string]any `json:"appointment" validate:"required"`
	// CalendarID says which calendar the payload came from; used for team
	// routing on the way into the Source.
	CalendarID string `json:"calendar_id,omitempty"`
}

// SyncAllRequest scopes a reconciliation pass.
type SyncAllRequest struct {
	// TeamID limits the pass to one team's mapping when set.
	TeamID string `json:"team_id,omitempty"`
}

// ResolveConflictRequest forces a resolution on one linked record.
type ResolveConflictRequest struct {
	SourceAppointmentID string `json:"source_appointment_id" validate:"required"`
	// Strategy overrides the tenant's configured one when set.
	Strategy entity.ConflictStrategy `json:"strategy,omitempty"`
}

// ConflictResolution reports which side won and what was pushed.
type ConflictResolution struct {
	Winner              string     `json:"winner"` // "source" or "target"
	Strategy            string     `json:"strategy"`
	SourceAppointmentID string     `json:"source_appointment_id,omitempty"`
	TargetAppointmentID string     `json:"target_appointment_id,omitempty"`
	Action              SyncAction `json:"action"`
}

// SyncRecordItem is the list-view projection of a sync record.
type SyncRecordItem struct {
	entity.SyncRecord
	LinkState entity.LinkState `json:"link_state"`
}

// SyncRecordList is a paginated sync record listing.
type SyncRecordList struct {
	Records []SyncRecordItem `json:"records"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
	Total   int              `json:"total"`
}
