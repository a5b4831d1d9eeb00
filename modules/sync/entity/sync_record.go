package entity

import (
	"time"

	"fieldsync/core/entity"
)

// SyncDirection records which way the last push went.
type SyncDirection string

const (
	DirectionSourceToTarget SyncDirection = "source_to_target"
	DirectionTargetToSource SyncDirection = "target_to_source"
	DirectionBidirectional  SyncDirection = "bidirectional"
)

// ConflictStrategy decides which side wins when both changed since last sync.
type ConflictStrategy string

const (
	StrategySourceWins     ConflictStrategy = "source_wins"
	StrategyTargetWins     ConflictStrategy = "target_wins"
	StrategyMostRecentWins ConflictStrategy = "most_recent_wins"
)

func (s ConflictStrategy) IsValid() bool {
	switch s {
	case StrategySourceWins, StrategyTargetWins, StrategyMostRecentWins:
		return true
	default:
		return false
	}
}

// LinkState makes the record's implicit state explicit instead of leaving
// callers to interpret which id pointers happen to be set.
type LinkState string

const (
	LinkStateUnlinked   LinkState = "unlinked"
	LinkStateSourceOnly LinkState = "source_only"
	LinkStateTargetOnly LinkState = "target_only"
	LinkStateLinked     LinkState = "linked"
)

// SyncRecord is the durable link between one Source appointment and one
// Target appointment. Created on first successful push, updated on every
// subsequent push or conflict resolution, never deleted automatically.
type SyncRecord struct {
	entity.BaseEntity
	TenantID            string           `db:"tenant_id" json:"tenant_id"`
	SourceAppointmentID *string          `db:"source_appointment_id" json:"source_appointment_id,omitempty"`
	TargetAppointmentID *string          `db:"target_appointment_id" json:"target_appointment_id,omitempty"`
	TargetCalendarID    *string          `db:"target_calendar_id" json:"target_calendar_id,omitempty"`
	TeamID              *string          `db:"team_id" json:"team_id,omitempty"`
	AssigneeID          *string          `db:"assignee_id" json:"assignee_id,omitempty"`
	SourceLastModified  *time.Time       `db:"source_last_modified" json:"source_last_modified,omitempty"`
	TargetLastModified  *time.Time       `db:"target_last_modified" json:"target_last_modified,omitempty"`
	SyncDirection       SyncDirection    `db:"sync_direction" json:"sync_direction"`
	ConflictResolution  ConflictStrategy `db:"conflict_resolution" json:"conflict_resolution"`
	// OrphanedAt marks records whose appointment disappeared from both
	// platforms inside the reconciliation window. Deletion is never
	// propagated; the marker is diagnostic.
	OrphanedAt *time.Time `db:"orphaned_at" json:"orphaned_at,omitempty"`
}

func (r *SyncRecord) TableName() string {
	return "sync_records"
}

func (r *SyncRecord) LinkState() LinkState {
	hasSource := r.SourceAppointmentID != nil && *r.SourceAppointmentID != ""
	hasTarget := r.TargetAppointmentID != nil && *r.TargetAppointmentID != ""

	switch {
	case hasSource && hasTarget:
		return LinkStateLinked
	case hasSource:
		return LinkStateSourceOnly
	case hasTarget:
		return LinkStateTargetOnly
	default:
		return LinkStateUnlinked
	}
}
