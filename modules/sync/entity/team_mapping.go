package entity

import "fieldsync/core/entity"

// TeamCalendarMapping routes a Source team/crew to a Target calendar.
// Owned by configuration; read-only to the sync subsystem. At most one
// enabled mapping exists per team per tenant.
type TeamCalendarMapping struct {
	entity.BaseEntity
	TenantID     string `db:"tenant_id" json:"tenant_id"`
	TeamID       string `db:"team_id" json:"team_id"`
	TeamName     string `db:"team_name" json:"team_name"`
	CalendarID   string `db:"calendar_id" json:"calendar_id"`
	CalendarName string `db:"calendar_name" json:"calendar_name"`
	Enabled      bool   `db:"enabled" json:"enabled"`
}

func (TeamCalendarMapping) TableName() string {
	return "team_calendar_mappings"
}
