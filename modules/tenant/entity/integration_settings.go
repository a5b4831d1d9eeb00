package entity

import (
	"time"

	"fieldsync/core/entity"
	syncEntity "fieldsync/modules/sync/entity"
)

// IntegrationSettings holds one tenant's sync configuration and platform
// credentials. Written by the configuration UI (out of scope); read-mostly
// here.
type IntegrationSettings struct {
	entity.BaseEntity
	TenantID         string `db:"tenant_id" json:"tenant_id"`
	Enabled          bool   `db:"enabled" json:"enabled"`
	SyncAppointments bool   `db:"sync_appointments" json:"sync_appointments"`

	// LocationID scopes all CRM calls for the tenant.
	LocationID        string `db:"location_id" json:"location_id"`
	DefaultCalendarID string `db:"default_calendar_id" json:"default_calendar_id"`

	ConflictResolution syncEntity.ConflictStrategy `db:"conflict_resolution" json:"conflict_resolution"`
	BufferMinutes      int                         `db:"buffer_minutes" json:"buffer_minutes"`

	SourceAPIKey      string     `db:"source_api_key" json:"-"`
	CRMAccessToken    string     `db:"crm_access_token" json:"-"`
	CRMRefreshToken   string     `db:"crm_refresh_token" json:"-"`
	CRMTokenExpiresAt *time.Time `db:"crm_token_expires_at" json:"-"`
}

func (IntegrationSettings) TableName() string {
	return "integration_settings"
}

// Strategy falls back to most_recent_wins when the stored value is empty
// or unrecognized.
func (s *IntegrationSettings) Strategy() syncEntity.ConflictStrategy {
	if s.ConflictResolution.IsValid() {
		return s.ConflictResolution
	}
	return syncEntity.StrategyMostRecentWins
}
