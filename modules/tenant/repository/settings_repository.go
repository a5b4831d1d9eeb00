package repository

import (
	"context"
	"database/sql"
	"time"

	"fieldsync/core/database"
	"fieldsync/core/logger"
	"fieldsync/modules/tenant/entity"
)

type SettingsRepository interface {
	GetByTenantID(ctx context.Context, tenantID string) (*entity.IntegrationSettings, error)
	UpdateCRMToken(ctx context.Context, tenantID, accessToken, refreshToken string, expiresAt time.Time) error
}

type settingsRepository struct {
	db database.IDatabase
}

func NewSettingsRepository(db database.IDatabase) SettingsRepository {
	return &settingsRepository{db: db}
}

// GetByTenantID returns nil, nil when the tenant has no settings row.
func (r *settingsRepository) GetByTenantID(ctx context.Context, tenantID string) (*entity.IntegrationSettings, error) {
	query := `
		SELECT id, tenant_id, enabled, sync_appointments, location_id, default_calendar_id,
		       conflict_resolution, buffer_minutes, source_api_key,
		       crm_access_token, crm_refresh_token, crm_token_expires_at,
		       created_at, updated_at
		FROM integration_settings
		WHERE tenant_id = $1
	`

	var settings entity.IntegrationSettings
	err := r.db.GetContext(ctx, &settings, query, tenantID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("SettingsRepository:GetByTenantID", err)
		return nil, err
	}

	return &settings, nil
}

func (r *settingsRepository) UpdateCRMToken(ctx context.Context, tenantID, accessToken, refreshToken string, expiresAt time.Time) error {
	query := `
		UPDATE integration_settings
		SET crm_access_token = $2, crm_refresh_token = $3, crm_token_expires_at = $4, updated_at = NOW()
		WHERE tenant_id = $1
	`
	err := r.db.ExecContext(ctx, query, tenantID, accessToken, refreshToken, expiresAt)
	if err != nil {
		logger.Error("SettingsRepository:UpdateCRMToken", err)
		return err
	}
	return nil
}
