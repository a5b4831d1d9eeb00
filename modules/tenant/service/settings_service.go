package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fieldsync/core/cache"
	"fieldsync/core/constants"
	"fieldsync/core/errors"
	"fieldsync/core/logger"
	"fieldsync/modules/tenant/entity"
	"fieldsync/modules/tenant/repository"
)

type SettingsService interface {
	GetSettings(ctx context.Context, tenantID string) (*entity.IntegrationSettings, *errors.AppError)
	UpdateCRMToken(ctx context.Context, tenantID, accessToken, refreshToken string, expiresAt time.Time) *errors.AppError
	Invalidate(ctx context.Context, tenantID string)
}

type settingsService struct {
	repo  repository.SettingsRepository
	cache cache.Cache
}

func NewSettingsService(repo repository.SettingsRepository, c cache.Cache) SettingsService {
	return &settingsService{
		repo:  repo,
		cache: c,
	}
}

func settingsCacheKey(tenantID string) string {
	return fmt.Sprintf("tenant:settings:%s", tenantID)
}

// GetSettings reads the tenant's integration settings, serving from the
// cache when fresh.
func (s *settingsService) GetSettings(ctx context.Context, tenantID string) (*entity.IntegrationSettings, *errors.AppError) {
	if cached, err := s.cache.Get(ctx, settingsCacheKey(tenantID)); err == nil {
		var settings entity.IntegrationSettings
		if jsonErr := json.Unmarshal([]byte(cached), &settings); jsonErr == nil {
			return &settings, nil
		}
		// Unreadable cache entry; fall through to the database.
		_ = s.cache.Del(ctx, settingsCacheKey(tenantID))
	}

	settings, err := s.repo.GetByTenantID(ctx, tenantID)
	if err != nil {
		logger.Error("SettingsService:GetSettings:Error", "tenant_id", tenantID, "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load integration settings", err)
	}
	if settings == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "integration settings not found for tenant", nil)
	}

	if payload, jsonErr := json.Marshal(settings); jsonErr == nil {
		if cacheErr := s.cache.Set(ctx, settingsCacheKey(tenantID), string(payload), constants.SettingsCacheTTL); cacheErr != nil {
			logger.Warn("SettingsService:GetSettings:CacheSet:Error", "tenant_id", tenantID, "error", cacheErr)
		}
	}

	return settings, nil
}

func (s *settingsService) UpdateCRMToken(ctx context.Context, tenantID, accessToken, refreshToken string, expiresAt time.Time) *errors.AppError {
	if err := s.repo.UpdateCRMToken(ctx, tenantID, accessToken, refreshToken, expiresAt); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to persist refreshed token", err)
	}
	s.Invalidate(ctx, tenantID)
	return nil
}

func (s *settingsService) Invalidate(ctx context.Context, tenantID string) {
	if err := s.cache.Del(ctx, settingsCacheKey(tenantID)); err != nil {
		logger.Warn("SettingsService:Invalidate:Error", "tenant_id", tenantID, "error", err)
	}
}
