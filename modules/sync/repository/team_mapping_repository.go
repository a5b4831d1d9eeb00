package repository

import (
	"context"
	"database/sql"

	"fieldsync/core/database"
	"fieldsync/core/logger"
	"fieldsync/modules/sync/entity"
)

const teamMappingColumns = `
	id, tenant_id, team_id, team_name, calendar_id, calendar_name, enabled,
	created_at, updated_at
`

// TeamMappingRepository reads the team->calendar routing table. The sync
// subsystem never writes mappings; configuration owns them.
type TeamMappingRepository struct {
	DB database.IDatabase
}

func NewTeamMappingRepository(db database.IDatabase) *TeamMappingRepository {
	return &TeamMappingRepository{DB: db}
}

type TeamMappingRepositoryInterface interface {
	ListEnabledByTenant(ctx context.Context, tenantID string) ([]entity.TeamCalendarMapping, error)
	GetByTeamID(ctx context.Context, tenantID, teamID string) (*entity.TeamCalendarMapping, error)
	GetByCalendarID(ctx context.Context, tenantID, calendarID string) (*entity.TeamCalendarMapping, error)
}

func (r *TeamMappingRepository) ListEnabledByTenant(ctx context.Context, tenantID string) ([]entity.TeamCalendarMapping, error) {
	query := `SELECT ` + teamMappingColumns + `
		FROM team_calendar_mappings
		WHERE tenant_id = $1 AND enabled = TRUE
		ORDER BY team_name ASC`

	mappings := []entity.TeamCalendarMapping{}
	if err := r.DB.SelectContext(ctx, &mappings, query, tenantID); err != nil {
		logger.Error("TeamMappingRepository:ListEnabledByTenant", err)
		return nil, err
	}
	return mappings, nil
}

func (r *TeamMappingRepository) GetByTeamID(ctx context.Context, tenantID, teamID string) (*entity.TeamCalendarMapping, error) {
	query := `SELECT ` + teamMappingColumns + `
		FROM team_calendar_mappings
		WHERE tenant_id = $1 AND team_id = $2 AND enabled = TRUE`

	var mapping entity.TeamCalendarMapping
	err := r.DB.GetContext(ctx, &mapping, query, tenantID, teamID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("TeamMappingRepository:GetByTeamID", err)
		return nil, err
	}
	return &mapping, nil
}

func (r *TeamMappingRepository) GetByCalendarID(ctx context.Context, tenantID, calendarID string) (*entity.TeamCalendarMapping, error) {
	query := `SELECT ` + teamMappingColumns + `
		FROM team_calendar_mappings
		WHERE tenant_id = $1 AND calendar_id = $2 AND enabled = TRUE`

	var mapping entity.TeamCalendarMapping
	err := r.DB.GetContext(ctx, &mapping, query, tenantID, calendarID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("TeamMappingRepository:GetByCalendarID", err)
		return nil, err
	}
	return &mapping, nil
}
