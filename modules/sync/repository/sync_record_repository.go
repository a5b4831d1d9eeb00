package repository

import (
	"context"
	"database/sql"
	"time"

	"fieldsync/core/database"
	"fieldsync/core/logger"
	"fieldsync/core/params"
	"fieldsync/modules/sync/entity"

	"github.com/google/uuid"
)

const syncRecordColumns = `
	id, tenant_id, source_appointment_id, target_appointment_id,
	target_calendar_id, team_id, assignee_id,
	source_last_modified, target_last_modified,
	sync_direction, conflict_resolution, orphaned_at,
	created_at, updated_at
`

// SyncRecordRepository persists the Source<->Target appointment links.
type SyncRecordRepository struct {
	DB database.IDatabase
}

func NewSyncRecordRepository(db database.IDatabase) *SyncRecordRepository {
	return &SyncRecordRepository{DB: db}
}

type SyncRecordRepositoryInterface interface {
	GetBySourceID(ctx context.Context, tenantID, sourceAppointmentID string) (*entity.SyncRecord, error)
	GetByTargetID(ctx context.Context, tenantID, targetAppointmentID string) (*entity.SyncRecord, error)
	Upsert(ctx context.Context, record *entity.SyncRecord) (*entity.SyncRecord, error)
	ListByTenant(ctx context.Context, tenantID string, p params.QueryParams) ([]entity.SyncRecord, int, error)
	ListAllByTenant(ctx context.Context, tenantID string) ([]entity.SyncRecord, error)
	MarkOrphaned(ctx context.Context, tenantID string, recordID uuid.UUID, at time.Time) error
}

func (r *SyncRecordRepository) GetBySourceID(ctx context.Context, tenantID, sourceAppointmentID string) (*entity.SyncRecord, error) {
	query := `SELECT ` + syncRecordColumns + `
		FROM sync_records
		WHERE tenant_id = $1 AND source_appointment_id = $2`

	var record entity.SyncRecord
	err := r.DB.GetContext(ctx, &record, query, tenantID, sourceAppointmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("SyncRecordRepository:GetBySourceID", err)
		return nil, err
	}
	return &record, nil
}

func (r *SyncRecordRepository) GetByTargetID(ctx context.Context, tenantID, targetAppointmentID string) (*entity.SyncRecord, error) {
	query := `SELECT ` + syncRecordColumns + `
		FROM sync_records
		WHERE tenant_id = $1 AND target_appointment_id = $2`

	var record entity.SyncRecord
	err := r.DB.GetContext(ctx, &record, query, tenantID, targetAppointmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("SyncRecordRepository:GetByTargetID", err)
		return nil, err
	}
	return &record, nil
}

// Upsert inserts a new record or rewrites an existing one by primary key.
// Re-syncing the same appointment pair always lands on the same row.
func (r *SyncRecordRepository) Upsert(ctx context.Context, record *entity.SyncRecord) (*entity.SyncRecord, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	query := `
		INSERT INTO sync_records (
			id, tenant_id, source_appointment_id, target_appointment_id,
			target_calendar_id, team_id, assignee_id,
			source_last_modified, target_last_modified,
			sync_direction, conflict_resolution, orphaned_at,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			source_appointment_id = EXCLUDED.source_appointment_id,
			target_appointment_id = EXCLUDED.target_appointment_id,
			target_calendar_id    = EXCLUDED.target_calendar_id,
			team_id               = EXCLUDED.team_id,
			assignee_id           = EXCLUDED.assignee_id,
			source_last_modified  = EXCLUDED.source_last_modified,
			target_last_modified  = EXCLUDED.target_last_modified,
			sync_direction        = EXCLUDED.sync_direction,
			conflict_resolution   = EXCLUDED.conflict_resolution,
			orphaned_at           = EXCLUDED.orphaned_at,
			updated_at            = NOW()
		RETURNING ` + syncRecordColumns

	var saved entity.SyncRecord
	err := r.DB.GetContext(ctx, &saved, query,
		record.ID, record.TenantID, record.SourceAppointmentID, record.TargetAppointmentID,
		record.TargetCalendarID, record.TeamID, record.AssigneeID,
		record.SourceLastModified, record.TargetLastModified,
		record.SyncDirection, record.ConflictResolution, record.OrphanedAt)
	if err != nil {
		logger.Error("SyncRecordRepository:Upsert", err)
		return nil, err
	}
	return &saved, nil
}

func (r *SyncRecordRepository) ListByTenant(ctx context.Context, tenantID string, p params.QueryParams) ([]entity.SyncRecord, int, error) {
	var total int
	if err := r.DB.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM sync_records WHERE tenant_id = $1`, tenantID); err != nil {
		logger.Error("SyncRecordRepository:ListByTenant:Count", err)
		return nil, 0, err
	}

	query := `SELECT ` + syncRecordColumns + `
		FROM sync_records
		WHERE tenant_id = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3`

	records := []entity.SyncRecord{}
	if err := r.DB.SelectContext(ctx, &records, query, tenantID, p.Limit, p.Offset()); err != nil {
		logger.Error("SyncRecordRepository:ListByTenant", err)
		return nil, 0, err
	}
	return records, total, nil
}

// ListAllByTenant loads every record for a reconciliation snapshot.
func (r *SyncRecordRepository) ListAllByTenant(ctx context.Context, tenantID string) ([]entity.SyncRecord, error) {
	query := `SELECT ` + syncRecordColumns + `
		FROM sync_records
		WHERE tenant_id = $1`

	records := []entity.SyncRecord{}
	if err := r.DB.SelectContext(ctx, &records, query, tenantID); err != nil {
		logger.Error("SyncRecordRepository:ListAllByTenant", err)
		return nil, err
	}
	return records, nil
}

func (r *SyncRecordRepository) MarkOrphaned(ctx context.Context, tenantID string, recordID uuid.UUID, at time.Time) error {
	query := `UPDATE sync_records
		SET orphaned_at = $1, updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3 AND orphaned_at IS NULL`

	if err := r.DB.ExecContext(ctx, query, at, tenantID, recordID); err != nil {
		logger.Error("SyncRecordRepository:MarkOrphaned", err)
		return err
	}
	return nil
}
