package service

import (
	"context"
	"time"

	"fieldsync/core/constants"
	"fieldsync/core/errors"
	"fieldsync/core/logger"
	platformDto "fieldsync/modules/platform/dto"
	"fieldsync/modules/platform/mapper"
	platformService "fieldsync/modules/platform/service"
	"fieldsync/modules/sync/dto"
	"fieldsync/modules/sync/entity"
	"fieldsync/modules/sync/repository"
	tenantService "fieldsync/modules/tenant/service"
)

type ConflictResolver interface {
	ResolveConflict(ctx context.Context, tenantID, sourceAppointmentID string, override entity.ConflictStrategy) (*dto.ConflictResolution, *errors.AppError)
}

type conflictResolver struct {
	records  repository.SyncRecordRepositoryInterface
	settings tenantService.SettingsService
	source   platformService.SourceClient
	target   platformService.TargetClient
}

func NewConflictResolver(
	records repository.SyncRecordRepositoryInterface,
	settings tenantService.SettingsService,
	source platformService.SourceClient,
	target platformService.TargetClient,
) ConflictResolver {
	return &conflictResolver{
		records:  records,
		settings: settings,
		source:   source,
		target:   target,
	}
}

// ResolveConflict forces one side's data onto the other for an
// already-linked pair. Resolution is only meaningful when both ids exist;
// anything else is a caller error.
func (r *conflictResolver) ResolveConflict(ctx context.Context, tenantID, sourceAppointmentID string, override entity.ConflictStrategy) (*dto.ConflictResolution, *errors.AppError) {
	record, err := r.records.GetBySourceID(ctx, tenantID, sourceAppointmentID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load sync record", err)
	}
	if record == nil || record.LinkState() != entity.LinkStateLinked {
		return nil, errors.NewAppError(errors.ErrNotFound, "no sync record links this appointment pair", nil)
	}

	strategy := r.effectiveStrategy(ctx, tenantID, record, override)
	winner := pickWinner(record, strategy)

	var (
		action dto.SyncAction
		appErr *errors.AppError
	)
	if winner == "source" {
		action, appErr = r.pushSourceData(ctx, tenantID, record)
	} else {
		action, appErr = r.pushTargetData(ctx, tenantID, record)
	}
	if appErr != nil {
		return nil, appErr
	}

	// The push reconciled both sides.
	now := time.Now().UTC()
	record.SourceLastModified = &now
	record.TargetLastModified = &now
	record.ConflictResolution = strategy
	if _, err := r.records.Upsert(ctx, record); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to persist sync record", err)
	}

	logger.Info("ConflictResolver:ResolveConflict:Done",
		"tenant_id", tenantID,
		"source_appointment_id", *record.SourceAppointmentID,
		"target_appointment_id", *record.TargetAppointmentID,
		"strategy", strategy,
		"winner", winner,
	)

	return &dto.ConflictResolution{
		Winner:              winner,
		Strategy:            string(strategy),
		SourceAppointmentID: *record.SourceAppointmentID,
		TargetAppointmentID: *record.TargetAppointmentID,
		Action:              action,
	}, nil
}

func (r *conflictResolver) effectiveStrategy(ctx context.Context, tenantID string, record *entity.SyncRecord, override entity.ConflictStrategy) entity.ConflictStrategy {
	if override.IsValid() {
		return override
	}
	if record.ConflictResolution.IsValid() {
		return record.ConflictResolution
	}
	settings, appErr := r.settings.GetSettings(ctx, tenantID)
	if appErr != nil || settings == nil {
		return entity.StrategyMostRecentWins
	}
	return settings.Strategy()
}

// pickWinner decides which platform's data survives. Missing timestamps
// default to epoch 0; a tie picks Source, so the push flows to Target.
func pickWinner(record *entity.SyncRecord, strategy entity.ConflictStrategy) string {
	switch strategy {
	case entity.StrategySourceWins:
		return "source"
	case entity.StrategyTargetWins:
		return "target"
	default:
		sourceModified := time.Unix(0, 0)
		if record.SourceLastModified != nil {
			sourceModified = *record.SourceLastModified
		}
		targetModified := time.Unix(0, 0)
		if record.TargetLastModified != nil {
			targetModified = *record.TargetLastModified
		}
		if targetModified.After(sourceModified) {
			return "target"
		}
		return "source"
	}
}

// pushSourceData overwrites the Target appointment with the Source's
// current data.
func (r *conflictResolver) pushSourceData(ctx context.Context, tenantID string, record *entity.SyncRecord) (dto.SyncAction, *errors.AppError) {
	raw, err := r.source.GetAppointment(ctx, tenantID, *record.SourceAppointmentID)
	if err != nil {
		return "", errors.NewAppError(errors.ErrUpstreamAPI, "failed to fetch field-service appointment", err)
	}
	appt, resolveErr := mapper.ResolveSourceAppointment(raw)
	if resolveErr != nil {
		return "", errors.NewAppError(errors.ErrDataIntegrity, resolveErr.Error(), resolveErr)
	}

	calendarID := ""
	if record.TargetCalendarID != nil {
		calendarID = *record.TargetCalendarID
	}

	if _, err := r.target.UpdateCalendarAppointment(ctx, tenantID, calendarID, *record.TargetAppointmentID, targetPayloadFrom(appt)); err != nil {
		return "", errors.NewAppError(errors.ErrUpstreamAPI, "failed to update calendar appointment", err)
	}
	return dto.ActionUpdated, nil
}

// pushTargetData overwrites the Source appointment with the Target's
// current data. The CRM has no single-appointment read, so the calendar
// listing around the reconciliation window stands in for one.
func (r *conflictResolver) pushTargetData(ctx context.Context, tenantID string, record *entity.SyncRecord) (dto.SyncAction, *errors.AppError) {
	calendarID := ""
	if record.TargetCalendarID != nil {
		calendarID = *record.TargetCalendarID
	}

	now := time.Now().UTC()
	raw, err := r.target.ListCalendarAppointments(ctx, tenantID, calendarID, platformDto.CalendarAppointmentFilter{
		StartDate: now.AddDate(0, 0, -constants.SyncWindowPastDays),
		EndDate:   now.AddDate(0, 0, constants.SyncWindowFutureDays),
	})
	if err != nil {
		return "", errors.NewAppError(errors.ErrUpstreamAPI, "failed to fetch calendar appointments", err)
	}

	var appt *platformDto.Appointment
	for _, item := range raw {
		candidate, resolveErr := mapper.ResolveTargetAppointment(item)
		if resolveErr != nil {
			continue
		}
		if candidate.ID == *record.TargetAppointmentID {
			appt = candidate
			break
		}
	}
	if appt == nil {
		return "", errors.NewAppError(errors.ErrNotFound, "calendar appointment not found in the reconciliation window", nil)
	}

	teamID := ""
	if record.TeamID != nil {
		teamID = *record.TeamID
	}

	if _, err := r.source.UpdateAppointment(ctx, tenantID, *record.SourceAppointmentID, sourcePayloadFrom(appt, teamID)); err != nil {
		return "", errors.NewAppError(errors.ErrUpstreamAPI, "failed to update field-service appointment", err)
	}
	return dto.ActionUpdated, nil
}
