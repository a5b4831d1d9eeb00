package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"fieldsync/core/cache"
	"fieldsync/core/constants"
	"fieldsync/core/errors"
	"fieldsync/core/logger"
	"fieldsync/core/params"
	"fieldsync/core/utils"
	availabilityDto "fieldsync/modules/availability/dto"
	availabilityService "fieldsync/modules/availability/service"
	platformDto "fieldsync/modules/platform/dto"
	"fieldsync/modules/platform/mapper"
	platformService "fieldsync/modules/platform/service"
	"fieldsync/modules/sync/dto"
	"fieldsync/modules/sync/entity"
	"fieldsync/modules/sync/repository"
	tenantEntity "fieldsync/modules/tenant/entity"
	tenantService "fieldsync/modules/tenant/service"

	"github.com/gosimple/slug"
)

type SyncService interface {
	// SyncSourceToTarget and SyncTargetToSource never return an error:
	// every failure mode comes back as a failed SyncResult.
	SyncSourceToTarget(ctx context.Context, tenantID string, raw map[string]any) *dto.SyncResult
	SyncTargetToSource(ctx context.Context, tenantID string, raw map[string]any, calendarID string) *dto.SyncResult
	// SyncAllAppointments reconciles the trailing/future window. The only
	// error it surfaces is the per-tenant serialization guard; everything
	// else lands in the summary.
	SyncAllAppointments(ctx context.Context, tenantID, teamID string) (*dto.SyncSummary, *errors.AppError)
	ListRecords(ctx context.Context, tenantID string, p params.QueryParams) (*dto.SyncRecordList, *errors.AppError)
}

type syncService struct {
	records      repository.SyncRecordRepositoryInterface
	mappings     repository.TeamMappingRepositoryInterface
	settings     tenantService.SettingsService
	source       platformService.SourceClient
	target       platformService.TargetClient
	availability availabilityService.AvailabilityService
	cache        cache.Cache
}

func NewSyncService(
	records repository.SyncRecordRepositoryInterface,
	mappings repository.TeamMappingRepositoryInterface,
	settings tenantService.SettingsService,
	source platformService.SourceClient,
	target platformService.TargetClient,
	availability availabilityService.AvailabilityService,
	c cache.Cache,
) SyncService {
	return &syncService{
		records:      records,
		mappings:     mappings,
		settings:     settings,
		source:       source,
		target:       target,
		availability: availability,
		cache:        c,
	}
}

func reconcileLockKey(tenantID string) string {
	return fmt.Sprintf("sync:reconcile:lock:%s", tenantID)
}

func failResult(message string) *dto.SyncResult {
	return &dto.SyncResult{Success: false, Error: message}
}

// ========== Source -> Target ==========

func (s *syncService) SyncSourceToTarget(ctx context.Context, tenantID string, raw map[string]any) *dto.SyncResult {
	appt, err := mapper.ResolveSourceAppointment(raw)
	if err != nil {
		return failResult(err.Error())
	}

	settings, appErr := s.integrationSettings(ctx, tenantID)
	if appErr != nil {
		return failResult(appErr.Message)
	}

	return s.pushSourceToTarget(ctx, tenantID, settings, appt, "")
}

// pushSourceToTarget pushes one resolved Source appointment to the Target
// calendar. calendarID, when non-empty, overrides mapping resolution; the
// per-team reconciliation variant threads it through explicitly.
func (s *syncService) pushSourceToTarget(ctx context.Context, tenantID string, settings *tenantEntity.IntegrationSettings, appt *platformDto.Appointment, calendarID string) *dto.SyncResult {
	if settings.LocationID == "" {
		return failResult("integration has no CRM location configured")
	}

	if calendarID == "" {
		resolved, err := s.resolveCalendarForTeam(ctx, tenantID, settings, appt.TeamID)
		if err != nil {
			return failResult(err.Error())
		}
		calendarID = resolved
	}

	record, err := s.records.GetBySourceID(ctx, tenantID, appt.ID)
	if err != nil {
		return failResult("failed to load sync record: " + err.Error())
	}

	payload := targetPayloadFrom(appt)

	action := dto.ActionCreated
	targetID := ""
	if record != nil && record.TargetAppointmentID != nil && *record.TargetAppointmentID != "" {
		targetID = *record.TargetAppointmentID
		if _, err := s.target.UpdateCalendarAppointment(ctx, tenantID, calendarID, targetID, payload); err != nil {
			return failResult("CRM update failed: " + err.Error())
		}
		action = dto.ActionUpdated
	} else {
		created, err := s.target.CreateCalendarAppointment(ctx, tenantID, calendarID, payload)
		if err != nil {
			return failResult("CRM create failed: " + err.Error())
		}
		targetID = created.ID
	}

	now := time.Now().UTC()
	sourceModified := appt.LastModified
	if sourceModified.IsZero() {
		sourceModified = now
	}

	if record == nil {
		record = &entity.SyncRecord{TenantID: tenantID}
	}
	record.SourceAppointmentID = &appt.ID
	record.TargetAppointmentID = &targetID
	record.TargetCalendarID = &calendarID
	record.TeamID = optional(appt.TeamID)
	record.AssigneeID = optional(appt.AssigneeID)
	record.SourceLastModified = &sourceModified
	record.TargetLastModified = &now
	record.SyncDirection = entity.DirectionSourceToTarget
	record.ConflictResolution = settings.Strategy()

	if _, err := s.records.Upsert(ctx, record); err != nil {
		return failResult("failed to persist sync record: " + err.Error())
	}

	logger.Info("SyncService:SyncSourceToTarget:Done",
		"tenant_id", tenantID,
		"source_appointment_id", appt.ID,
		"target_appointment_id", targetID,
		"action", action,
	)

	return &dto.SyncResult{
		Success:             true,
		Action:              action,
		SourceAppointmentID: appt.ID,
		TargetAppointmentID: targetID,
	}
}

// ========== Target -> Source ==========

func (s *syncService) SyncTargetToSource(ctx context.Context, tenantID string, raw map[string]any, calendarID string) *dto.SyncResult {
	appt, err := mapper.ResolveTargetAppointment(raw)
	if err != nil {
		return failResult(err.Error())
	}
	if calendarID == "" {
		calendarID = appt.CalendarID
	}

	settings, appErr := s.integrationSettings(ctx, tenantID)
	if appErr != nil {
		return failResult(appErr.Message)
	}

	return s.pushTargetToSource(ctx, tenantID, settings, appt, calendarID)
}

func (s *syncService) pushTargetToSource(ctx context.Context, tenantID string, settings *tenantEntity.IntegrationSettings, appt *platformDto.Appointment, calendarID string) *dto.SyncResult {
	record, err := s.records.GetByTargetID(ctx, tenantID, appt.ID)
	if err != nil {
		return failResult("failed to load sync record: " + err.Error())
	}

	action := dto.ActionCreated
	sourceID := ""
	teamID := ""

	if record != nil && record.SourceAppointmentID != nil && *record.SourceAppointmentID != "" {
		sourceID = *record.SourceAppointmentID
		if record.TeamID != nil {
			teamID = *record.TeamID
		}
		payload := sourcePayloadFrom(appt, teamID)
		if _, err := s.source.UpdateAppointment(ctx, tenantID, sourceID, payload); err != nil {
			return failResult("field-service update failed: " + err.Error())
		}
		action = dto.ActionUpdated
	} else {
		booked, bookErr := s.createSourceBooking(ctx, tenantID, settings, appt, calendarID)
		if bookErr != nil {
			return failResult(bookErr.Message)
		}
		sourceID = booked.appointmentID
		teamID = booked.teamID
	}

	now := time.Now().UTC()
	targetModified := appt.LastModified
	if targetModified.IsZero() {
		targetModified = now
	}

	if record == nil {
		record = &entity.SyncRecord{TenantID: tenantID}
	}
	record.SourceAppointmentID = &sourceID
	record.TargetAppointmentID = &appt.ID
	record.TargetCalendarID = optional(calendarID)
	record.TeamID = optional(teamID)
	record.AssigneeID = optional(appt.AssigneeID)
	record.SourceLastModified = &now
	record.TargetLastModified = &targetModified
	record.SyncDirection = entity.DirectionTargetToSource
	record.ConflictResolution = settings.Strategy()

	if _, err := s.records.Upsert(ctx, record); err != nil {
		return failResult("failed to persist sync record: " + err.Error())
	}

	logger.Info("SyncService:SyncTargetToSource:Done",
		"tenant_id", tenantID,
		"source_appointment_id", sourceID,
		"target_appointment_id", appt.ID,
		"action", action,
	)

	return &dto.SyncResult{
		Success:             true,
		Action:              action,
		SourceAppointmentID: sourceID,
		TargetAppointmentID: appt.ID,
	}
}

type sourceBooking struct {
	appointmentID string
	teamID        string
}

// createSourceBooking runs the field-service booking chain for a calendar
// appointment that has no Source counterpart yet: lead, quote, availability
// gate, pricing gate, final booking.
func (s *syncService) createSourceBooking(ctx context.Context, tenantID string, settings *tenantEntity.IntegrationSettings, appt *platformDto.Appointment, calendarID string) (*sourceBooking, *errors.AppError) {
	lead, err := s.source.FindOrCreateLead(ctx, tenantID, platformDto.LeadPayload{
		Name:    customerName(appt),
		Email:   appt.CustomerEmail,
		Phone:   appt.CustomerPhone,
		Address: appt.Address,
	})
	if err != nil {
		return nil, errors.NewAppError(errors.ErrUpstreamAPI, "failed to resolve lead: "+err.Error(), err)
	}

	quote, err := s.source.CreateQuote(ctx, tenantID, platformDto.QuotePayload{
		LeadID:      lead.ID,
		Reference:   quoteReference(appt),
		ServiceType: "appointment",
		Notes:       appt.Notes,
	})
	if err != nil {
		return nil, errors.NewAppError(errors.ErrUpstreamAPI, "failed to create quote: "+err.Error(), err)
	}

	availability := s.availability.CheckAvailability(ctx, tenantID, availabilityDto.CheckAvailabilityRequest{
		StartTime:     appt.StartTime.Format(time.RFC3339),
		EndTime:       appt.EndTime.Format(time.RFC3339),
		BufferMinutes: settings.BufferMinutes,
	})
	if !availability.Available {
		return nil, errors.NewAppError(errors.ErrBookingConflict, conflictMessage(availability.Conflicts), nil)
	}

	teamID := s.resolveTeamForCalendar(ctx, tenantID, calendarID, availability.AvailableTeams)
	if teamID == "" {
		logger.Warn("SyncService:CreateSourceBooking:Unassigned",
			"tenant_id", tenantID,
			"target_appointment_id", appt.ID,
			"calendar_id", calendarID,
		)
	}

	if err := s.source.CalculatePrice(ctx, tenantID, platformDto.PricePayload{
		QuoteID:   quote.ID,
		StartTime: appt.StartTime,
		EndTime:   appt.EndTime,
		TeamID:    teamID,
	}); err != nil {
		// Pricing rejection is an authoritative unavailable signal.
		return nil, errors.NewAppError(errors.ErrBookingConflict, "slot rejected by pricing: "+err.Error(), err)
	}

	booking, err := s.source.BookQuote(ctx, tenantID, platformDto.BookQuotePayload{
		QuoteID:    quote.ID,
		LeadID:     lead.ID,
		StartTime:  appt.StartTime,
		EndTime:    appt.EndTime,
		TeamID:     teamID,
		AssigneeID: appt.AssigneeID,
	})
	if err != nil {
		return nil, errors.NewAppError(errors.ErrUpstreamAPI, "failed to book quote: "+err.Error(), err)
	}

	appointmentID := booking.AppointmentID
	if appointmentID == "" {
		appointmentID = s.recoverBookedAppointmentID(ctx, tenantID, lead.ID, quote.ID, appt.StartTime)
	}
	if appointmentID == "" {
		return nil, errors.NewAppError(errors.ErrDataIntegrity,
			"booking finalized but no appointment id could be recovered", nil)
	}

	return &sourceBooking{appointmentID: appointmentID, teamID: teamID}, nil
}

// recoverBookedAppointmentID re-queries recent appointments for the booking
// chain when the book call did not return an id directly.
func (s *syncService) recoverBookedAppointmentID(ctx context.Context, tenantID, leadID, quoteID string, startTime time.Time) string {
	raw, err := s.source.ListAppointments(ctx, tenantID, platformDto.AppointmentFilter{
		StartDate: startTime.Add(-24 * time.Hour),
		EndDate:   startTime.Add(24 * time.Hour),
		LeadID:    leadID,
		QuoteID:   quoteID,
	})
	if err != nil {
		logger.Warn("SyncService:RecoverBookedAppointmentID:Error", "tenant_id", tenantID, "error", err)
		return ""
	}

	for _, r := range raw {
		candidate, resolveErr := mapper.ResolveSourceAppointment(r)
		if resolveErr != nil {
			continue
		}
		if candidate.StartTime.Equal(startTime) {
			return candidate.ID
		}
	}
	return ""
}

// ========== Full reconciliation ==========

func (s *syncService) SyncAllAppointments(ctx context.Context, tenantID, teamID string) (*dto.SyncSummary, *errors.AppError) {
	lockToken := utils.GenerateRandomString(16)
	acquired, err := s.cache.AcquireLock(ctx, reconcileLockKey(tenantID), lockToken, constants.SyncLockTTL)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to acquire reconciliation lock", err)
	}
	if !acquired {
		return nil, errors.NewAppError(errors.ErrSyncInProgress, "a reconciliation pass is already running for this tenant", nil)
	}
	defer func() {
		if releaseErr := s.cache.ReleaseLock(context.WithoutCancel(ctx), reconcileLockKey(tenantID), lockToken); releaseErr != nil {
			logger.Warn("SyncService:SyncAllAppointments:ReleaseLock:Error", "tenant_id", tenantID, "error", releaseErr)
		}
	}()

	summary := &dto.SyncSummary{Results: []dto.SyncResult{}}

	settings, appErr := s.integrationSettings(ctx, tenantID)
	if appErr != nil {
		summary.Errors++
		summary.Results = append(summary.Results, *failResult(appErr.Message))
		return summary, nil
	}

	windowStart := time.Now().UTC().AddDate(0, 0, -constants.SyncWindowPastDays)
	windowEnd := time.Now().UTC().AddDate(0, 0, constants.SyncWindowFutureDays)

	snapshot, err := s.records.ListAllByTenant(ctx, tenantID)
	if err != nil {
		summary.Errors++
		summary.Results = append(summary.Results, *failResult("failed to load sync records: "+err.Error()))
		return summary, nil
	}

	bySource := make(map[string]*entity.SyncRecord)
	byTarget := make(map[string]*entity.SyncRecord)
	for i := range snapshot {
		rec := &snapshot[i]
		if rec.SourceAppointmentID != nil && *rec.SourceAppointmentID != "" {
			bySource[*rec.SourceAppointmentID] = rec
		}
		if rec.TargetAppointmentID != nil && *rec.TargetAppointmentID != "" {
			byTarget[*rec.TargetAppointmentID] = rec
		}
	}

	mappings, err := s.mappings.ListEnabledByTenant(ctx, tenantID)
	if err != nil {
		summary.Errors++
		summary.Results = append(summary.Results, *failResult("failed to load team mappings: "+err.Error()))
		return summary, nil
	}
	if teamID != "" {
		mappings = filterMappings(mappings, teamID)
		if len(mappings) == 0 {
			summary.Errors++
			summary.Results = append(summary.Results, *failResult("no enabled calendar mapping for team "+teamID))
			return summary, nil
		}
	}

	seenSource := make(map[string]bool)
	seenTarget := make(map[string]bool)
	listingsComplete := true

	if len(mappings) > 0 {
		for _, m := range mappings {
			complete := s.reconcileScope(ctx, tenantID, settings, reconcileScope{
				teamID:     m.TeamID,
				calendarID: m.CalendarID,
			}, windowStart, windowEnd, bySource, byTarget, seenSource, seenTarget, summary)
			listingsComplete = listingsComplete && complete
		}
	} else {
		listingsComplete = s.reconcileScope(ctx, tenantID, settings, reconcileScope{
			calendarID: settings.DefaultCalendarID,
		}, windowStart, windowEnd, bySource, byTarget, seenSource, seenTarget, summary)
	}

	// Orphan judgement needs every listing to have succeeded; a failed
	// fetch makes "unseen" indistinguishable from "gone".
	if teamID == "" && listingsComplete {
		s.markOrphans(ctx, tenantID, snapshot, mappings, windowStart, windowEnd, seenSource, seenTarget)
	}

	logger.Info("SyncService:SyncAllAppointments:Done",
		"tenant_id", tenantID,
		"synced", summary.Synced,
		"errors", summary.Errors,
	)
	return summary, nil
}

type reconcileScope struct {
	// teamID is empty for the tenant-wide pass.
	teamID     string
	calendarID string
}

// reconcileScope runs both directions for one team/calendar pair. Source
// and Target listings are fetched concurrently; the two direction loops
// then run against the snapshot taken before the pass started. Returns
// false when either listing failed, so callers know the seen sets are
// incomplete.
func (s *syncService) reconcileScope(
	ctx context.Context,
	tenantID string,
	settings *tenantEntity.IntegrationSettings,
	scope reconcileScope,
	windowStart, windowEnd time.Time,
	bySource, byTarget map[string]*entity.SyncRecord,
	seenSource, seenTarget map[string]bool,
	summary *dto.SyncSummary,
) bool {
	var (
		wg        sync.WaitGroup
		rawSource []map[string]any
		rawTarget []map[string]any
		sourceErr error
		targetErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		rawSource, sourceErr = s.source.ListAppointments(ctx, tenantID, platformDto.AppointmentFilter{
			StartDate: windowStart,
			EndDate:   windowEnd,
			TeamID:    scope.teamID,
		})
	}()
	go func() {
		defer wg.Done()
		rawTarget, targetErr = s.target.ListCalendarAppointments(ctx, tenantID, scope.calendarID, platformDto.CalendarAppointmentFilter{
			StartDate: windowStart,
			EndDate:   windowEnd,
		})
	}()
	wg.Wait()

	if sourceErr != nil {
		summary.Errors++
		summary.Results = append(summary.Results, *failResult("failed to list field-service appointments: "+sourceErr.Error()))
	}
	if targetErr != nil {
		summary.Errors++
		summary.Results = append(summary.Results, *failResult("failed to list calendar appointments: "+targetErr.Error()))
	}

	for _, raw := range rawSource {
		appt, err := mapper.ResolveSourceAppointment(raw)
		if err != nil {
			summary.Errors++
			summary.Results = append(summary.Results, *failResult(err.Error()))
			continue
		}
		seenSource[appt.ID] = true

		record := bySource[appt.ID]
		if !needsSync(record, recordSourceModified(record), appt.LastModified) {
			summary.Results = append(summary.Results, dto.SyncResult{
				Success:             true,
				Action:              dto.ActionSkipped,
				SourceAppointmentID: appt.ID,
			})
			continue
		}

		result := s.pushSourceToTarget(ctx, tenantID, settings, appt, scope.calendarID)
		s.tally(summary, result)
	}

	for _, raw := range rawTarget {
		appt, err := mapper.ResolveTargetAppointment(raw)
		if err != nil {
			summary.Errors++
			summary.Results = append(summary.Results, *failResult(err.Error()))
			continue
		}
		seenTarget[appt.ID] = true

		record := byTarget[appt.ID]
		if !needsSync(record, recordTargetModified(record), appt.LastModified) {
			summary.Results = append(summary.Results, dto.SyncResult{
				Success:             true,
				Action:              dto.ActionSkipped,
				TargetAppointmentID: appt.ID,
			})
			continue
		}

		result := s.pushTargetToSource(ctx, tenantID, settings, appt, scope.calendarID)
		s.tally(summary, result)
	}

	return sourceErr == nil && targetErr == nil
}

func (s *syncService) tally(summary *dto.SyncSummary, result *dto.SyncResult) {
	if result.Success {
		summary.Synced++
	} else {
		summary.Errors++
	}
	summary.Results = append(summary.Results, *result)
}

// needsSync: unlinked appointments always sync; linked ones only when the
// platform reports a modification strictly newer than the recorded one.
func needsSync(record *entity.SyncRecord, recorded *time.Time, platformModified time.Time) bool {
	if record == nil {
		return true
	}
	if recorded == nil {
		return true
	}
	if platformModified.IsZero() {
		return false
	}
	return platformModified.After(*recorded)
}

func recordSourceModified(record *entity.SyncRecord) *time.Time {
	if record == nil {
		return nil
	}
	return record.SourceLastModified
}

func recordTargetModified(record *entity.SyncRecord) *time.Time {
	if record == nil {
		return nil
	}
	return record.TargetLastModified
}

// markOrphans stamps linked records whose appointment ids showed up on
// neither platform inside the window. The stamp is diagnostic only;
// deletion is never propagated.
func (s *syncService) markOrphans(
	ctx context.Context,
	tenantID string,
	snapshot []entity.SyncRecord,
	mappings []entity.TeamCalendarMapping,
	windowStart, windowEnd time.Time,
	seenSource, seenTarget map[string]bool,
) {
	mappedTeams := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		mappedTeams[m.TeamID] = true
	}

	now := time.Now().UTC()
	for i := range snapshot {
		rec := &snapshot[i]
		if rec.OrphanedAt != nil {
			continue
		}
		// Per-team passes only cover mapped teams; records outside them
		// cannot be judged.
		if len(mappings) > 0 && (rec.TeamID == nil || !mappedTeams[*rec.TeamID]) {
			continue
		}
		if !recordInsideWindow(rec, windowStart, windowEnd) {
			continue
		}
		sourceGone := rec.SourceAppointmentID != nil && *rec.SourceAppointmentID != "" && !seenSource[*rec.SourceAppointmentID]
		targetGone := rec.TargetAppointmentID != nil && *rec.TargetAppointmentID != "" && !seenTarget[*rec.TargetAppointmentID]
		if sourceGone && targetGone {
			if err := s.records.MarkOrphaned(ctx, tenantID, rec.ID, now); err != nil {
				logger.Warn("SyncService:MarkOrphans:Error", "tenant_id", tenantID, "record_id", rec.ID, "error", err)
			}
		}
	}
}

// recordInsideWindow uses the recorded modification times as a proxy for
// the appointment's interval; records last touched outside the window are
// left alone.
func recordInsideWindow(rec *entity.SyncRecord, windowStart, windowEnd time.Time) bool {
	latest := time.Time{}
	if rec.SourceLastModified != nil && rec.SourceLastModified.After(latest) {
		latest = *rec.SourceLastModified
	}
	if rec.TargetLastModified != nil && rec.TargetLastModified.After(latest) {
		latest = *rec.TargetLastModified
	}
	if latest.IsZero() {
		return false
	}
	return !latest.Before(windowStart) && !latest.After(windowEnd)
}

// ========== Record listing ==========

func (s *syncService) ListRecords(ctx context.Context, tenantID string, p params.QueryParams) (*dto.SyncRecordList, *errors.AppError) {
	records, total, err := s.records.ListByTenant(ctx, tenantID, p)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list sync records", err)
	}

	items := make([]dto.SyncRecordItem, 0, len(records))
	for _, rec := range records {
		items = append(items, dto.SyncRecordItem{SyncRecord: rec, LinkState: rec.LinkState()})
	}

	return &dto.SyncRecordList{
		Records: items,
		Page:    p.Page,
		Limit:   p.Limit,
		Total:   total,
	}, nil
}

// ========== Helpers ==========

// integrationSettings gates every sync operation on the tenant's toggles.
func (s *syncService) integrationSettings(ctx context.Context, tenantID string) (*tenantEntity.IntegrationSettings, *errors.AppError) {
	settings, appErr := s.settings.GetSettings(ctx, tenantID)
	if appErr != nil {
		return nil, appErr
	}
	if !settings.Enabled {
		return nil, errors.NewAppError(errors.ErrIntegrationDisabled, "integration is disabled for this tenant", nil)
	}
	if !settings.SyncAppointments {
		return nil, errors.NewAppError(errors.ErrIntegrationDisabled, "appointment sync is turned off for this tenant", nil)
	}
	return settings, nil
}

// resolveCalendarForTeam: mapping first, tenant default second,
// configuration error last.
func (s *syncService) resolveCalendarForTeam(ctx context.Context, tenantID string, settings *tenantEntity.IntegrationSettings, teamID string) (string, error) {
	if teamID != "" {
		mapping, err := s.mappings.GetByTeamID(ctx, tenantID, teamID)
		if err != nil {
			return "", fmt.Errorf("failed to load calendar mapping: %w", err)
		}
		if mapping != nil {
			return mapping.CalendarID, nil
		}
	}
	if settings.DefaultCalendarID != "" {
		return settings.DefaultCalendarID, nil
	}
	return "", fmt.Errorf("no calendar mapping for team %q and no default calendar configured", teamID)
}

// resolveTeamForCalendar: mapping first, then the first team the
// availability check reported free, else unassigned.
func (s *syncService) resolveTeamForCalendar(ctx context.Context, tenantID, calendarID string, availableTeams []availabilityDto.TeamRef) string {
	if calendarID != "" {
		mapping, err := s.mappings.GetByCalendarID(ctx, tenantID, calendarID)
		if err != nil {
			logger.Warn("SyncService:ResolveTeamForCalendar:Error", "tenant_id", tenantID, "calendar_id", calendarID, "error", err)
		} else if mapping != nil {
			return mapping.TeamID
		}
	}
	if len(availableTeams) > 0 {
		return availableTeams[0].TeamID
	}
	return ""
}

func filterMappings(mappings []entity.TeamCalendarMapping, teamID string) []entity.TeamCalendarMapping {
	filtered := make([]entity.TeamCalendarMapping, 0, 1)
	for _, m := range mappings {
		if m.TeamID == teamID {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

func targetPayloadFrom(appt *platformDto.Appointment) platformDto.CalendarAppointmentPayload {
	title := appt.Title
	if title == "" {
		title = customerName(appt)
	}
	return platformDto.CalendarAppointmentPayload{
		Title:          title,
		StartTime:      appt.StartTime,
		EndTime:        appt.EndTime,
		ContactID:      appt.ContactID,
		AssignedUserID: appt.AssigneeID,
		Notes:          appt.Notes,
	}
}

func sourcePayloadFrom(appt *platformDto.Appointment, teamID string) platformDto.SourceAppointmentPayload {
	return platformDto.SourceAppointmentPayload{
		StartTime:  appt.StartTime,
		EndTime:    appt.EndTime,
		TeamID:     teamID,
		AssigneeID: appt.AssigneeID,
		Notes:      appt.Notes,
	}
}

func customerName(appt *platformDto.Appointment) string {
	if appt.CustomerName != "" {
		return appt.CustomerName
	}
	if appt.Title != "" {
		return appt.Title
	}
	return "Appointment " + appt.ID
}

func quoteReference(appt *platformDto.Appointment) string {
	base := slug.Make(customerName(appt))
	if base == "" {
		base = "appointment"
	}
	return base + "-" + utils.GenerateID()
}

// conflictMessage enumerates conflicting bookings per team so callers can
// act on the rejection.
func conflictMessage(conflicts []availabilityDto.TeamConflict) string {
	if len(conflicts) == 0 {
		return "no team is available for the requested interval"
	}
	parts := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		parts = append(parts, fmt.Sprintf("team %s: appointment %s [%s - %s]",
			c.TeamID, c.Slot.ID,
			c.Slot.StartTime.Format(time.RFC3339), c.Slot.EndTime.Format(time.RFC3339)))
	}
	return "requested interval conflicts with existing bookings: " + strings.Join(parts, "; ")
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
