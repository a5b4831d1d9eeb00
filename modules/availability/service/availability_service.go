package service

import (
	"context"
	"time"

	"fieldsync/core/constants"
	"fieldsync/core/errors"
	"fieldsync/core/logger"
	"fieldsync/modules/availability/dto"
	platformDto "fieldsync/modules/platform/dto"
	"fieldsync/modules/platform/mapper"
	platformService "fieldsync/modules/platform/service"
	tenantService "fieldsync/modules/tenant/service"
)

type AvailabilityService interface {
	// CheckAvailability never returns an error: any failure to fetch or
	// resolve schedule data yields an unavailable result.
	CheckAvailability(ctx context.Context, tenantID string, req dto.CheckAvailabilityRequest) *dto.AvailabilityResult
	CheckTeamAvailability(ctx context.Context, tenantID, teamID string, req dto.TeamAvailabilityRequest) *dto.TeamAvailability
	FindOpenSlots(ctx context.Context, tenantID string, req dto.FindOpenSlotsRequest) (*dto.FindOpenSlotsResponse, *errors.AppError)
}

type availabilityService struct {
	source   platformService.SourceClient
	settings tenantService.SettingsService
	overlap  *OverlapEngine
}

func NewAvailabilityService(source platformService.SourceClient, settings tenantService.SettingsService) AvailabilityService {
	return &availabilityService{
		source:   source,
		settings: settings,
		overlap:  NewOverlapEngine(),
	}
}

// unavailable is the fail-closed result: no error surfaces to the caller,
// but nothing is bookable either.
func unavailable() *dto.AvailabilityResult {
	return &dto.AvailabilityResult{
		Available:      false,
		Conflicts:      []dto.TeamConflict{},
		AvailableTeams: []dto.TeamRef{},
	}
}

// CheckAvailability checks a candidate interval against every team's
// schedule. The interval is available when at least one team has no
// conflicting booking.
func (s *availabilityService) CheckAvailability(ctx context.Context, tenantID string, req dto.CheckAvailabilityRequest) *dto.AvailabilityResult {
	start, end, appErr := parseInterval(req.StartTime, req.EndTime)
	if appErr != nil {
		logger.Warn("AvailabilityService:CheckAvailability:BadInterval", "tenant_id", tenantID, "error", appErr)
		return unavailable()
	}

	buffer := s.effectiveBuffer(ctx, tenantID, req.BufferMinutes)

	teams, err := s.listTeams(ctx, tenantID)
	if err != nil {
		logger.Error("AvailabilityService:CheckAvailability:ListTeams:Error", "tenant_id", tenantID, "error", err)
		return unavailable()
	}

	slots, err := s.listSlots(ctx, tenantID, "", start, end, buffer, req.ExcludeIDs)
	if err != nil {
		logger.Error("AvailabilityService:CheckAvailability:ListAppointments:Error", "tenant_id", tenantID, "error", err)
		return unavailable()
	}

	overlaps := s.overlap.DetectOverlaps(slots, start, end, buffer)

	teamNames := make(map[string]string, len(teams))
	for _, t := range teams {
		teamNames[t.ID] = t.Name
	}

	result := &dto.AvailabilityResult{
		Conflicts:      []dto.TeamConflict{},
		AvailableTeams: []dto.TeamRef{},
	}

	busyTeams := make(map[string]bool)
	for _, c := range overlaps.Conflicts {
		busyTeams[c.Slot.TeamID] = true
		result.Conflicts = append(result.Conflicts, dto.TeamConflict{
			TeamID:       c.Slot.TeamID,
			TeamName:     teamNames[c.Slot.TeamID],
			Slot:         c.Slot,
			OverlapType:  c.OverlapType,
			OverlapStart: c.OverlapStart,
			OverlapEnd:   c.OverlapEnd,
		})
	}

	for _, t := range teams {
		if !busyTeams[t.ID] {
			result.AvailableTeams = append(result.AvailableTeams, dto.TeamRef{TeamID: t.ID, TeamName: t.Name})
		}
	}

	if len(teams) > 0 {
		result.Available = len(result.AvailableTeams) > 0
	} else {
		// Tenant without team structure: availability is a plain overlap check.
		result.Available = !overlaps.HasConflict
	}

	return result
}

// CheckTeamAvailability scopes the check to a single team's schedule.
// Fail-closed like CheckAvailability.
func (s *availabilityService) CheckTeamAvailability(ctx context.Context, tenantID, teamID string, req dto.TeamAvailabilityRequest) *dto.TeamAvailability {
	result := &dto.TeamAvailability{
		TeamID:    teamID,
		Available: false,
		Conflicts: []dto.SlotConflict{},
	}

	start, end, appErr := parseInterval(req.StartTime, req.EndTime)
	if appErr != nil {
		logger.Warn("AvailabilityService:CheckTeamAvailability:BadInterval", "tenant_id", tenantID, "team_id", teamID, "error", appErr)
		return result
	}

	buffer := s.effectiveBuffer(ctx, tenantID, req.BufferMinutes)

	var exclude []string
	if req.ExcludeID != "" {
		exclude = []string{req.ExcludeID}
	}

	slots, err := s.listSlots(ctx, tenantID, teamID, start, end, buffer, exclude)
	if err != nil {
		logger.Error("AvailabilityService:CheckTeamAvailability:ListAppointments:Error", "tenant_id", tenantID, "team_id", teamID, "error", err)
		return result
	}

	overlaps := s.overlap.DetectOverlaps(slots, start, end, buffer)
	result.Available = !overlaps.HasConflict
	result.Conflicts = overlaps.Conflicts
	return result
}

// FindOpenSlots suggests bookable gaps in the requested range, tenant-wide
// or for one team.
func (s *availabilityService) FindOpenSlots(ctx context.Context, tenantID string, req dto.FindOpenSlotsRequest) (*dto.FindOpenSlotsResponse, *errors.AppError) {
	start, end, appErr := parseInterval(req.RangeStart, req.RangeEnd)
	if appErr != nil {
		return nil, appErr
	}

	duration := req.SlotDurationMinutes
	if duration <= 0 {
		duration = constants.DefaultSlotDurationMinutes
	}
	buffer := s.effectiveBuffer(ctx, tenantID, req.BufferMinutes)

	slots, err := s.listSlots(ctx, tenantID, req.TeamID, start, end, buffer, nil)
	if err != nil {
		logger.Error("AvailabilityService:FindOpenSlots:ListAppointments:Error", "tenant_id", tenantID, "error", err)
		return nil, errors.NewAppError(errors.ErrUpstreamAPI, "failed to load booked appointments", err)
	}

	open := s.overlap.FindOpenSlots(slots, start, end, duration, buffer)
	return &dto.FindOpenSlotsResponse{Slots: open}, nil
}

// effectiveBuffer prefers the request's buffer, then the tenant's
// configured one. Settings lookup failures degrade to zero buffer rather
// than failing the whole check.
func (s *availabilityService) effectiveBuffer(ctx context.Context, tenantID string, requested int) int {
	if requested > 0 {
		return requested
	}
	settings, appErr := s.settings.GetSettings(ctx, tenantID)
	if appErr != nil || settings == nil {
		return 0
	}
	return settings.BufferMinutes
}

func (s *availabilityService) listTeams(ctx context.Context, tenantID string) ([]platformDto.Team, error) {
	raw, err := s.source.ListTeams(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	teams := make([]platformDto.Team, 0, len(raw))
	for _, r := range raw {
		team, resolveErr := mapper.ResolveTeam(r)
		if resolveErr != nil {
			logger.Warn("AvailabilityService:ListTeams:Unresolvable", "tenant_id", tenantID, "error", resolveErr)
			continue
		}
		teams = append(teams, *team)
	}
	return teams, nil
}

// listSlots fetches booked appointments around the candidate window,
// widened by the buffer so bookings just outside it still register as
// adjacency conflicts. Entries that fail to resolve fail the whole fetch;
// a schedule we cannot fully read is a schedule we cannot trust.
func (s *availabilityService) listSlots(ctx context.Context, tenantID, teamID string, start, end time.Time, bufferMinutes int, excludeIDs []string) ([]dto.AppointmentSlot, error) {
	margin := time.Duration(bufferMinutes)*time.Minute + 24*time.Hour

	raw, err := s.source.ListAppointments(ctx, tenantID, platformDto.AppointmentFilter{
		StartDate: start.Add(-margin),
		EndDate:   end.Add(margin),
		TeamID:    teamID,
	})
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}

	slots := make([]dto.AppointmentSlot, 0, len(raw))
	for _, r := range raw {
		appt, resolveErr := mapper.ResolveSourceAppointment(r)
		if resolveErr != nil {
			return nil, resolveErr
		}
		if excluded[appt.ID] {
			continue
		}
		slots = append(slots, dto.AppointmentSlot{
			ID:        appt.ID,
			StartTime: appt.StartTime,
			EndTime:   appt.EndTime,
			TeamID:    appt.TeamID,
		})
	}
	return slots, nil
}

func parseInterval(startRaw, endRaw string) (time.Time, time.Time, *errors.AppError) {
	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, errors.NewAppError(errors.ErrInvalidInput, "start_time must be RFC3339", err)
	}
	end, err := time.Parse(time.RFC3339, endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, errors.NewAppError(errors.ErrInvalidInput, "end_time must be RFC3339", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.NewAppError(errors.ErrInvalidInput, "end_time must not precede start_time", nil)
	}
	return start, end, nil
}
