package mapper

import (
	"fmt"
	"strings"
	"time"

	"fieldsync/modules/platform/dto"
)

// Both platforms emit inconsistent field-name casing across API versions
// (an id may arrive as "Id", "AppointmentId" or "id"). Every alias list
// below is ordered; the first present non-null value is authoritative, and
// absence of all aliases for a required field is a validation error.

var (
	sourceIDAliases       = []string{"Id", "AppointmentId", "id", "appointment_id"}
	sourceStartAliases    = []string{"StartTime", "ScheduledStart", "start_time", "start"}
	sourceEndAliases      = []string{"EndTime", "ScheduledEnd", "end_time", "end"}
	sourceTeamAliases     = []string{"TeamId", "DispatchedTeamId", "team_id"}
	sourceAssigneeAliases = []string{"AssigneeId", "AssignedEmployeeId", "assignee_id"}
	sourceModifiedAliases = []string{"UpdatedAt", "LastModified", "updated_at", "modified_at"}
	sourceTitleAliases    = []string{"Title", "JobTitle", "title"}
	sourceNotesAliases    = []string{"Notes", "Description", "notes"}
	sourceNameAliases     = []string{"CustomerName", "ContactName", "customer_name"}
	sourceEmailAliases    = []string{"CustomerEmail", "Email", "customer_email", "email"}
	sourcePhoneAliases    = []string{"CustomerPhone", "Phone", "customer_phone", "phone"}
	sourceAddressAliases  = []string{"Address", "ServiceAddress", "address"}

	targetIDAliases       = []string{"id", "appointmentId", "Id"}
	targetCalendarAliases = []string{"calendarId", "calendar_id"}
	targetContactAliases  = []string{"contactId", "contact_id"}
	targetStartAliases    = []string{"startTime", "start_time", "start"}
	targetEndAliases      = []string{"endTime", "end_time", "end"}
	targetModifiedAliases = []string{"dateUpdated", "updatedAt", "updated_at"}
	targetTitleAliases    = []string{"title", "name"}
	targetNotesAliases    = []string{"notes", "description"}
	targetAssigneeAliases = []string{"assignedUserId", "userId"}

	teamIDAliases   = []string{"Id", "TeamId", "id", "team_id"}
	teamNameAliases = []string{"Name", "TeamName", "name"}
)

// timeLayouts accepted for timestamp fields, tried in order.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ResolveSourceAppointment validates and normalizes a raw field-service
// appointment payload.
func ResolveSourceAppointment(raw map[string]any) (*dto.Appointment, error) {
	id, ok := stringField(raw, sourceIDAliases...)
	if !ok {
		return nil, missingFieldError("source appointment", "id", sourceIDAliases)
	}

	start, ok := timeField(raw, sourceStartAliases...)
	if !ok {
		return nil, missingFieldError("source appointment", "start time", sourceStartAliases)
	}
	end, ok := timeField(raw, sourceEndAliases...)
	if !ok {
		return nil, missingFieldError("source appointment", "end time", sourceEndAliases)
	}

	appt := &dto.Appointment{
		ID:        id,
		StartTime: start,
		EndTime:   end,
	}

	appt.TeamID, _ = stringField(raw, sourceTeamAliases...)
	appt.AssigneeID, _ = stringField(raw, sourceAssigneeAliases...)
	appt.Title, _ = stringField(raw, sourceTitleAliases...)
	appt.Notes, _ = stringField(raw, sourceNotesAliases...)
	appt.CustomerName, _ = stringField(raw, sourceNameAliases...)
	appt.CustomerEmail, _ = stringField(raw, sourceEmailAliases...)
	appt.CustomerPhone, _ = stringField(raw, sourcePhoneAliases...)
	appt.Address, _ = stringField(raw, sourceAddressAliases...)
	appt.LastModified, _ = timeField(raw, sourceModifiedAliases...)

	return appt, nil
}

// ResolveTargetAppointment validates and normalizes a raw CRM calendar
// appointment payload.
func ResolveTargetAppointment(raw map[string]any) (*dto.Appointment, error) {
	id, ok := stringField(raw, targetIDAliases...)
	if !ok {
		return nil, missingFieldError("target appointment", "id", targetIDAliases)
	}

	start, ok := timeField(raw, targetStartAliases...)
	if !ok {
		return nil, missingFieldError("target appointment", "start time", targetStartAliases)
	}
	end, ok := timeField(raw, targetEndAliases...)
	if !ok {
		return nil, missingFieldError("target appointment", "end time", targetEndAliases)
	}

	appt := &dto.Appointment{
		ID:        id,
		StartTime: start,
		EndTime:   end,
	}

	appt.CalendarID, _ = stringField(raw, targetCalendarAliases...)
	appt.ContactID, _ = stringField(raw, targetContactAliases...)
	appt.Title, _ = stringField(raw, targetTitleAliases...)
	appt.Notes, _ = stringField(raw, targetNotesAliases...)
	appt.AssigneeID, _ = stringField(raw, targetAssigneeAliases...)
	appt.LastModified, _ = timeField(raw, targetModifiedAliases...)

	return appt, nil
}

// ResolveTeam normalizes a raw team/crew payload.
func ResolveTeam(raw map[string]any) (*dto.Team, error) {
	id, ok := stringField(raw, teamIDAliases...)
	if !ok {
		return nil, missingFieldError("team", "id", teamIDAliases)
	}

	team := &dto.Team{ID: id}
	team.Name, _ = stringField(raw, teamNameAliases...)
	return team, nil
}

// stringField returns the first present, non-null, non-empty alias value.
func stringField(raw map[string]any, aliases ...string) (string, bool) {
	for _, alias := range aliases {
		v, present := raw[alias]
		if !present || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			if val != "" {
				return val, true
			}
		case float64:
			// JSON numbers decode as float64; ids are integral in practice.
			return fmt.Sprintf("%.0f", val), true
		case int:
			return fmt.Sprintf("%d", val), true
		}
	}
	return "", false
}

// timeField returns the first alias value parseable as a timestamp.
func timeField(raw map[string]any, aliases ...string) (time.Time, bool) {
	for _, alias := range aliases {
		v, present := raw[alias]
		if !present || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			for _, layout := range timeLayouts {
				if t, err := time.Parse(layout, val); err == nil {
					return t, true
				}
			}
		case float64:
			// Unix timestamp, milliseconds when large enough.
			if val > 1e12 {
				return time.UnixMilli(int64(val)).UTC(), true
			}
			if val > 0 {
				return time.Unix(int64(val), 0).UTC(), true
			}
		case time.Time:
			return val, true
		}
	}
	return time.Time{}, false
}

func missingFieldError(entity, field string, aliases []string) error {
	return fmt.Errorf("%s payload missing %s (checked %s)", entity, field, strings.Join(aliases, ", "))
}
