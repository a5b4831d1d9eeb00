package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"fieldsync/core/config"
	"fieldsync/core/constants"
	"fieldsync/core/logger"
	"fieldsync/modules/platform/dto"
	tenantService "fieldsync/modules/tenant/service"

	"golang.org/x/oauth2"
)

// TargetClient is the CRM calendar API.
type TargetClient interface {
	ListCalendarAppointments(ctx context.Context, tenantID, calendarID string, filter dto.CalendarAppointmentFilter) ([]map[string]any, error)
	CreateCalendarAppointment(ctx context.Context, tenantID, calendarID string, payload dto.CalendarAppointmentPayload) (*dto.CalendarAppointment, error)
	UpdateCalendarAppointment(ctx context.Context, tenantID, calendarID, appointmentID string, payload dto.CalendarAppointmentPayload) (*dto.CalendarAppointment, error)
}

type httpTargetClient struct {
	settings tenantService.SettingsService
	client   *http.Client
}

func NewTargetClient(settings tenantService.SettingsService) TargetClient {
	return &httpTargetClient{
		settings: settings,
		client:   &http.Client{Timeout: constants.PlatformAPITimeout},
	}
}

func (c *httpTargetClient) ListCalendarAppointments(ctx context.Context, tenantID, calendarID string, filter dto.CalendarAppointmentFilter) ([]map[string]any, error) {
	query := url.Values{}
	if !filter.StartDate.IsZero() {
		query.Set("startDate", filter.StartDate.Format(time.RFC3339))
	}
	if !filter.EndDate.IsZero() {
		query.Set("endDate", filter.EndDate.Format(time.RFC3339))
	}

	path := fmt.Sprintf("/calendars/%s/appointments?%s", url.PathEscape(calendarID), query.Encode())

	var result struct {
		Appointments []map[string]any `json:"appointments"`
	}
	if err := c.doJSON(ctx, tenantID, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Appointments, nil
}

func (c *httpTargetClient) CreateCalendarAppointment(ctx context.Context, tenantID, calendarID string, payload dto.CalendarAppointmentPayload) (*dto.CalendarAppointment, error) {
	path := fmt.Sprintf("/calendars/%s/appointments", url.PathEscape(calendarID))

	var appt dto.CalendarAppointment
	if err := c.doJSON(ctx, tenantID, http.MethodPost, path, payload, &appt); err != nil {
		return nil, err
	}
	if appt.ID == "" {
		return nil, fmt.Errorf("calendar appointment response missing id")
	}
	return &appt, nil
}

func (c *httpTargetClient) UpdateCalendarAppointment(ctx context.Context, tenantID, calendarID, appointmentID string, payload dto.CalendarAppointmentPayload) (*dto.CalendarAppointment, error) {
	path := fmt.Sprintf("/calendars/%s/appointments/%s", url.PathEscape(calendarID), url.PathEscape(appointmentID))

	var appt dto.CalendarAppointment
	if err := c.doJSON(ctx, tenantID, http.MethodPut, path, payload, &appt); err != nil {
		return nil, err
	}
	if appt.ID == "" {
		appt.ID = appointmentID
	}
	return &appt, nil
}

// accessToken returns a valid bearer token for the tenant, refreshing and
// persisting it when expired.
func (c *httpTargetClient) accessToken(ctx context.Context, tenantID string) (string, string, error) {
	cfg, ok := config.GetSafe()
	if !ok {
		return "", "", fmt.Errorf("config not initialized")
	}

	settings, appErr := c.settings.GetSettings(ctx, tenantID)
	if appErr != nil {
		return "", "", fmt.Errorf("load settings: %w", appErr)
	}
	if settings.CRMAccessToken == "" && settings.CRMRefreshToken == "" {
		return "", "", fmt.Errorf("tenant %s has no CRM credentials", tenantID)
	}

	current := &oauth2.Token{
		AccessToken:  settings.CRMAccessToken,
		RefreshToken: settings.CRMRefreshToken,
	}
	if settings.CRMTokenExpiresAt != nil {
		current.Expiry = *settings.CRMTokenExpiresAt
	}

	conf := &oauth2.Config{
		ClientID:     cfg.CRM.ClientID,
		ClientSecret: cfg.CRM.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cfg.CRM.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	token, err := conf.TokenSource(ctx, current).Token()
	if err != nil {
		return "", "", fmt.Errorf("refresh CRM token: %w", err)
	}

	if token.AccessToken != settings.CRMAccessToken {
		logger.Info("TargetClient:TokenRefreshed", "tenant_id", tenantID, "expires_at", token.Expiry)
		refresh := token.RefreshToken
		if refresh == "" {
			refresh = settings.CRMRefreshToken
		}
		if appErr := c.settings.UpdateCRMToken(ctx, tenantID, token.AccessToken, refresh, token.Expiry); appErr != nil {
			logger.Error("TargetClient:PersistToken:Error", "tenant_id", tenantID, "error", appErr)
			// Keep going with the fresh token; persistence will be retried next call.
		}
	}

	return token.AccessToken, settings.LocationID, nil
}

// doJSON performs one authenticated call against the CRM.
func (c *httpTargetClient) doJSON(ctx context.Context, tenantID, method, path string, body any, out any) error {
	cfg, ok := config.GetSafe()
	if !ok {
		return fmt.Errorf("config not initialized")
	}
	if cfg.CRM.BaseURL == "" {
		return fmt.Errorf("CRM base URL not configured")
	}

	token, locationID, err := c.accessToken(ctx, tenantID)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return marshalErr
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.CRM.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if locationID != "" {
		req.Header.Set("X-Location-Id", locationID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Error("TargetClient:Request:Error", "method", method, "path", path, "error", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("CRM API error (%d): %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
