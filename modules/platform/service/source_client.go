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
)

// SourceClient is the field-service scheduling backend API. Listings return
// raw payloads; the mapper package owns normalization.
type SourceClient interface {
	ListAppointments(ctx context.Context, tenantID string, filter dto.AppointmentFilter) ([]map[string]any, error)
	GetAppointment(ctx context.Context, tenantID, appointmentID string) (map[string]any, error)
	CreateAppointment(ctx context.Context, tenantID string, payload dto.SourceAppointmentPayload) (map[string]any, error)
	UpdateAppointment(ctx context.Context, tenantID, appointmentID string, payload dto.SourceAppointmentPayload) (map[string]any, error)
	ListTeams(ctx context.Context, tenantID string) ([]map[string]any, error)
	FindOrCreateLead(ctx context.Context, tenantID string, payload dto.LeadPayload) (*dto.Lead, error)
	CreateQuote(ctx context.Context, tenantID string, payload dto.QuotePayload) (*dto.Quote, error)
	// CalculatePrice returns an error when the backend rejects the interval;
	// a rejection is an authoritative "not bookable" signal.
	CalculatePrice(ctx context.Context, tenantID string, payload dto.PricePayload) error
	BookQuote(ctx context.Context, tenantID string, payload dto.BookQuotePayload) (*dto.Booking, error)
}

type httpSourceClient struct {
	settings tenantService.SettingsService
	client   *http.Client
}

func NewSourceClient(settings tenantService.SettingsService) SourceClient {
	return &httpSourceClient{
		settings: settings,
		client:   &http.Client{Timeout: constants.PlatformAPITimeout},
	}
}

func (c *httpSourceClient) ListAppointments(ctx context.Context, tenantID string, filter dto.AppointmentFilter) ([]map[string]any, error) {
	query := url.Values{}
	if !filter.StartDate.IsZero() {
		query.Set("start", filter.StartDate.Format(time.RFC3339))
	}
	if !filter.EndDate.IsZero() {
		query.Set("end", filter.EndDate.Format(time.RFC3339))
	}
	if filter.TeamID != "" {
		query.Set("team_id", filter.TeamID)
	}
	if filter.LeadID != "" {
		query.Set("lead_id", filter.LeadID)
	}
	if filter.QuoteID != "" {
		query.Set("quote_id", filter.QuoteID)
	}

	var result struct {
		Appointments []map[string]any `json:"appointments"`
	}
	if err := c.doJSON(ctx, tenantID, http.MethodGet, "/v1/appointments?"+query.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return result.Appointments, nil
}

func (c *httpSourceClient) GetAppointment(ctx context.Context, tenantID, appointmentID string) (map[string]any, error) {
	var result map[string]any
	if err := c.doJSON(ctx, tenantID, http.MethodGet, "/v1/appointments/"+url.PathEscape(appointmentID), nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *httpSourceClient) CreateAppointment(ctx context.Context, tenantID string, payload dto.SourceAppointmentPayload) (map[string]any, error) {
	var result map[string]any
	if err := c.doJSON(ctx, tenantID, http.MethodPost, "/v1/appointments", payload, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *httpSourceClient) UpdateAppointment(ctx context.Context, tenantID, appointmentID string, payload dto.SourceAppointmentPayload) (map[string]any, error) {
	var result map[string]any
	if err := c.doJSON(ctx, tenantID, http.MethodPut, "/v1/appointments/"+url.PathEscape(appointmentID), payload, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *httpSourceClient) ListTeams(ctx context.Context, tenantID string) ([]map[string]any, error) {
	var result struct {
		Teams []map[string]any `json:"teams"`
	}
	if err := c.doJSON(ctx, tenantID, http.MethodGet, "/v1/teams", nil, &result); err != nil {
		return nil, err
	}
	return result.Teams, nil
}

func (c *httpSourceClient) FindOrCreateLead(ctx context.Context, tenantID string, payload dto.LeadPayload) (*dto.Lead, error) {
	var lead dto.Lead
	if err := c.doJSON(ctx, tenantID, http.MethodPost, "/v1/leads/find-or-create", payload, &lead); err != nil {
		return nil, err
	}
	if lead.ID == "" {
		return nil, fmt.Errorf("lead response missing id")
	}
	return &lead, nil
}

func (c *httpSourceClient) CreateQuote(ctx context.Context, tenantID string, payload dto.QuotePayload) (*dto.Quote, error) {
	var quote dto.Quote
	if err := c.doJSON(ctx, tenantID, http.MethodPost, "/v1/quotes", payload, &quote); err != nil {
		return nil, err
	}
	if quote.ID == "" {
		return nil, fmt.Errorf("quote response missing id")
	}
	return &quote, nil
}

func (c *httpSourceClient) CalculatePrice(ctx context.Context, tenantID string, payload dto.PricePayload) error {
	return c.doJSON(ctx, tenantID, http.MethodPost, "/v1/quotes/price", payload, nil)
}

func (c *httpSourceClient) BookQuote(ctx context.Context, tenantID string, payload dto.BookQuotePayload) (*dto.Booking, error) {
	var booking dto.Booking
	if err := c.doJSON(ctx, tenantID, http.MethodPost, "/v1/quotes/book", payload, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// doJSON performs one authenticated call against the scheduling backend.
func (c *httpSourceClient) doJSON(ctx context.Context, tenantID, method, path string, body any, out any) error {
	cfg, ok := config.GetSafe()
	if !ok {
		return fmt.Errorf("config not initialized")
	}
	if cfg.FieldService.BaseURL == "" {
		return fmt.Errorf("field service base URL not configured")
	}

	settings, appErr := c.settings.GetSettings(ctx, tenantID)
	if appErr != nil {
		return fmt.Errorf("load settings: %w", appErr)
	}
	if settings.SourceAPIKey == "" {
		return fmt.Errorf("tenant %s has no field service API key", tenantID)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.FieldService.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", settings.SourceAPIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Error("SourceClient:Request:Error", "method", method, "path", path, "error", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("field service API error (%d): %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
