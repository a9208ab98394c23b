// Package emr provides the HTTP client for the clinic records system. The
// cockpit treats it as an opaque collaborator; every persistence operation
// of an encounter flows through this client.
package emr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"medcockpit/internal/domain"
	"medcockpit/pkg/logging"
)

// Config controls how the records API is reached.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client implements ports.EncounterService against the records API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *logging.Logger
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartEncounter creates the clinical session for a queued patient.
func (c *Client) StartEncounter(ctx context.Context, patientID string) (domain.Encounter, error) {
	var encounter domain.Encounter
	payload := map[string]string{"patientId": patientID}
	if err := c.doJSON(ctx, http.MethodPost, "/encounters", payload, &encounter); err != nil {
		return domain.Encounter{}, fmt.Errorf("emr: start encounter: %w", err)
	}
	if encounter.StartedAt.IsZero() {
		encounter.StartedAt = time.Now()
	}
	return encounter, nil
}

// FetchBriefing loads the pre-visit summary for a patient.
func (c *Client) FetchBriefing(ctx context.Context, patientID string) (domain.Briefing, error) {
	var briefing domain.Briefing
	path := "/patients/" + url.PathEscape(patientID) + "/briefing"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &briefing); err != nil {
		return domain.Briefing{}, fmt.Errorf("emr: fetch briefing: %w", err)
	}
	return briefing, nil
}

// FetchHistory loads the past-encounters summary list.
func (c *Client) FetchHistory(ctx context.Context, patientID string) ([]domain.HistoryEntry, error) {
	var out struct {
		Entries []domain.HistoryEntry `json:"entries"`
	}
	path := "/patients/" + url.PathEscape(patientID) + "/history"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("emr: fetch history: %w", err)
	}
	return out.Entries, nil
}

// FetchNote loads the existing or machine-drafted structured note.
func (c *Client) FetchNote(ctx context.Context, encounterID string) (domain.StructuredNote, error) {
	var note domain.StructuredNote
	path := "/encounters/" + url.PathEscape(encounterID) + "/note"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &note); err != nil {
		return domain.StructuredNote{}, fmt.Errorf("emr: fetch note: %w", err)
	}
	return note, nil
}

// UpdateNoteField persists one note field.
func (c *Client) UpdateNoteField(ctx context.Context, noteID string, field domain.NoteField, value string) error {
	path := "/notes/" + url.PathEscape(noteID) + "/fields/" + url.PathEscape(string(field))
	payload := map[string]string{"value": value}
	if err := c.doJSON(ctx, http.MethodPut, path, payload, nil); err != nil {
		return fmt.Errorf("emr: update note field %s: %w", field, err)
	}
	return nil
}

// MarkNoteReviewed sets the validated flag on the note.
func (c *Client) MarkNoteReviewed(ctx context.Context, noteID string) error {
	path := "/notes/" + url.PathEscape(noteID) + "/review"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("emr: mark note reviewed: %w", err)
	}
	return nil
}

// SaveVitals persists the full vitals snapshot for an encounter.
func (c *Client) SaveVitals(ctx context.Context, encounterID string, record domain.VitalSigns) error {
	path := "/encounters/" + url.PathEscape(encounterID) + "/vitals"
	if err := c.doJSON(ctx, http.MethodPut, path, record, nil); err != nil {
		return fmt.Errorf("emr: save vitals: %w", err)
	}
	return nil
}

// UpdateSection replaces one pre-visit section with a typed edit payload.
// The switch is exhaustive over the SectionEdit variants.
func (c *Client) UpdateSection(ctx context.Context, patientID string, edit domain.SectionEdit) error {
	var payload any
	switch e := edit.(type) {
	case domain.AllergiesEdit:
		payload = map[string]any{"allergies": e.Allergies}
	case domain.MedicationsEdit:
		payload = map[string]any{"medications": e.Medications}
	case domain.HistoryEdit:
		payload = map[string]any{"text": e.Text}
	case domain.IntakeEdit:
		payload = map[string]any{"form": e.Form}
	default:
		return fmt.Errorf("emr: unsupported section edit %T", edit)
	}

	path := "/patients/" + url.PathEscape(patientID) + "/sections/" + url.PathEscape(string(edit.Section()))
	if err := c.doJSON(ctx, http.MethodPut, path, payload, nil); err != nil {
		return fmt.Errorf("emr: update section %s: %w", edit.Section(), err)
	}
	return nil
}

// FinalizeEncounter closes the clinical session.
func (c *Client) FinalizeEncounter(ctx context.Context, encounterID string) error {
	path := "/encounters/" + url.PathEscape(encounterID) + "/finalize"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("emr: finalize encounter: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method string, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Error("records API error",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
		)
		return fmt.Errorf("records API returned %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
