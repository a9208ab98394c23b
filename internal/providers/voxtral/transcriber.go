// Package voxtral implements segment transcription against a Voxtral-style
// speech-to-text HTTP API.
package voxtral

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Config controls the transcription API settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
	Timeout  time.Duration
}

// Transcriber implements ports.SegmentTranscriber. One finished audio
// segment in, appended text out; no streaming.
type Transcriber struct {
	cfg        Config
	httpClient *http.Client
}

func NewTranscriber(cfg Config) *Transcriber {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mistral.ai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "voxtral-mini-latest"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Transcriber{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Transcribe uploads the segment as a multipart form and returns the text.
func (t *Transcriber) Transcribe(ctx context.Context, encounterID string, segment []byte) (string, error) {
	if strings.TrimSpace(t.cfg.APIKey) == "" {
		return "", errors.New("voxtral: API key is not configured")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("model", t.cfg.Model); err != nil {
		return "", fmt.Errorf("voxtral: build request: %w", err)
	}
	if t.cfg.Language != "" {
		if err := writer.WriteField("language", t.cfg.Language); err != nil {
			return "", fmt.Errorf("voxtral: build request: %w", err)
		}
	}
	if err := writer.WriteField("encounter_id", encounterID); err != nil {
		return "", fmt.Errorf("voxtral: build request: %w", err)
	}

	part, err := writer.CreateFormFile("file", "segment.pcm")
	if err != nil {
		return "", fmt.Errorf("voxtral: build request: %w", err)
	}
	if _, err := part.Write(segment); err != nil {
		return "", fmt.Errorf("voxtral: build request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("voxtral: build request: %w", err)
	}

	url := strings.TrimRight(t.cfg.BaseURL, "/") + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", fmt.Errorf("voxtral: create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("voxtral: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("voxtral: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("voxtral: API error (HTTP %d): %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}

	var apiResp transcriptionResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("voxtral: parse response: %w", err)
	}
	return strings.TrimSpace(apiResp.Text), nil
}

type transcriptionResponse struct {
	Text string `json:"text"`
}
