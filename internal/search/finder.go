package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coldreach/email-generator/internal/model"
)

// Finder asks the generation backend for templates matching a description.
// It shares the generation API credential.
type Finder struct {
	url    string
	apiKey string
	client *http.Client
}

type findRequest struct {
	Description string `json:"description"`
}

// NewFinder creates a finder posting to url.
func NewFinder(url, apiKey string, client *http.Client) *Finder {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Finder{url: url, apiKey: apiKey, client: client}
}

// Search posts the description and returns the reported templates, cut to
// limit.
func (f *Finder) Search(ctx context.Context, description string, limit int) ([]model.Template, error) {
	const op = "find templates"

	if f.apiKey == "" {
		return nil, model.ErrConfigurationMissing
	}

	payload, err := json.Marshal(findRequest{Description: description})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &model.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &model.TransportError{Op: op, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var templates []model.Template
	if err := json.NewDecoder(resp.Body).Decode(&templates); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedResponse, err)
	}
	return truncate(templates, Limit(limit)), nil
}
