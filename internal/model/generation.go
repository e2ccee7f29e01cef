package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Default AI settings applied when a request omits them.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 400
)

// GenerationSettings tune the AI call. APIKey is an optional per-request
// credential that overrides the configured one.
type GenerationSettings struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
	APIKey      string  `json:"apiKey,omitempty"`
}

// DefaultSettings returns the settings used when none are supplied.
func DefaultSettings() GenerationSettings {
	return GenerationSettings{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// UnmarshalJSON fills fields absent from the payload with DefaultSettings.
// Explicit values, zero included, are kept.
func (s *GenerationSettings) UnmarshalJSON(data []byte) error {
	type plain GenerationSettings
	p := plain(DefaultSettings())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = GenerationSettings(p)
	return nil
}

// GenerationRequest is the full input of one generation call.
type GenerationRequest struct {
	Template           Template           `json:"template"`
	Recipient          Recipient          `json:"recipient"`
	Settings           GenerationSettings `json:"settings"`
	CustomInstructions string             `json:"customInstructions,omitempty"`
}

// ResponseMetadata reports usage for one generation call.
type ResponseMetadata struct {
	TokensUsed  int       `json:"tokensUsed"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// GenerationResponse is the output of one generation call.
type GenerationResponse struct {
	Subject  string           `json:"subject"`
	Content  string           `json:"content"`
	Metadata ResponseMetadata `json:"metadata"`
}

// Clipboard renders the response the way it is copied out of the preview.
func (r *GenerationResponse) Clipboard() string {
	return fmt.Sprintf("Subject: %s\n\n%s", r.Subject, r.Content)
}

// GenerateEmailRequest is the API request to generate an email. Either
// TemplateID or an inline Template must be provided.
type GenerateEmailRequest struct {
	TemplateID         string              `json:"templateId,omitempty"`
	Template           *Template           `json:"template,omitempty"`
	Recipient          Recipient           `json:"recipient"`
	Settings           *GenerationSettings `json:"settings,omitempty"`
	CustomInstructions string              `json:"customInstructions,omitempty"`
}

// GenerateEmailResponse is the API response for a generated email.
type GenerateEmailResponse struct {
	GenerationResponse
	TemplateID string `json:"templateId"`
	Generator  string `json:"generator"`
	CopyText   string `json:"copyText"`
}
