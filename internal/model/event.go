package model

import (
	"time"
)

// EventType represents the type of an audit event.
type EventType string

const (
	EventEmailGenerated   EventType = "email_generated"
	EventGenerationFailed EventType = "generation_failed"
	EventTemplateCreated  EventType = "template_created"
)

// Event records something that happened to a template or a generation.
// Only the fields relevant to Type are set.
type Event struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	TemplateID     string    `json:"templateId"`
	UserID         string    `json:"userId,omitempty"`
	Generator      string    `json:"generator,omitempty"`
	RecipientEmail string    `json:"recipientEmail,omitempty"`
	Company        string    `json:"company,omitempty"`
	TokensUsed     int       `json:"tokensUsed,omitempty"`
	LatencyMs      int64     `json:"latencyMs,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	Sequence       uint64    `json:"sequence,omitempty"`
}

// ListEventsResponse is the response for listing recent events.
type ListEventsResponse struct {
	Events       []Event `json:"events"`
	LastSequence uint64  `json:"lastSequence,omitempty"`
	HasMore      bool    `json:"hasMore"`
}
