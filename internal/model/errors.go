package model

import (
	"errors"
	"fmt"
)

// Standard domain errors
var (
	ErrConfigurationMissing = errors.New("configuration missing: credential required before calling the backend")
	ErrTransport            = errors.New("transport failure")
	ErrMalformedResponse    = errors.New("malformed response from backend")
	ErrTemplateNotFound     = errors.New("template not found")
	ErrTemplateExists       = errors.New("template already exists")
	ErrInvalidRequest       = errors.New("invalid request parameters")
)

// TransportError describes a networked call that did not complete
// successfully. StatusCode is zero when no response was received.
type TransportError struct {
	Op         string
	StatusCode int
	Status     string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: backend returned %s", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both ErrTransport and the underlying cause.
func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Err}
}

// InvalidRequest wraps ErrInvalidRequest with a reason.
func InvalidRequest(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, reason)
}
