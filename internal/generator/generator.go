// Package generator produces personalized cold emails from a template and a
// recipient. Local synthesizes the result offline, Remote forwards the request
// to a generation API and LLM prompts a language model directly.
package generator

import (
	"context"
	"time"

	"github.com/coldreach/email-generator/internal/model"
)

// Generator turns one generation request into one response.
type Generator interface {
	Generate(ctx context.Context, req *model.GenerationRequest) (*model.GenerationResponse, error)

	// Name identifies the implementation in logs, metrics and events.
	Name() string
}

// Clock returns the current time.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
