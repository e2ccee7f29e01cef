package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/coldreach/email-generator/internal/generator"
	"github.com/coldreach/email-generator/internal/model"
	"github.com/coldreach/email-generator/internal/store"
	"github.com/coldreach/email-generator/pkg/logger"
	"github.com/coldreach/email-generator/pkg/metrics"
	"github.com/coldreach/email-generator/pkg/tracing"
)

// Event listing bounds.
const (
	DefaultEventLimit = 20
	MaxEventLimit     = 100
)

// EmailService handles email generation.
type EmailService struct {
	generator generator.Generator
	templates store.Store
	defaults  model.GenerationSettings
	events    EventPublisher
	history   EventReader
	logger    *logger.Logger
	tracer    trace.Tracer
}

// NewEmailService creates a new email service. events and history may be nil.
func NewEmailService(
	gen generator.Generator,
	templates store.Store,
	defaults model.GenerationSettings,
	events EventPublisher,
	history EventReader,
	log *logger.Logger,
) *EmailService {
	return &EmailService{
		generator: gen,
		templates: templates,
		defaults:  defaults,
		events:    events,
		history:   history,
		logger:    log,
		tracer:    tracing.Tracer("email-service"),
	}
}

// Generator returns the name of the configured generator.
func (s *EmailService) Generator() string {
	return s.generator.Name()
}

// Generate resolves the template, applies default settings and runs one
// generation call. No retry is attempted on failure.
func (s *EmailService) Generate(ctx context.Context, userID string, req *model.GenerateEmailRequest) (*model.GenerateEmailResponse, error) {
	tpl, err := s.resolveTemplate(ctx, req)
	if err != nil {
		return nil, err
	}

	settings, err := s.settings(req.Settings)
	if err != nil {
		return nil, err
	}

	genReq := &model.GenerationRequest{
		Template:           tpl,
		Recipient:          req.Recipient,
		Settings:           settings,
		CustomInstructions: req.CustomInstructions,
	}

	name := s.generator.Name()
	ctx, span := s.tracer.Start(ctx, "email.generate", trace.WithAttributes(
		attribute.String("generator", name),
		attribute.String("template.id", tpl.ID),
		attribute.Float64("settings.temperature", settings.Temperature),
		attribute.Int("settings.max_tokens", settings.MaxTokens),
	))
	defer span.End()

	log := s.logger.With(
		zap.String("generator", name),
		zap.String("template_id", tpl.ID),
		zap.String("user_id", userID),
	)

	start := time.Now()
	resp, err := s.generator.Generate(ctx, genReq)
	elapsed := time.Since(start)

	if err != nil {
		metrics.RecordGeneration(name, "error", elapsed.Seconds(), 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("email generation failed",
			zap.Duration("duration", elapsed),
			zap.Bool("retryable", generator.IsRetryable(err)),
			zap.Error(err),
		)
		if !errors.Is(err, context.Canceled) {
			publish(ctx, s.events, log, &model.Event{
				Type:       model.EventGenerationFailed,
				TemplateID: tpl.ID,
				UserID:     userID,
				Generator:  name,
				LatencyMs:  elapsed.Milliseconds(),
				Reason:     err.Error(),
			})
		}
		return nil, fmt.Errorf("failed to generate email: %w", err)
	}

	metrics.RecordGeneration(name, "success", elapsed.Seconds(), resp.Metadata.TokensUsed)
	span.SetAttributes(attribute.Int("tokens.used", resp.Metadata.TokensUsed))
	log.Info("email generated",
		zap.Int("tokens_used", resp.Metadata.TokensUsed),
		zap.Duration("duration", elapsed),
	)

	publish(ctx, s.events, log, &model.Event{
		Type:           model.EventEmailGenerated,
		TemplateID:     tpl.ID,
		UserID:         userID,
		Generator:      name,
		RecipientEmail: req.Recipient.Email,
		Company:        req.Recipient.Company,
		TokensUsed:     resp.Metadata.TokensUsed,
		LatencyMs:      elapsed.Milliseconds(),
	})

	return &model.GenerateEmailResponse{
		GenerationResponse: *resp,
		TemplateID:         tpl.ID,
		Generator:          name,
		CopyText:           resp.Clipboard(),
	}, nil
}

// History lists recent generation events.
func (s *EmailService) History(ctx context.Context, afterSequence uint64, limit int) (*model.ListEventsResponse, error) {
	if s.history == nil {
		return nil, fmt.Errorf("%w: event history requires NATS", model.ErrConfigurationMissing)
	}
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	limit = min(limit, MaxEventLimit)

	resp, err := s.history.Recent(ctx, model.EventEmailGenerated, afterSequence, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return resp, nil
}

func (s *EmailService) resolveTemplate(ctx context.Context, req *model.GenerateEmailRequest) (model.Template, error) {
	if req.Template != nil {
		if strings.TrimSpace(req.Template.Content) == "" {
			return model.Template{}, model.InvalidRequest("template content is required")
		}
		return req.Template.Clone(), nil
	}
	if req.TemplateID == "" {
		return model.Template{}, model.InvalidRequest("templateId or template is required")
	}

	tpl, err := s.templates.Get(ctx, req.TemplateID)
	if err != nil {
		return model.Template{}, err
	}
	return tpl, nil
}

// settings fills omitted values from the defaults and checks ranges.
func (s *EmailService) settings(in *model.GenerationSettings) (model.GenerationSettings, error) {
	if in == nil {
		return s.defaults, nil
	}
	out := *in
	if out.MaxTokens == 0 {
		out.MaxTokens = s.defaults.MaxTokens
	}
	if out.Temperature < 0 || out.Temperature > 1 {
		return model.GenerationSettings{}, model.InvalidRequest("temperature must be between 0 and 1")
	}
	if out.MaxTokens < 0 {
		return model.GenerationSettings{}, model.InvalidRequest("maxTokens must be positive")
	}
	return out, nil
}
