package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/coldreach/email-generator/internal/model"
	"github.com/coldreach/email-generator/internal/search"
	"github.com/coldreach/email-generator/internal/store"
	"github.com/coldreach/email-generator/pkg/logger"
	"github.com/coldreach/email-generator/pkg/metrics"
	"github.com/coldreach/email-generator/pkg/tracing"
)

const (
	// PreviewLength is the content preview size used in listings.
	PreviewLength = 100

	// MaxSearchLimit caps the number of templates a search may return.
	MaxSearchLimit = 50
)

// TemplateService handles template operations.
type TemplateService struct {
	store         store.Store
	searcher      search.Searcher
	searchBackend string
	indexer       search.Indexer
	events        EventPublisher
	logger        *logger.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

// NewTemplateService creates a new template service. indexer and events may
// be nil.
func NewTemplateService(
	st store.Store,
	searcher search.Searcher,
	searchBackend string,
	indexer search.Indexer,
	events EventPublisher,
	log *logger.Logger,
) *TemplateService {
	return &TemplateService{
		store:         st,
		searcher:      searcher,
		searchBackend: searchBackend,
		indexer:       indexer,
		events:        events,
		logger:        log,
		tracer:        tracing.Tracer("template-service"),
		now:           time.Now,
	}
}

// Create authors a new template. The template is stored first; indexing into
// the search backend is best effort.
func (s *TemplateService) Create(ctx context.Context, userID string, req *model.CreateTemplateRequest) (*model.Template, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, model.InvalidRequest("name is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, model.InvalidRequest("content is required")
	}

	t := model.Template{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Name:      name,
		Content:   req.Content,
		Tags:      model.NormalizeTags(req.Tags),
		CreatedAt: s.now().UTC(),
	}

	if err := s.store.Add(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to add template: %w", err)
	}
	metrics.TemplatesCreatedTotal.Inc()

	if s.indexer != nil {
		if err := s.indexer.Index(ctx, t); err != nil {
			s.logger.Warn("failed to index template",
				zap.String("template_id", t.ID),
				zap.String("backend", s.searchBackend),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("template created",
		zap.String("template_id", t.ID),
		zap.String("user_id", userID),
		zap.Strings("tags", t.Tags),
	)

	publish(ctx, s.events, s.logger, &model.Event{
		Type:       model.EventTemplateCreated,
		TemplateID: t.ID,
		UserID:     userID,
		CreatedAt:  t.CreatedAt,
	})

	return &t, nil
}

// Get retrieves a template by ID.
func (s *TemplateService) Get(ctx context.Context, id string) (*model.Template, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns every template with a content preview.
func (s *TemplateService) List(ctx context.Context) (*model.ListTemplatesResponse, error) {
	templates, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	summaries := make([]model.TemplateSummary, len(templates))
	for i, t := range templates {
		summaries[i] = model.TemplateSummary{Template: t, Preview: t.Preview(PreviewLength)}
	}

	return &model.ListTemplatesResponse{
		Templates: summaries,
		Total:     len(summaries),
	}, nil
}

// Search finds templates related to a description.
func (s *TemplateService) Search(ctx context.Context, req *model.SearchTemplatesRequest) (*model.SearchTemplatesResponse, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, model.InvalidRequest("description is required")
	}
	limit := min(search.Limit(req.Limit), MaxSearchLimit)

	ctx, span := s.tracer.Start(ctx, "templates.search", trace.WithAttributes(
		attribute.String("search.backend", s.searchBackend),
		attribute.Int("search.limit", limit),
	))
	defer span.End()

	templates, err := s.searcher.Search(ctx, description, limit)
	if err != nil {
		metrics.RecordSearch(s.searchBackend, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("template search failed",
			zap.String("backend", s.searchBackend),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to search templates: %w", err)
	}
	metrics.RecordSearch(s.searchBackend, "success")
	span.SetAttributes(attribute.Int("search.results", len(templates)))

	if templates == nil {
		templates = []model.Template{}
	}
	return &model.SearchTemplatesResponse{Templates: templates}, nil
}
