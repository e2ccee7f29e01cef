package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/coldreach/email-generator/internal/model"
	"github.com/coldreach/email-generator/pkg/logger"
)

// DefaultCollection is the vector store collection holding templates.
const DefaultCollection = "email_templates"

// VectorStoreConfig configures a VectorStoreClient.
type VectorStoreConfig struct {
	BaseURL    string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// VectorStoreClient talks to a document vector store over REST. Templates
// are stored as documents whose text is the template content.
type VectorStoreClient struct {
	cfg    VectorStoreConfig
	client *http.Client
	log    *logger.Logger
}

type vectorMetadata struct {
	Name      string   `json:"name"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"createdAt"`
}

type vectorDocument struct {
	ID         string         `json:"id"`
	Document   string         `json:"document"`
	Metadata   vectorMetadata `json:"metadata"`
	Collection string         `json:"collection,omitempty"`
}

type vectorQuery struct {
	QueryText  string `json:"queryText"`
	Collection string `json:"collection"`
	Limit      int    `json:"limit"`
}

type vectorQueryResult struct {
	Results []vectorDocument `json:"results"`
}

// NewVectorStoreClient creates a vector store client.
func NewVectorStoreClient(cfg VectorStoreConfig, client *http.Client, log *logger.Logger) *VectorStoreClient {
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = logger.NewNop()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &VectorStoreClient{cfg: cfg, client: client, log: log}
}

// Index adds a template to the collection.
func (c *VectorStoreClient) Index(ctx context.Context, t model.Template) error {
	doc := vectorDocument{
		ID:       t.ID,
		Document: t.Content,
		Metadata: vectorMetadata{
			Name:      t.Name,
			Tags:      t.Tags,
			CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
		Collection: c.cfg.Collection,
	}
	resp, err := c.do(ctx, "add template", http.MethodPost, "/add", doc)
	if err != nil {
		return err
	}
	resp.Body.Close()

	c.log.Debug("template indexed", zap.String("template_id", t.ID), zap.String("name", t.Name))
	return nil
}

// Seed indexes templates one after another, stopping at the first failure.
func (c *VectorStoreClient) Seed(ctx context.Context, templates []model.Template) error {
	for _, t := range templates {
		if err := c.Index(ctx, t); err != nil {
			return fmt.Errorf("seed template %s: %w", t.ID, err)
		}
	}
	c.log.Info("vector store seeded", zap.Int("count", len(templates)))
	return nil
}

// Get fetches a template by id. A response without a document reports
// model.ErrTemplateNotFound.
func (c *VectorStoreClient) Get(ctx context.Context, id string) (*model.Template, error) {
	q := url.Values{}
	q.Set("id", id)
	q.Set("collection", c.cfg.Collection)

	resp, err := c.do(ctx, "get template", http.MethodGet, "/get?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var doc vectorDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedResponse, err)
	}
	if doc.Document == "" {
		return nil, model.ErrTemplateNotFound
	}
	doc.ID = id
	t := c.toTemplate(doc)
	return &t, nil
}

// Search queries the collection for templates similar to description.
func (c *VectorStoreClient) Search(ctx context.Context, description string, limit int) ([]model.Template, error) {
	limit = Limit(limit)
	resp, err := c.do(ctx, "query templates", http.MethodPost, "/query", vectorQuery{
		QueryText:  description,
		Collection: c.cfg.Collection,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result vectorQueryResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedResponse, err)
	}

	out := make([]model.Template, 0, len(result.Results))
	for _, doc := range result.Results {
		out = append(out, c.toTemplate(doc))
	}
	return truncate(out, limit), nil
}

// Health reports whether the vector store is configured and reachable.
func (c *VectorStoreClient) Health(ctx context.Context) error {
	resp, err := c.do(ctx, "health check", http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *VectorStoreClient) toTemplate(doc vectorDocument) model.Template {
	t := model.Template{
		ID:      doc.ID,
		Name:    doc.Metadata.Name,
		Content: doc.Document,
		Tags:    doc.Metadata.Tags,
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if doc.Metadata.CreatedAt != "" {
		ts, err := time.Parse(time.RFC3339Nano, doc.Metadata.CreatedAt)
		if err != nil {
			c.log.Warn("vector store document has unparseable createdAt",
				zap.String("template_id", doc.ID),
				zap.Error(err),
			)
		}
		t.CreatedAt = ts
	}
	return t
}

// do issues an authenticated request. Non-2xx responses are closed and
// returned as a *model.TransportError.
func (c *VectorStoreClient) do(ctx context.Context, op, method, path string, body any) (*http.Response, error) {
	if c.cfg.APIKey == "" {
		return nil, model.ErrConfigurationMissing
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &model.TransportError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &model.TransportError{Op: op, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return resp, nil
}
