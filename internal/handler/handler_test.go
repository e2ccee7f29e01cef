package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldreach/email-generator/internal/generator"
	"github.com/coldreach/email-generator/internal/middleware"
	"github.com/coldreach/email-generator/internal/model"
	"github.com/coldreach/email-generator/internal/search"
	"github.com/coldreach/email-generator/internal/service"
	"github.com/coldreach/email-generator/internal/store"
	"github.com/coldreach/email-generator/pkg/logger"
)

var seedTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeHistory struct {
	resp  *model.ListEventsResponse
	after uint64
	limit int
}

func (f *fakeHistory) Recent(_ context.Context, _ model.EventType, after uint64, limit int) (*model.ListEventsResponse, error) {
	f.after, f.limit = after, limit
	return f.resp, nil
}

type failingGenerator struct{ err error }

func (g failingGenerator) Generate(context.Context, *model.GenerationRequest) (*model.GenerationResponse, error) {
	return nil, g.err
}

func (g failingGenerator) Name() string { return "failing" }

// withUser fakes what Auth puts on the context.
func withUser(scopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserIDKey, "user-1")
			ctx = context.WithValue(ctx, middleware.ScopesKey, scopes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newRouter(t *testing.T, gen generator.Generator, history service.EventReader, scopes ...string) http.Handler {
	t.Helper()
	log := logger.NewNop()
	st := store.NewMemoryStore(store.SeedTemplates(seedTime)...)

	templates := NewTemplateHandler(
		service.NewTemplateService(st, search.NewStoreSearcher(st, nil), "store", nil, nil, log),
		log,
	)
	emails := NewEmailHandler(
		service.NewEmailService(gen, st, model.DefaultSettings(), nil, history, log),
		log,
	)

	r := chi.NewRouter()
	r.Use(withUser(scopes...))
	r.Get("/templates", templates.List)
	r.With(middleware.RequireScope(middleware.ScopeTemplatesWrite)).Post("/templates", templates.Create)
	r.Post("/templates/search", templates.Search)
	r.Get("/templates/{templateID}", templates.Get)
	r.Post("/emails/generate", emails.Generate)
	r.Get("/emails/events", emails.Events)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func localGenerator() generator.Generator {
	return generator.NewLocal(generator.WithDelay(0, 0))
}

const generateBody = `{
	"templateId": "1",
	"recipient": {"name": "Ana", "company": "Acme", "position": "CTO", "email": "ana@acme.test"}
}`

func TestTemplates_List(t *testing.T) {
	h := newRouter(t, localGenerator(), nil)

	rec := do(t, h, http.MethodGet, "/templates", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.ListTemplatesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	assert.Len(t, resp.Templates, 3)
}

func TestTemplates_Get(t *testing.T) {
	h := newRouter(t, localGenerator(), nil)

	rec := do(t, h, http.MethodGet, "/templates/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tpl model.Template
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tpl))
	assert.Equal(t, "Follow-up After Event", tpl.Name)

	rec = do(t, h, http.MethodGet, "/templates/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTemplates_CreateRequiresScope(t *testing.T) {
	body := `{"name": "Launch", "content": "Hi {{recipient.name}}", "tags": ["launch"]}`

	rec := do(t, newRouter(t, localGenerator(), nil), http.MethodPost, "/templates", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	h := newRouter(t, localGenerator(), nil, middleware.ScopeTemplatesWrite)
	rec = do(t, h, http.MethodPost, "/templates", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var tpl model.Template
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tpl))
	assert.Equal(t, "Launch", tpl.Name)

	rec = do(t, h, http.MethodGet, "/templates/"+tpl.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTemplates_CreateBadRequests(t *testing.T) {
	h := newRouter(t, localGenerator(), nil, middleware.ScopeTemplatesWrite)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{"trailing data", `{"name":"a","content":"b"} {}`},
		{"missing name", `{"content":"b"}`},
		{"empty content", `{"name":"a","content":"  "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/templates", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestTemplates_Search(t *testing.T) {
	h := newRouter(t, localGenerator(), nil)

	rec := do(t, h, http.MethodPost, "/templates/search", `{"description": "follow up after a conference", "limit": 2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.SearchTemplatesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Templates, 2)

	rec = do(t, h, http.MethodPost, "/templates/search", `{"description": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmails_Generate(t *testing.T) {
	h := newRouter(t, localGenerator(), nil)

	rec := do(t, h, http.MethodPost, "/emails/generate", generateBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp model.GenerateEmailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "1", resp.TemplateID)
	assert.Equal(t, "local", resp.Generator)
	assert.NotEmpty(t, resp.Subject)
	assert.Contains(t, resp.Content, "Hi Ana,")
	assert.NotContains(t, resp.Content, "{{recipient.name}}")
	assert.Equal(t, "Subject: "+resp.Subject+"\n\n"+resp.Content, resp.CopyText)
	assert.GreaterOrEqual(t, resp.Metadata.TokensUsed, generator.MinTokens)
}

type capturingGenerator struct {
	got *model.GenerationRequest
}

func (g *capturingGenerator) Generate(_ context.Context, req *model.GenerationRequest) (*model.GenerationResponse, error) {
	g.got = req
	return &model.GenerationResponse{Subject: "s", Content: "c", Metadata: model.ResponseMetadata{TokensUsed: 1}}, nil
}

func (g *capturingGenerator) Name() string { return "capturing" }

func TestEmails_GeneratePartialSettingsKeepDefaults(t *testing.T) {
	gen := &capturingGenerator{}
	h := newRouter(t, gen, nil)
	body := strings.Replace(generateBody, `"templateId": "1",`, `"templateId": "1", "settings": {"maxTokens": 500},`, 1)

	rec := do(t, h, http.MethodPost, "/emails/generate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.NotNil(t, gen.got)
	assert.Equal(t, model.DefaultTemperature, gen.got.Settings.Temperature)
	assert.Equal(t, 500, gen.got.Settings.MaxTokens)
}

func TestEmails_GenerateErrors(t *testing.T) {
	tests := []struct {
		name       string
		gen        generator.Generator
		body       string
		wantStatus int
	}{
		{"unknown template", localGenerator(), strings.Replace(generateBody, `"1"`, `"99"`, 1), http.StatusNotFound},
		{"missing recipient email", localGenerator(), strings.Replace(generateBody, `"ana@acme.test"`, `""`, 1), http.StatusBadRequest},
		{"temperature out of range", localGenerator(), strings.Replace(generateBody, `"templateId": "1",`, `"templateId": "1", "settings": {"temperature": 1.5},`, 1), http.StatusBadRequest},
		{"missing credential", failingGenerator{err: model.ErrConfigurationMissing}, generateBody, http.StatusServiceUnavailable},
		{"backend down", failingGenerator{err: &model.TransportError{Op: "generate", StatusCode: 500, Status: "500 Internal Server Error"}}, generateBody, http.StatusBadGateway},
		{"malformed", failingGenerator{err: model.ErrMalformedResponse}, generateBody, http.StatusBadGateway},
		{"unexpected", failingGenerator{err: errors.New("boom")}, generateBody, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newRouter(t, tt.gen, nil), http.MethodPost, "/emails/generate", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestEmails_GenerateHidesInternalErrors(t *testing.T) {
	h := newRouter(t, failingGenerator{err: errors.New("secret detail")}, nil)

	rec := do(t, h, http.MethodPost, "/emails/generate", generateBody)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret detail")
}

func TestEmails_Events(t *testing.T) {
	history := &fakeHistory{resp: &model.ListEventsResponse{
		Events:       []model.Event{{ID: "e1", Type: model.EventEmailGenerated, TemplateID: "1", Sequence: 8}},
		LastSequence: 8,
	}}
	h := newRouter(t, localGenerator(), history)

	rec := do(t, h, http.MethodGet, "/emails/events?after=7&limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(7), history.after)
	assert.Equal(t, 10, history.limit)

	var resp model.ListEventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, uint64(8), resp.LastSequence)

	for _, q := range []string{"limit=0", "limit=abc", fmt.Sprintf("limit=%d", service.MaxEventLimit+1), "after=-1"} {
		rec = do(t, h, http.MethodGet, "/emails/events?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestEmails_EventsWithoutHistory(t *testing.T) {
	h := newRouter(t, localGenerator(), nil)

	rec := do(t, h, http.MethodGet, "/emails/events", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler("local", map[string]Check{
		"redis": func(context.Context) error { return nil },
	})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","generator":"local"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReady_ReportsFailedChecks(t *testing.T) {
	h := NewHealthHandler("remote", map[string]Check{
		"redis":        func(context.Context) error { return nil },
		"vector_store": func(context.Context) error { return errors.New("connection refused") },
	})

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"not ready","failed":{"vector_store":"connection refused"}}`, rec.Body.String())
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(model.InvalidRequest("x")))
	assert.Equal(t, http.StatusConflict, statusFor(fmt.Errorf("wrap: %w", model.ErrTemplateExists)))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
	assert.Equal(t, StatusClientClosedRequest, statusFor(context.Canceled))
}
