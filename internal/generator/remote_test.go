package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldreach/email-generator/internal/model"
)

const validReply = `{
	"subject": "Quick question about Acme",
	"content": "Hi Ana",
	"metadata": {"tokensUsed": 212, "generatedAt": "2024-05-01T12:00:00Z"}
}`

func newTestRemote(t *testing.T, handler http.HandlerFunc, cfg RemoteConfig) *Remote {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg.URL = srv.URL
	return NewRemote(cfg, srv.Client(), nil)
}

func TestRemote_ForwardsRequest(t *testing.T) {
	var (
		gotAuth string
		gotBody model.GenerationRequest
	)
	g := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(validReply))
	}, RemoteConfig{APIKey: "configured"})

	req := anaRequest()
	req.CustomInstructions = "keep it short"

	resp, err := g.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Bearer configured", gotAuth)
	assert.Equal(t, req.Template.Content, gotBody.Template.Content)
	assert.Equal(t, req.Recipient, gotBody.Recipient)
	assert.Equal(t, "keep it short", gotBody.CustomInstructions)

	assert.Equal(t, "Quick question about Acme", resp.Subject)
	assert.Equal(t, "Hi Ana", resp.Content)
	assert.Equal(t, 212, resp.Metadata.TokensUsed)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), resp.Metadata.GeneratedAt)
}

func TestRemote_RequestKeyOverridesConfigured(t *testing.T) {
	var gotAuth string
	g := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(validReply))
	}, RemoteConfig{APIKey: "configured"})

	req := anaRequest()
	req.Settings.APIKey = "per-request"

	_, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Bearer per-request", gotAuth)
}

func TestRemote_MissingKeyFailsFast(t *testing.T) {
	called := false
	g := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, RemoteConfig{})

	_, err := g.Generate(context.Background(), anaRequest())
	assert.ErrorIs(t, err, model.ErrConfigurationMissing)
	assert.False(t, called, "no call may be issued without a credential")
}

func TestRemote_NonSuccessStatus(t *testing.T) {
	g := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}, RemoteConfig{APIKey: "k"})

	_, err := g.Generate(context.Background(), anaRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrTransport)

	var te *model.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
	assert.True(t, IsRetryable(err))
}

func TestRemote_ClientErrorIsNotRetryable(t *testing.T) {
	g := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, RemoteConfig{APIKey: "k"})

	_, err := g.Generate(context.Background(), anaRequest())
	assert.ErrorIs(t, err, model.ErrTransport)
	assert.False(t, IsRetryable(err))
}

func TestRemote_ConnectivityFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	g := NewRemote(RemoteConfig{URL: url, APIKey: "k"}, nil, nil)

	_, err := g.Generate(context.Background(), anaRequest())
	assert.ErrorIs(t, err, model.ErrTransport)

	var te *model.TransportError
	require.True(t, errors.As(err, &te))
	assert.Zero(t, te.StatusCode)
	assert.True(t, IsRetryable(err))
}

func TestRemote_AbsentFieldsPassThrough(t *testing.T) {
	g := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content": "only a body"}`))
	}, RemoteConfig{APIKey: "k"})

	resp, err := g.Generate(context.Background(), anaRequest())
	require.NoError(t, err)
	assert.Equal(t, "only a body", resp.Content)
	assert.Empty(t, resp.Subject)
	assert.Zero(t, resp.Metadata.TokensUsed)
	assert.True(t, resp.Metadata.GeneratedAt.IsZero())
}

func TestRemote_StrictRejectsMalformed(t *testing.T) {
	g := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content": "only a body"}`))
	}, RemoteConfig{APIKey: "k", Strict: true})

	_, err := g.Generate(context.Background(), anaRequest())
	assert.ErrorIs(t, err, model.ErrMalformedResponse)
}

func TestRemote_StrictAcceptsWellFormed(t *testing.T) {
	g := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(validReply))
	}, RemoteConfig{APIKey: "k", Strict: true})

	resp, err := g.Generate(context.Background(), anaRequest())
	require.NoError(t, err)
	assert.Equal(t, 212, resp.Metadata.TokensUsed)
}

func TestRemote_NonJSONBodyIsMalformed(t *testing.T) {
	g := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway</html>`))
	}, RemoteConfig{APIKey: "k"})

	_, err := g.Generate(context.Background(), anaRequest())
	assert.ErrorIs(t, err, model.ErrMalformedResponse)
}
