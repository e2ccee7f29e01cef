package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldreach/email-generator/internal/model"
	"github.com/coldreach/email-generator/internal/store"
)

func TestFinder_Search(t *testing.T) {
	var got findRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gen-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(store.SeedTemplates(time.Now()))
	}))
	t.Cleanup(srv.Close)

	f := NewFinder(srv.URL, "gen-key", srv.Client())
	templates, err := f.Search(context.Background(), "introduce a referral", 2)
	require.NoError(t, err)

	assert.Equal(t, "introduce a referral", got.Description)
	assert.Equal(t, []string{"1", "2"}, ids(templates))
}

func TestFinder_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := NewFinder(srv.URL, "", srv.Client()).Search(context.Background(), "x", 1)
	assert.ErrorIs(t, err, model.ErrConfigurationMissing)

	_, err = NewFinder(srv.URL, "k", srv.Client()).Search(context.Background(), "x", 1)
	assert.ErrorIs(t, err, model.ErrTransport)
}
