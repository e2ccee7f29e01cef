package main

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldreach/email-generator/internal/config"
	"github.com/coldreach/email-generator/internal/handler"
	"github.com/coldreach/email-generator/internal/model"
	"github.com/coldreach/email-generator/internal/search"
	"github.com/coldreach/email-generator/pkg/logger"
)

func TestDefaultSettings(t *testing.T) {
	s := defaultSettings(&config.Config{DefaultTemperature: 0.3, DefaultMaxTokens: 250})
	assert.Equal(t, model.GenerationSettings{Temperature: 0.3, MaxTokens: 250}, s)

	s = defaultSettings(&config.Config{DefaultTemperature: 4, DefaultMaxTokens: -1})
	assert.Equal(t, model.DefaultSettings(), s)
}

func TestBuildGenerator(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()

	gen, err := buildGenerator(ctx, &config.Config{Generator: config.GeneratorLocal}, log)
	require.NoError(t, err)
	assert.Equal(t, "local", gen.Name())

	gen, err = buildGenerator(ctx, &config.Config{Generator: config.GeneratorRemote, GenerationAPIURL: "http://localhost:1"}, log)
	require.NoError(t, err)
	assert.Equal(t, "remote", gen.Name())

	_, err = buildGenerator(ctx, &config.Config{Generator: config.GeneratorLLM, LLMProvider: "nope"}, log)
	assert.Error(t, err)

	_, err = buildGenerator(ctx, &config.Config{Generator: "magic"}, log)
	assert.Error(t, err)
}

func TestBuildStore_Memory(t *testing.T) {
	st, closeFn, err := buildStore(context.Background(), &config.Config{TemplateStore: config.StoreMemory}, logger.NewNop(), map[string]handler.Check{})
	require.NoError(t, err)
	defer closeFn()

	templates, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, templates, 3)
}

func TestBuildStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	checks := map[string]handler.Check{}

	st, closeFn, err := buildStore(context.Background(), &config.Config{
		TemplateStore:  config.StoreRedis,
		RedisAddr:      mr.Addr(),
		RedisKeyPrefix: "test",
	}, logger.NewNop(), checks)
	require.NoError(t, err)
	defer closeFn()

	tpl, err := st.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Value Proposition", tpl.Name)
	require.Contains(t, checks, "redis")
	assert.NoError(t, checks["redis"](context.Background()))
}

func TestBuildStore_Unknown(t *testing.T) {
	_, _, err := buildStore(context.Background(), &config.Config{TemplateStore: "sqlite"}, logger.NewNop(), nil)
	assert.Error(t, err)
}

func TestBuildSearch(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()
	st, closeStore, err := buildStore(ctx, &config.Config{TemplateStore: config.StoreMemory}, log, nil)
	require.NoError(t, err)
	defer closeStore()

	searcher, indexer, closeFn, err := buildSearch(ctx, &config.Config{SearchBackend: config.SearchStore, SearchRanker: "shuffle"}, st, log, nil)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &search.StoreSearcher{}, searcher)
	assert.Nil(t, indexer)

	searcher, _, _, err = buildSearch(ctx, &config.Config{SearchBackend: config.SearchFinder, TemplateFinderURL: "http://localhost:1"}, st, log, nil)
	require.NoError(t, err)
	assert.IsType(t, &search.Finder{}, searcher)

	_, _, _, err = buildSearch(ctx, &config.Config{SearchBackend: "elastic"}, st, log, nil)
	assert.Error(t, err)
}
