package main

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/coldreach/email-generator/internal/config"
	"github.com/coldreach/email-generator/internal/generator"
	"github.com/coldreach/email-generator/internal/handler"
	"github.com/coldreach/email-generator/internal/llm"
	"github.com/coldreach/email-generator/internal/model"
	"github.com/coldreach/email-generator/internal/personalize"
	"github.com/coldreach/email-generator/internal/search"
	"github.com/coldreach/email-generator/internal/store"
	"github.com/coldreach/email-generator/pkg/logger"
)

// seedTimeout bounds startup calls to external backends.
const seedTimeout = 30 * time.Second

func noop() {}

func defaultSettings(cfg *config.Config) model.GenerationSettings {
	s := model.DefaultSettings()
	if cfg.DefaultTemperature >= 0 && cfg.DefaultTemperature <= 1 {
		s.Temperature = cfg.DefaultTemperature
	}
	if cfg.DefaultMaxTokens > 0 {
		s.MaxTokens = cfg.DefaultMaxTokens
	}
	return s
}

func buildStore(ctx context.Context, cfg *config.Config, log *logger.Logger, checks map[string]handler.Check) (store.Store, func(), error) {
	seed := store.SeedTemplates(time.Now().UTC())

	switch cfg.TemplateStore {
	case config.StoreMemory:
		return store.NewMemoryStore(seed...), noop, nil

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		rs := store.NewRedisStore(client, cfg.RedisKeyPrefix)

		ctx, cancel := context.WithTimeout(ctx, seedTimeout)
		defer cancel()
		if err := rs.Ping(ctx); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis unreachable: %w", err)
		}
		added, err := rs.Seed(ctx, seed)
		if err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to seed templates: %w", err)
		}
		log.Info("redis template store ready", zap.Int("seeded", added))

		checks["redis"] = rs.Ping
		return rs, func() { client.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown template store %q", cfg.TemplateStore)
	}
}

func buildSearch(
	ctx context.Context,
	cfg *config.Config,
	st store.Store,
	log *logger.Logger,
	checks map[string]handler.Check,
) (search.Searcher, search.Indexer, func(), error) {
	switch cfg.SearchBackend {
	case config.SearchStore:
		ranker := search.RankerByName(cfg.SearchRanker, personalize.DefaultRand())
		return search.NewStoreSearcher(st, ranker), nil, noop, nil

	case config.SearchFinder:
		return search.NewFinder(cfg.TemplateFinderURL, cfg.GenerationAPIKey, nil), nil, noop, nil

	case config.SearchRemote:
		vs := search.NewVectorStoreClient(search.VectorStoreConfig{
			BaseURL:    cfg.VectorStoreURL,
			APIKey:     cfg.VectorStoreAPIKey,
			Collection: cfg.VectorCollection,
		}, nil, log.Named("vectorstore"))
		seedIndex(ctx, st, vs.Seed, log)
		checks["vector_store"] = vs.Health
		return vs, vs, noop, nil

	case config.SearchQdrant:
		client, err := qdrant.NewClient(&qdrant.Config{
			Host: cfg.QdrantHost,
			Port: cfg.QdrantPort,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create qdrant client: %w", err)
		}
		embedder, err := llm.NewEmbedder(ctx, llm.Provider(cfg.EmbeddingProvider), cfg.EmbeddingAPIKey(), cfg.EmbeddingModel)
		if err != nil {
			client.Close()
			return nil, nil, nil, fmt.Errorf("failed to create embedder: %w", err)
		}
		idx := search.NewQdrantIndex(client, cfg.VectorCollection, embedder, log.Named("qdrant"))

		ensureCtx, cancel := context.WithTimeout(ctx, seedTimeout)
		defer cancel()
		if err := idx.EnsureCollection(ensureCtx, uint64(cfg.EmbeddingDimension)); err != nil {
			client.Close()
			return nil, nil, nil, err
		}
		seedIndex(ctx, st, idx.Seed, log)
		checks["qdrant"] = idx.Health
		return idx, idx, func() { client.Close() }, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown search backend %q", cfg.SearchBackend)
	}
}

// seedIndex indexes the stored templates. A backend that is down at startup
// only degrades search, so failures are logged.
func seedIndex(ctx context.Context, st store.Store, seed func(context.Context, []model.Template) error, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(ctx, seedTimeout)
	defer cancel()

	templates, err := st.List(ctx)
	if err == nil {
		err = seed(ctx, templates)
	}
	if err != nil {
		log.Warn("failed to seed search index", zap.Error(err))
		return
	}
	log.Info("search index seeded", zap.Int("templates", len(templates)))
}

func buildGenerator(ctx context.Context, cfg *config.Config, log *logger.Logger) (generator.Generator, error) {
	switch cfg.Generator {
	case config.GeneratorLocal:
		return generator.NewLocal(
			generator.WithDelay(cfg.SimulatedDelayMin, cfg.SimulatedDelayMax),
			generator.WithLocalLogger(log.Named("local")),
		), nil

	case config.GeneratorRemote:
		return generator.NewRemote(generator.RemoteConfig{
			URL:     cfg.GenerationAPIURL,
			APIKey:  cfg.GenerationAPIKey,
			Timeout: cfg.GenerationTimeout,
			Strict:  cfg.StrictRemoteResponses,
		}, nil, log.Named("remote")), nil

	case config.GeneratorLLM:
		client, err := llm.NewClient(ctx, llm.Provider(cfg.LLMProvider), cfg.LLMAPIKey())
		if err != nil {
			return nil, fmt.Errorf("failed to create %s client: %w", cfg.LLMProvider, err)
		}
		return generator.NewLLM(client, cfg.LLMModel, log.Named("llm")), nil

	default:
		return nil, fmt.Errorf("unknown generator %q", cfg.Generator)
	}
}
