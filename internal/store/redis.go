package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/coldreach/email-generator/internal/model"
)

// RedisStore persists templates in Redis: one JSON string per template and a
// sorted set ordered by creation time for listing.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a store using keys under prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) templateKey(id string) string {
	return s.prefix + ":template:" + id
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":templates"
}

// Add inserts a new template. SETNX guards against overwriting an
// existing ID. When the index write fails the body is removed again so the
// ID stays free for a retry.
func (s *RedisStore) Add(ctx context.Context, t model.Template) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}

	created, err := s.client.SetNX(ctx, s.templateKey(t.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to store template: %w", err)
	}
	if !created {
		return model.ErrTemplateExists
	}

	score := float64(t.CreatedAt.UnixNano())
	if err := s.client.ZAdd(ctx, s.indexKey(), redis.Z{Score: score, Member: t.ID}).Err(); err != nil {
		err = fmt.Errorf("failed to index template: %w", err)
		if delErr := s.client.Del(context.WithoutCancel(ctx), s.templateKey(t.ID)).Err(); delErr != nil {
			return errors.Join(err, fmt.Errorf("failed to roll back template %s: %w", t.ID, delErr))
		}
		return err
	}
	return nil
}

// Get returns the template with the given ID.
func (s *RedisStore) Get(ctx context.Context, id string) (model.Template, error) {
	data, err := s.client.Get(ctx, s.templateKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Template{}, model.ErrTemplateNotFound
	}
	if err != nil {
		return model.Template{}, fmt.Errorf("failed to get template: %w", err)
	}

	var t model.Template
	if err := json.Unmarshal(data, &t); err != nil {
		return model.Template{}, fmt.Errorf("failed to unmarshal template %s: %w", id, err)
	}
	return t, nil
}

// List returns all templates ordered by creation time.
func (s *RedisStore) List(ctx context.Context) ([]model.Template, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list template ids: %w", err)
	}
	if len(ids) == 0 {
		return []model.Template{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.templateKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	items := make([]model.Template, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// index entry without a body; skip
			continue
		}
		var t model.Template
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal template %s: %w", ids[i], err)
		}
		items = append(items, t)
	}
	return items, nil
}

// Seed adds templates when the store is empty. It reports how many were added.
func (s *RedisStore) Seed(ctx context.Context, templates []model.Template) (int, error) {
	count, err := s.client.ZCard(ctx, s.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count templates: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	added := 0
	for _, t := range templates {
		err := s.Add(ctx, t)
		if errors.Is(err, model.ErrTemplateExists) {
			continue
		}
		if err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
