package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/knowledge"
	errx "github.com/Chative-core-poc-v1/intent-router/internal/core/error"
	logx "github.com/Chative-core-poc-v1/intent-router/pkg/logger"
)

// RedisEmbeddingCache stores query embeddings in Redis. Failures are logged
// and reported as misses.
type RedisEmbeddingCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisEmbeddingCache(rdb redis.Cmdable, ttl time.Duration) *RedisEmbeddingCache {
	return &RedisEmbeddingCache{rdb: rdb, ttl: ttl}
}

func (r *RedisEmbeddingCache) embeddingKey(key string) string {
	return fmt.Sprintf("embedding:%s", key)
}

func (r *RedisEmbeddingCache) Get(ctx context.Context, key string) ([]float32, bool) {
	vec, err := r.Load(ctx, key)
	if err != nil {
		var e *errx.Error
		if !errors.As(err, &e) || e.Kind != errx.KindNotFound {
			logx.Warn().Err(err).Str("key", r.embeddingKey(key)).Msg("embedding cache read failed")
		}
		return nil, false
	}
	return vec, true
}

func (r *RedisEmbeddingCache) Set(ctx context.Context, key string, vector []float32) {
	if err := r.Store(ctx, key, vector); err != nil {
		logx.Warn().Err(err).Str("key", r.embeddingKey(key)).Msg("embedding cache write failed")
	}
}

// Load returns the cached vector, or a not_found error on a miss.
func (r *RedisEmbeddingCache) Load(ctx context.Context, key string) ([]float32, error) {
	k := r.embeddingKey(key)
	raw, err := r.rdb.Get(ctx, k).Bytes()
	if err != nil {
		return nil, errx.WrapRedis(err)
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		logx.Error().Err(err).Str("key", k).Msg("failed to unmarshal embedding")
		return nil, fmt.Errorf("unmarshal embedding: %w", err)
	}
	return vec, nil
}

// Store writes the vector and sets the TTL when one is configured.
func (r *RedisEmbeddingCache) Store(ctx context.Context, key string, vector []float32) error {
	b, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}
	if err := r.rdb.Set(ctx, r.embeddingKey(key), b, r.ttl).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

var _ knowledge.EmbeddingCache = (*RedisEmbeddingCache)(nil)
