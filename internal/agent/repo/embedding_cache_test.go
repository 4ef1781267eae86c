package repo

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/Chative-core-poc-v1/intent-router/internal/core/error"
)

func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisEmbeddingCache_UnreachableIsMiss(t *testing.T) {
	c := NewRedisEmbeddingCache(unreachableRedis(t), time.Hour)
	ctx := context.Background()

	c.Set(ctx, "m:768:abc", []float32{0.1, 0.2})
	vec, ok := c.Get(ctx, "m:768:abc")
	assert.False(t, ok)
	assert.Nil(t, vec)

	_, err := c.Load(ctx, "m:768:abc")
	require.Error(t, err)
	assert.Equal(t, errx.KindTransport, errx.KindOf(err))
}

func TestRedisEmbeddingCache_Key(t *testing.T) {
	c := NewRedisEmbeddingCache(nil, 0)
	assert.Equal(t, "embedding:m:768:abc", c.embeddingKey("m:768:abc"))
}
