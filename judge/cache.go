package judge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"cvready/models"
)

// RedisCache implements Cache against go-redis, keyed on the caller's
// opaque key (the matching engine passes ruleId:ruleChunkId:cvChunkId) prefixed with a namespace so judge
// entries don't collide with other cache consumers sharing the instance.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: "judge:v1:", ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (models.JudgeOutcome, bool) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return models.JudgeOutcome{}, false
	}
	var outcome models.JudgeOutcome
	if err := json.Unmarshal(raw, &outcome); err != nil {
		return models.JudgeOutcome{}, false
	}
	return outcome, true
}

func (c *RedisCache) Set(ctx context.Context, key string, outcome models.JudgeOutcome) {
	raw, err := json.Marshal(outcome)
	if err != nil {
		return
	}
	// Best-effort: a cache write failure never surfaces to the caller,
	// matching the degrade-cleanly spirit of the rest of this adapter.
	_ = c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err()
}
