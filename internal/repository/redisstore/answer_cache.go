package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"voice-faq-be/internal/pkg/logger"
	"voice-faq-be/pkg/knowledge"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "faq:answer:"

// AnswerCache shares resolved answers between backend instances. Redis
// errors are logged and treated as misses.
type AnswerCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.ILogger
}

func NewAnswerCache(rdb *redis.Client, ttl time.Duration, log logger.ILogger) *AnswerCache {
	return &AnswerCache{rdb: rdb, ttl: ttl, logger: log}
}

func (c *AnswerCache) Get(ctx context.Context, key string) (knowledge.Answer, bool) {
	raw, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("AnswerCache", "Redis get failed", map[string]interface{}{"error": err.Error(), "key": key})
		}
		return knowledge.Answer{}, false
	}

	var answer knowledge.Answer
	if err := json.Unmarshal(raw, &answer); err != nil {
		c.logger.Warn("AnswerCache", "Dropping undecodable cache entry", map[string]interface{}{"error": err.Error(), "key": key})
		return knowledge.Answer{}, false
	}
	return answer, true
}

func (c *AnswerCache) Set(ctx context.Context, key string, answer knowledge.Answer) {
	raw, err := json.Marshal(answer)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("AnswerCache", "Redis set failed", map[string]interface{}{"error": err.Error(), "key": key})
	}
}
