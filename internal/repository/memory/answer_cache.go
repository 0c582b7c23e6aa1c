package memory

import (
	"context"
	"time"

	"voice-faq-be/pkg/knowledge"

	"github.com/patrickmn/go-cache"
)

// AnswerCache keeps resolved answers in process memory.
type AnswerCache struct {
	cache *cache.Cache
}

func NewAnswerCache(ttl time.Duration) *AnswerCache {
	// purge expired items every 10 minutes
	return &AnswerCache{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (c *AnswerCache) Get(ctx context.Context, key string) (knowledge.Answer, bool) {
	if x, found := c.cache.Get(key); found {
		return x.(knowledge.Answer), true
	}
	return knowledge.Answer{}, false
}

func (c *AnswerCache) Set(ctx context.Context, key string, answer knowledge.Answer) {
	c.cache.Set(key, answer, cache.DefaultExpiration)
}

func (c *AnswerCache) Len() int {
	return c.cache.ItemCount()
}
