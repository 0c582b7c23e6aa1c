package knowledge

import (
	"context"
	"strings"
)

// AnswerCache memoizes resolved answers. Implementations must be safe for
// concurrent use and must not fail the lookup when the cache is down.
type AnswerCache interface {
	Get(ctx context.Context, key string) (Answer, bool)
	Set(ctx context.Context, key string, answer Answer)
}

// CachedLookup puts a cache in front of one lookup. It never consults a
// second strategy, and only found answers are stored.
type CachedLookup struct {
	next  Lookup
	cache AnswerCache
}

func NewCachedLookup(next Lookup, cache AnswerCache) *CachedLookup {
	return &CachedLookup{next: next, cache: cache}
}

// Keys keep the question's case and inner spacing, so distinct table keys
// never share a slot.
func (l *CachedLookup) Resolve(ctx context.Context, question string) (Answer, error) {
	key := l.next.Strategy() + ":" + strings.TrimSpace(question)
	if answer, ok := l.cache.Get(ctx, key); ok {
		return answer, nil
	}

	answer, err := l.next.Resolve(ctx, question)
	if err != nil {
		return Answer{}, err
	}
	if answer.Found {
		l.cache.Set(ctx, key, answer)
	}
	return answer, nil
}

func (l *CachedLookup) Strategy() string {
	return l.next.Strategy()
}
