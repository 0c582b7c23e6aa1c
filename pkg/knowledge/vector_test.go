package knowledge

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Generate(ctx context.Context, text, taskType string) ([]float32, error) {
	return f.vec, f.err
}

type fakeIndex struct {
	hits         []ScoredEntry
	err          error
	gotLimit     int
	gotThreshold float64
}

func (f *fakeIndex) SearchSimilar(ctx context.Context, vector []float32, limit int, threshold float64) ([]ScoredEntry, error) {
	f.gotLimit = limit
	f.gotThreshold = threshold
	return f.hits, f.err
}

func TestVectorLookup(t *testing.T) {
	ctx := context.Background()

	index := &fakeIndex{hits: []ScoredEntry{{Question: "horario", Answer: "9am-6pm", Similarity: 0.82}}}
	l := NewVectorLookup(&fakeEmbedder{vec: []float32{1, 0}}, index, 0.5, 2)

	answer, err := l.Resolve(ctx, "¿a qué hora abren?")
	require.NoError(t, err)
	assert.Equal(t, Answer{Text: "9am-6pm", Found: true, Score: 0.82}, answer)
	assert.Equal(t, 2, index.gotLimit)
	assert.Equal(t, 0.5, index.gotThreshold)

	empty := NewVectorLookup(&fakeEmbedder{vec: []float32{1}}, &fakeIndex{}, 0.5, 0)
	answer, err = empty.Resolve(ctx, "nada")
	require.NoError(t, err)
	assert.False(t, answer.Found)

	_, err = NewVectorLookup(&fakeEmbedder{err: errors.New("ollama down")}, index, 0.5, 1).Resolve(ctx, "x")
	assert.ErrorContains(t, err, "embed question")

	_, err = NewVectorLookup(&fakeEmbedder{vec: []float32{1}}, &fakeIndex{err: errors.New("db down")}, 0.5, 1).Resolve(ctx, "x")
	assert.ErrorContains(t, err, "search index")
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]Answer
}

func (c *mapCache) Get(ctx context.Context, key string) (Answer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.data[key]
	return a, ok
}

func (c *mapCache) Set(ctx context.Context, key string, answer Answer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = answer
}

type countingLookup struct {
	calls  int
	answer Answer
	err    error
}

func (l *countingLookup) Resolve(ctx context.Context, question string) (Answer, error) {
	l.calls++
	return l.answer, l.err
}

func (l *countingLookup) Strategy() string { return StrategyProcess }

func TestCachedLookup(t *testing.T) {
	ctx := context.Background()
	cache := &mapCache{data: map[string]Answer{}}
	inner := &countingLookup{answer: Answer{Text: "9am-6pm", Found: true}}
	l := NewCachedLookup(inner, cache)

	for _, q := range []string{"horario de atención", "  horario de atención "} {
		answer, err := l.Resolve(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, "9am-6pm", answer.Text)
	}
	assert.Equal(t, 1, inner.calls)
	assert.Contains(t, cache.data, "process:horario de atención")

	// case and inner spacing produce distinct keys
	_, _ = l.Resolve(ctx, "Horario de atención")
	_, _ = l.Resolve(ctx, "horario  de atención")
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, StrategyProcess, l.Strategy())

	miss := &countingLookup{}
	l = NewCachedLookup(miss, cache)
	_, _ = l.Resolve(ctx, "desconocida")
	_, _ = l.Resolve(ctx, "desconocida")
	assert.Equal(t, 2, miss.calls)

	failing := &countingLookup{err: errors.New("boom")}
	_, err := NewCachedLookup(failing, cache).Resolve(ctx, "otra")
	assert.Error(t, err)
}
