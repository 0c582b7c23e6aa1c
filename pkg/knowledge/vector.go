package knowledge

import (
	"context"
	"fmt"

	"voice-faq-be/pkg/embedding"
)

// ScoredEntry is a nearest-neighbour hit with its cosine similarity.
type ScoredEntry struct {
	Question   string
	Answer     string
	Similarity float64
}

// SimilarityIndex is the precomputed embedding index (pgvector in production).
type SimilarityIndex interface {
	SearchSimilar(ctx context.Context, vector []float32, limit int, threshold float64) ([]ScoredEntry, error)
}

// VectorLookup embeds the question in-process and asks the index for the
// closest FAQ entry above the threshold.
type VectorLookup struct {
	embedder  embedding.EmbeddingProvider
	index     SimilarityIndex
	threshold float64
	topK      int
}

func NewVectorLookup(embedder embedding.EmbeddingProvider, index SimilarityIndex, threshold float64, topK int) *VectorLookup {
	if topK <= 0 {
		topK = 1
	}
	return &VectorLookup{
		embedder:  embedder,
		index:     index,
		threshold: threshold,
		topK:      topK,
	}
}

func (l *VectorLookup) Resolve(ctx context.Context, question string) (Answer, error) {
	vec, err := l.embedder.Generate(ctx, question, embedding.TaskRetrievalQuery)
	if err != nil {
		return Answer{}, fmt.Errorf("embed question: %w", err)
	}

	hits, err := l.index.SearchSimilar(ctx, vec, l.topK, l.threshold)
	if err != nil {
		return Answer{}, fmt.Errorf("search index: %w", err)
	}

	for _, hit := range hits {
		if hit.Answer != "" {
			return Answer{Text: hit.Answer, Found: true, Score: hit.Similarity}, nil
		}
	}
	return Answer{}, nil
}

func (l *VectorLookup) Strategy() string {
	return StrategyVector
}
