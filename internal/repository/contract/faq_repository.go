package contract

import (
	"context"

	"voice-faq-be/internal/model"
	"voice-faq-be/pkg/knowledge"
)

type FAQRepository interface {
	// Upsert inserts the entry or refreshes answer, metadata and embedding of the same question.
	Upsert(ctx context.Context, entry *model.FAQEntry) error
	Count(ctx context.Context) (int64, error)
	// SearchSimilar returns up to limit entries whose cosine similarity is >= threshold, best first.
	SearchSimilar(ctx context.Context, embedding []float32, limit int, threshold float64) ([]knowledge.ScoredEntry, error)
}
