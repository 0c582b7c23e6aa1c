package implementation

import (
	"context"

	"voice-faq-be/internal/model"
	"voice-faq-be/internal/repository/contract"
	"voice-faq-be/pkg/knowledge"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FAQRepositoryImpl struct {
	db *gorm.DB
}

func NewFAQRepository(db *gorm.DB) contract.FAQRepository {
	return &FAQRepositoryImpl{db: db}
}

func (r *FAQRepositoryImpl) Upsert(ctx context.Context, entry *model.FAQEntry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "question"}},
			DoUpdates: clause.AssignmentColumns([]string{"answer", "metadata", "embedding_value", "updated_at"}),
		}).
		Create(entry).Error
}

func (r *FAQRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.FAQEntry{}).Count(&count).Error
	return count, err
}

func (r *FAQRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int, threshold float64) ([]knowledge.ScoredEntry, error) {
	if limit <= 0 {
		limit = 1
	}

	// Cosine distance in pgvector is: 1 - cosine_similarity
	type result struct {
		Question   string
		Answer     string
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("faq_entries").
		Select("question, answer, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("embedding_value IS NOT NULL").
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]knowledge.ScoredEntry, len(results))
	for i, res := range results {
		scored[i] = knowledge.ScoredEntry{
			Question:   res.Question,
			Answer:     res.Answer,
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
