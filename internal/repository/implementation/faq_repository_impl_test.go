package implementation

import (
	"context"
	"os"
	"testing"

	"voice-faq-be/internal/model"
	"voice-faq-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func unitVector(hot int) []float32 {
	v := make([]float32, 768)
	v[hot] = 1
	return v
}

func TestFAQRepositoryAgainstPostgres(t *testing.T) {
	_ = godotenv.Load("../../../.env")

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error)
	require.NoError(t, db.AutoMigrate(&model.FAQEntry{}))

	repo := NewFAQRepository(db)
	ctx := context.Background()

	question := "integration " + uuid.NewString()
	t.Cleanup(func() {
		db.Where("question = ?", question).Delete(&model.FAQEntry{})
	})

	entry := &model.FAQEntry{
		Question:       question,
		Answer:         "primera",
		Metadata:       datatypes.JSON(`{"source":"test"}`),
		EmbeddingValue: pgvector.NewVector(unitVector(0)),
	}
	require.NoError(t, repo.Upsert(ctx, entry))

	// same question refreshes the answer instead of duplicating
	require.NoError(t, repo.Upsert(ctx, &model.FAQEntry{
		Question:       question,
		Answer:         "segunda",
		Metadata:       datatypes.JSON(`{"source":"test"}`),
		EmbeddingValue: pgvector.NewVector(unitVector(0)),
	}))

	var stored []model.FAQEntry
	require.NoError(t, db.Where("question = ?", question).Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.Equal(t, "segunda", stored[0].Answer)

	hits, err := repo.SearchSimilar(ctx, unitVector(0), 5, 0.99)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	found := false
	for _, hit := range hits {
		if hit.Question == question {
			found = true
			assert.InDelta(t, 1.0, hit.Similarity, 1e-6)
		}
	}
	assert.True(t, found)

	// orthogonal query falls below the threshold
	misses, err := repo.SearchSimilar(ctx, unitVector(1), 5, 0.99)
	require.NoError(t, err)
	for _, hit := range misses {
		assert.NotEqual(t, question, hit.Question)
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Positive(t, count)
}
