package service

import (
	"context"
	"encoding/json"
	"fmt"

	"voice-faq-be/internal/model"
	"voice-faq-be/internal/pkg/logger"
	"voice-faq-be/internal/repository/contract"
	"voice-faq-be/pkg/embedding"
	"voice-faq-be/pkg/knowledge"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// IndexService builds the semantic FAQ index out of band.
type IndexService struct {
	repo     contract.FAQRepository
	embedder embedding.EmbeddingProvider
	logger   logger.ILogger
}

func NewIndexService(repo contract.FAQRepository, embedder embedding.EmbeddingProvider, log logger.ILogger) *IndexService {
	return &IndexService{repo: repo, embedder: embedder, logger: log}
}

// Build embeds every question of the table and upserts it. It stops at the
// first failure and reports how many entries were stored.
func (s *IndexService) Build(ctx context.Context, table *knowledge.Table) (int, error) {
	stored := 0
	for _, entry := range table.Entries() {
		if err := ctx.Err(); err != nil {
			return stored, err
		}

		vec, err := s.embedder.Generate(ctx, entry.Question, embedding.TaskRetrievalDocument)
		if err != nil {
			return stored, fmt.Errorf("embed %q: %w", entry.Question, err)
		}

		var metadata datatypes.JSON
		if len(entry.Metadata) > 0 {
			raw, err := json.Marshal(entry.Metadata)
			if err != nil {
				return stored, fmt.Errorf("encode metadata of %q: %w", entry.Question, err)
			}
			metadata = datatypes.JSON(raw)
		}

		if err := s.repo.Upsert(ctx, &model.FAQEntry{
			Id:             uuid.New(),
			Question:       entry.Question,
			Answer:         entry.Answer,
			Metadata:       metadata,
			EmbeddingValue: pgvector.NewVector(vec),
		}); err != nil {
			return stored, fmt.Errorf("store %q: %w", entry.Question, err)
		}
		stored++

		s.logger.Debug("IndexService", "Entry indexed", map[string]interface{}{"question": entry.Question, "dimensions": len(vec)})
	}

	s.logger.Info("IndexService", "Index built", map[string]interface{}{"entries": stored})
	return stored, nil
}
