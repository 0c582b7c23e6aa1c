package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// FAQEntry is one row of the semantic index. Embedding dimensions must match
// the configured embedding provider (768 for nomic-embed-text, text-embedding-004 and jina v2).
type FAQEntry struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Question       string          `gorm:"type:text;not null;uniqueIndex"`
	Answer         string          `gorm:"type:text;not null"`
	Metadata       datatypes.JSON  `gorm:"type:jsonb"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
}

func (FAQEntry) TableName() string {
	return "faq_entries"
}
