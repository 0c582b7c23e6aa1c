package main

import (
	"context"
	"log"

	"voice-faq-be/internal/bootstrap"
	"voice-faq-be/internal/config"
	"voice-faq-be/internal/pkg/logger"
	"voice-faq-be/internal/repository/implementation"
	"voice-faq-be/internal/service"
	"voice-faq-be/pkg/database"
	"voice-faq-be/pkg/knowledge"
)

func main() {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	table, err := knowledge.LoadTable(cfg.Knowledge.File)
	if err != nil {
		log.Fatal("Error: Failed to load knowledge file:", err)
	}

	embedder, err := bootstrap.NewEmbeddingProvider(cfg.Ai)
	if err != nil {
		log.Fatal("Error: ", err)
	}

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	defer sysLogger.Sync()

	repo := implementation.NewFAQRepository(db)
	log.Printf("Seeding FAQ index from %s (%d entries, provider %s)...", cfg.Knowledge.File, table.Len(), cfg.Ai.EmbeddingProvider)

	n, err := service.NewIndexService(repo, embedder, sysLogger).Build(context.Background(), table)
	if err != nil {
		log.Fatalf("Error: Seeding stopped after %d entries: %v", n, err)
	}

	total, _ := repo.Count(context.Background())
	log.Printf("✅ Seeded %d entries (%d rows in faq_entries)", n, total)
}
