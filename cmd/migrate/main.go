package main

import (
	"log"

	"voice-faq-be/internal/config"
	"voice-faq-be/internal/model"
	"voice-faq-be/pkg/database"
)

func main() {
	// 1. Load Environment Variables
	cfg := config.Load()

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Setting up Extensions...")
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Fatalf("Error: Failed to execute setup SQL %q: %v", sql, err)
		}
	}

	log.Println("Step 2: Running AutoMigrate...")
	if err := db.AutoMigrate(&model.FAQEntry{}); err != nil {
		log.Fatal("Error: AutoMigrate failed:", err)
	}

	// cosine-distance HNSW index for the similarity search
	log.Println("Step 3: Creating vector index...")
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_faq_entries_embedding ON faq_entries USING hnsw (embedding_value vector_cosine_ops);`).Error; err != nil {
		log.Printf("Warn: Failed to create vector index: %v. Continuing...", err)
	}

	log.Println("✅ Migration completed")
}
