package main

import (
	"log"
	"os"

	"commerce-assistant/internal/model"
	"commerce-assistant/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.Open(dsn, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Setting up extensions...")
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	log.Println("Step 2: Running AutoMigrate...")
	models := []interface{}{
		&model.User{},
		&model.Product{},
		&model.ProductVariant{},
		&model.ProductEmbedding{},
		&model.Order{},
		&model.OrderItem{},
		&model.ChatLog{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	log.Println("Step 3: Creating indexes...")
	postMigrationSQL := []string{
		// Cosine search over product embeddings.
		`CREATE INDEX IF NOT EXISTS idx_product_embeddings_hnsw
		 ON product_embeddings USING hnsw (embedding_value vector_cosine_ops);`,
		`CREATE INDEX IF NOT EXISTS idx_products_name_lower ON products (lower(name));`,
		`CREATE INDEX IF NOT EXISTS idx_chat_logs_user_created ON chat_logs (user_id, created_at DESC);`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Success: database migration completed.")
}
