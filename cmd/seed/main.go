// Command seed loads a demo catalog, embeds every product for the vector
// tier and indexes names into Elasticsearch when it is configured.
package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"commerce-assistant/internal/config"
	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/mapper"
	"commerce-assistant/internal/model"
	"commerce-assistant/pkg/database"
	"commerce-assistant/pkg/embedding"
	"commerce-assistant/pkg/search/elastic"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type variantSeed struct {
	size, color string
	price       float64
	qty         int
}

type productSeed struct {
	name, category, material, description string
	variants                              []variantSeed
}

var catalog = []productSeed{
	{
		name: "Cashmere Bomber Jacket", category: "Outerwear", material: "90% cashmere, 10% nylon",
		description: "Áo khoác bomber cashmere mềm, giữ ấm tốt, form regular fit.",
		variants: []variantSeed{
			{"S", "Black", 189, 4}, {"M", "Black", 189, 6}, {"L", "Black", 189, 2}, {"XL", "Black", 189, 0},
			{"M", "Navy Blue", 189, 3},
		},
	},
	{
		name: "Wool Scarf", category: "Accessories", material: "100% merino wool",
		description: "Khăn len merino, free size, giữ ấm mùa đông.",
		variants: []variantSeed{
			{"Free Size", "Red", 39, 12}, {"Free Size", "Wine Red", 39, 5}, {"Free Size", "Grey", 39, 8},
		},
	},
	{
		name: "Oxford Shirt", category: "Shirts", material: "100% cotton",
		description: "Sơ mi oxford cotton thoáng khí, phù hợp đi làm.",
		variants: []variantSeed{
			{"S", "White", 49, 10}, {"M", "White", 49, 14}, {"L", "White", 49, 9}, {"M", "Light Blue", 49, 7},
		},
	},
	{
		name: "Slim Chino Pants", category: "Pants", material: "98% cotton, 2% elastane",
		description: "Quần chino co giãn nhẹ, form slim.",
		variants: []variantSeed{
			{"30", "Beige", 59, 6}, {"32", "Beige", 59, 8}, {"34", "Beige", 59, 3}, {"32", "Navy", 59, 0},
		},
	},
	{
		name: "Merino Crew Sweater", category: "Knitwear", material: "100% merino wool",
		description: "Áo len cổ tròn merino, mỏng nhẹ, ấm áp.",
		variants: []variantSeed{
			{"M", "Grey", 79, 5}, {"L", "Grey", 79, 4}, {"L", "Burgundy", 79, 2},
		},
	},
}

func slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

func (s productSeed) entity() *entity.Product {
	p := &entity.Product{
		Id:          uuid.New(),
		Name:        s.name,
		Slug:        slugify(s.name),
		Description: s.description,
		Category:    s.category,
		Material:    s.material,
		Status:      entity.ProductStatusActive,
	}
	for _, v := range s.variants {
		p.Variants = append(p.Variants, &entity.ProductVariant{
			Id:        uuid.New(),
			ProductId: p.Id,
			Sku:       fmt.Sprintf("%s-%s-%s", p.Slug, slugify(v.color), slugify(v.size)),
			Color:     v.color,
			Size:      v.size,
			Price:     v.price,
			Quantity:  v.qty,
			IsActive:  true,
		})
	}
	return p
}

// embeddingDocument is the text embedded for the vector tier.
func embeddingDocument(p *entity.Product) string {
	return strings.Join([]string{p.Name, p.Category, p.Material, p.Description}, ". ")
}

func upsertProduct(db *gorm.DB, p *entity.Product) (*entity.Product, error) {
	var existing model.Product
	err := db.Where("slug = ?", p.Slug).First(&existing).Error
	if err == nil {
		log.Printf("Product '%s' already exists, skipping insert...", p.Name)
		p.Id = existing.Id
		return p, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	if err := db.Create(mapper.NewProductMapper().ToModel(p)).Error; err != nil {
		return nil, err
	}
	log.Printf("Created product: %s (%d variants)", p.Name, len(p.Variants))
	return p, nil
}

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.Database.Connection, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	embedder := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)

	var index *elastic.Index
	if len(cfg.Elasticsearch.Addresses) > 0 {
		es, err := elastic.NewClient(elastic.Config{
			Addresses: cfg.Elasticsearch.Addresses,
			Username:  cfg.Elasticsearch.Username,
			Password:  cfg.Elasticsearch.Password,
		})
		if err != nil {
			log.Printf("Warn: Elasticsearch unavailable, skipping name index: %v", err)
		} else {
			index = elastic.NewIndex(es, cfg.Elasticsearch.Index)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if index != nil {
		if err := index.EnsureIndex(ctx); err != nil {
			log.Fatalf("Error: Failed to ensure product index: %v", err)
		}
	}

	log.Println("Seeding catalog...")
	var products []*entity.Product
	for _, seed := range catalog {
		p, err := upsertProduct(db, seed.entity())
		if err != nil {
			log.Printf("Error creating product '%s': %v", seed.name, err)
			continue
		}
		products = append(products, p)

		if index != nil {
			if err := index.IndexProduct(ctx, p); err != nil {
				log.Printf("Warn: Failed to index '%s': %v", p.Name, err)
			}
		}
	}

	docs := make([]string, len(products))
	for i, p := range products {
		docs[i] = embeddingDocument(p)
	}
	vecs, err := embedder.EmbedBatch(ctx, docs)
	if err != nil {
		log.Printf("Warn: Failed to embed catalog, vector search stays empty: %v", err)
		vecs = nil
	}
	for i, vec := range vecs {
		row := model.ProductEmbedding{ProductId: products[i].Id, Document: docs[i], EmbeddingValue: pgvector.NewVector(vec)}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"document", "embedding_value", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			log.Printf("Warn: Failed to store embedding for '%s': %v", products[i].Name, err)
		}
	}

	log.Println("Catalog seeding completed!")
}
