package contract

import (
	"context"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/repository/specification"
)

// ScoredProduct pairs a product with its vector similarity.
type ScoredProduct struct {
	Product    *entity.Product
	Similarity float64
}

type ProductRepository interface {
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Product, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Product, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// FindVariants returns variants joined with their product name.
	FindVariants(ctx context.Context, specs ...specification.Specification) ([]*entity.ProductVariant, error)
	// DistinctColors returns every color present on an active variant.
	DistinctColors(ctx context.Context) ([]string, error)

	// SearchSimilar runs a cosine similarity search on product embeddings.
	SearchSimilar(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*ScoredProduct, error)
}
