package implementation

import (
	"context"
	"errors"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/mapper"
	"commerce-assistant/internal/model"
	"commerce-assistant/internal/repository/contract"
	"commerce-assistant/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ProductRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ProductMapper
}

func NewProductRepository(db *gorm.DB) contract.ProductRepository {
	return &ProductRepositoryImpl{
		db:     db,
		mapper: mapper.NewProductMapper(),
	}
}

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ProductRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Product, error) {
	var m model.Product
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Product{}).Preload("Variants"), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ProductRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Product, error) {
	var models []*model.Product
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Product{}).Preload("Variants"), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ProductRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Product{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

func (r *ProductRepositoryImpl) FindVariants(ctx context.Context, specs ...specification.Specification) ([]*entity.ProductVariant, error) {
	type row struct {
		model.ProductVariant
		ProductName string
	}
	var rows []row

	query := r.db.WithContext(ctx).
		Table("product_variants").
		Select("product_variants.*, products.name AS product_name").
		Joins("JOIN products ON products.id = product_variants.product_id").
		Where("products.deleted_at IS NULL")
	query = applySpecifications(query, specs...)

	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]*entity.ProductVariant, len(rows))
	for i := range rows {
		v := r.mapper.VariantToEntity(&rows[i].ProductVariant)
		v.ProductName = rows[i].ProductName
		out[i] = v
	}
	return out, nil
}

func (r *ProductRepositoryImpl) DistinctColors(ctx context.Context) ([]string, error) {
	var colors []string
	err := r.db.WithContext(ctx).
		Model(&model.ProductVariant{}).
		Where("is_active = ? AND color <> ''", true).
		Distinct("color").
		Pluck("color", &colors).Error
	return colors, err
}

// SearchSimilar returns active products whose embedding similarity is at
// least threshold, best first.
func (r *ProductRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*contract.ScoredProduct, error) {
	if limit <= 0 {
		limit = 10
	}

	// Cosine distance in pgvector is: 1 - cosine_similarity
	type result struct {
		model.Product
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("product_embeddings").
		Select("products.*, 1 - (product_embeddings.embedding_value <=> ?) AS similarity", queryVector).
		Joins("JOIN products ON products.id = product_embeddings.product_id").
		Where("products.deleted_at IS NULL").
		Where("products.status = ?", string(entity.ProductStatusActive)).
		Where("1 - (product_embeddings.embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(results))
	for i, res := range results {
		ids[i] = res.Id
	}

	var variants []model.ProductVariant
	if err := r.db.WithContext(ctx).Where("product_id IN ?", ids).Find(&variants).Error; err != nil {
		return nil, err
	}
	byProduct := make(map[uuid.UUID][]model.ProductVariant)
	for _, v := range variants {
		byProduct[v.ProductId] = append(byProduct[v.ProductId], v)
	}

	scored := make([]*contract.ScoredProduct, len(results))
	for i := range results {
		results[i].Product.Variants = byProduct[results[i].Id]
		scored[i] = &contract.ScoredProduct{
			Product:    r.mapper.ToEntity(&results[i].Product),
			Similarity: results[i].Similarity,
		}
	}
	return scored, nil
}
