package mapper

import (
	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/model"
)

type ProductMapper struct{}

func NewProductMapper() *ProductMapper {
	return &ProductMapper{}
}

func (m *ProductMapper) ToEntity(p *model.Product) *entity.Product {
	if p == nil {
		return nil
	}

	variants := make([]*entity.ProductVariant, len(p.Variants))
	for i := range p.Variants {
		variants[i] = m.VariantToEntity(&p.Variants[i])
		variants[i].ProductName = p.Name
	}

	return &entity.Product{
		Id:          p.Id,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Category:    p.Category,
		Brand:       p.Brand,
		Material:    p.Material,
		Status:      entity.ProductStatus(p.Status),
		Variants:    variants,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (m *ProductMapper) ToModel(p *entity.Product) *model.Product {
	if p == nil {
		return nil
	}

	variants := make([]model.ProductVariant, len(p.Variants))
	for i, v := range p.Variants {
		variants[i] = *m.VariantToModel(v)
	}

	return &model.Product{
		Id:          p.Id,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Category:    p.Category,
		Brand:       p.Brand,
		Material:    p.Material,
		Status:      string(p.Status),
		Variants:    variants,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (m *ProductMapper) VariantToEntity(v *model.ProductVariant) *entity.ProductVariant {
	if v == nil {
		return nil
	}
	return &entity.ProductVariant{
		Id:        v.Id,
		ProductId: v.ProductId,
		Sku:       v.Sku,
		Color:     v.Color,
		Size:      v.Size,
		Price:     v.Price,
		Quantity:  v.Quantity,
		Reserved:  v.Reserved,
		IsActive:  v.IsActive,
	}
}

func (m *ProductMapper) VariantToModel(v *entity.ProductVariant) *model.ProductVariant {
	if v == nil {
		return nil
	}
	return &model.ProductVariant{
		Id:        v.Id,
		ProductId: v.ProductId,
		Sku:       v.Sku,
		Color:     v.Color,
		Size:      v.Size,
		Price:     v.Price,
		Quantity:  v.Quantity,
		Reserved:  v.Reserved,
		IsActive:  v.IsActive,
	}
}

func (m *ProductMapper) ToEntities(products []*model.Product) []*entity.Product {
	entities := make([]*entity.Product, len(products))
	for i, p := range products {
		entities[i] = m.ToEntity(p)
	}
	return entities
}
