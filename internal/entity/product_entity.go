package entity

import (
	"time"

	"github.com/google/uuid"
)

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

type Product struct {
	Id          uuid.UUID
	Name        string
	Slug        string
	Description string
	Category    string
	Brand       string
	Material    string
	Status      ProductStatus
	Variants    []*ProductVariant
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ProductVariant struct {
	Id          uuid.UUID
	ProductId   uuid.UUID
	ProductName string // filled by inventory queries
	Sku         string
	Color       string
	Size        string
	Price       float64
	Quantity    int
	Reserved    int
	IsActive    bool
}

// InStock reports whether the variant can be sold.
func (v *ProductVariant) InStock() bool {
	return v.IsActive && v.Quantity > 0
}

// InStockVariants returns active variants with stock, in catalog order.
func (p *Product) InStockVariants() []*ProductVariant {
	var out []*ProductVariant
	for _, v := range p.Variants {
		if v.InStock() {
			out = append(out, v)
		}
	}
	return out
}

// AvailableSizes returns the distinct sizes of in-stock variants in order of
// first appearance.
func (p *Product) AvailableSizes() []string {
	return distinct(p.InStockVariants(), func(v *ProductVariant) string { return v.Size })
}

// Colors returns the distinct colors of in-stock variants.
func (p *Product) Colors() []string {
	return distinct(p.InStockVariants(), func(v *ProductVariant) string { return v.Color })
}

// PriceRange returns the lowest and highest variant price.
func (p *Product) PriceRange() (float64, float64) {
	var lo, hi float64
	for i, v := range p.Variants {
		if i == 0 || v.Price < lo {
			lo = v.Price
		}
		if v.Price > hi {
			hi = v.Price
		}
	}
	return lo, hi
}

func (p *Product) TotalStock() int {
	total := 0
	for _, v := range p.Variants {
		if v.IsActive {
			total += v.Quantity
		}
	}
	return total
}

func distinct(variants []*ProductVariant, key func(*ProductVariant) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range variants {
		k := key(v)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
