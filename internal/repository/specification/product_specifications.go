package specification

import (
	"strings"

	"gorm.io/gorm"
)

type ActiveProducts struct{}

func (s ActiveProducts) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("products.status = ?", "active")
}

// NameContainsAll requires every token to appear in the product name, in any order.
type NameContainsAll struct {
	Tokens []string
}

func (s NameContainsAll) Apply(db *gorm.DB) *gorm.DB {
	for _, t := range s.Tokens {
		db = db.Where("products.name ILIKE ?", "%"+escapeLike(t)+"%")
	}
	return db
}

// NameMatchesAny keeps products whose name contains at least one token.
type NameMatchesAny struct {
	Tokens []string
}

func (s NameMatchesAny) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Tokens) == 0 {
		return db
	}
	clauses := make([]string, len(s.Tokens))
	args := make([]interface{}, len(s.Tokens))
	for i, t := range s.Tokens {
		clauses[i] = "products.name ILIKE ?"
		args[i] = "%" + escapeLike(t) + "%"
	}
	return db.Where(strings.Join(clauses, " OR "), args...)
}

type InCategory struct {
	Category string
}

func (s InCategory) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("products.category ILIKE ?", s.Category)
}

// ByName matches the product name case-insensitively.
type ByName struct {
	Name string
}

func (s ByName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("LOWER(products.name) = LOWER(?)", s.Name)
}

// Variant specs

type ActiveVariants struct{}

func (s ActiveVariants) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("product_variants.is_active = ?", true)
}

// QuantityAtMost keeps variants with stock at or below the threshold.
type QuantityAtMost struct {
	Threshold int
}

func (s QuantityAtMost) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("product_variants.quantity <= ?", s.Threshold)
}

type OutOfStock struct{}

func (s OutOfStock) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("product_variants.quantity = 0")
}

type VariantProductNameLike struct {
	Query string
}

func (s VariantProductNameLike) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("products.name ILIKE ?", "%"+escapeLike(s.Query)+"%")
}

// VariantColorLike keeps in-stock variants whose color contains Color.
type VariantColorLike struct {
	Color string
}

func (s VariantColorLike) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("product_variants.color ILIKE ? AND product_variants.quantity > 0", "%"+escapeLike(s.Color)+"%")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
