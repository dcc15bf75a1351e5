package search

import (
	"context"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/repository/contract"
	"commerce-assistant/pkg/store"
)

type Tier string

const (
	TierExact  Tier = "exact"
	TierFuzzy  Tier = "fuzzy"
	TierVector Tier = "vector"
)

// Rank orders tiers by confidence, exact first.
func (t Tier) Rank() int {
	switch t {
	case TierExact:
		return 0
	case TierFuzzy:
		return 1
	case TierVector:
		return 2
	}
	return 3
}

// Sticky reports whether a reference resolved at this tier may overwrite the
// conversation's current product.
func (t Tier) Sticky() bool {
	return t == TierExact || t == TierFuzzy
}

type Kind string

const (
	KindProduct  Kind = "product"
	KindCustomer Kind = "customer"
)

// Candidate is one resolved entity. Exactly one of Product and Customer is set.
type Candidate struct {
	ID       string
	Tier     Tier
	Score    float64
	Product  *entity.Product
	Customer *entity.User
}

// Name is the display name of the candidate.
func (c Candidate) Name() string {
	if c.Product != nil {
		return c.Product.Name
	}
	if c.Customer != nil {
		return c.Customer.FullName
	}
	return ""
}

// Ref converts a product candidate into a conversation reference.
func (c Candidate) Ref() store.ProductRef {
	ref := store.ProductRef{ID: c.ID, Tier: string(c.Tier)}
	if c.Product != nil {
		ref.Name = c.Product.Name
		ref.Category = c.Product.Category
	}
	return ref
}

// TextHit is one match from a text index. Score is engine specific and is
// not used for acceptance.
type TextHit struct {
	ID    string
	Name  string
	Score float64
}

// TextIndex looks up catalog names.
type TextIndex interface {
	SearchNames(ctx context.Context, query string, limit int) ([]TextHit, error)
}

// VectorIndex runs semantic similarity search over the catalog.
type VectorIndex interface {
	SearchSimilar(ctx context.Context, query string, topK int, threshold float64) ([]*contract.ScoredProduct, error)
}
