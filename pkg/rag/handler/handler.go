// Package handler holds one specialized handler per intent. Each handler
// either asks for what it is missing or answers.
package handler

import (
	"context"
	"fmt"
	"strings"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/repository/contract"
	"commerce-assistant/internal/repository/specification"
	"commerce-assistant/pkg/llm"
	"commerce-assistant/pkg/rag/color"
	"commerce-assistant/pkg/rag/intent"
	"commerce-assistant/pkg/rag/prompt"
	"commerce-assistant/pkg/rag/search"
	"commerce-assistant/pkg/rag/session"
	"commerce-assistant/pkg/store"

	"github.com/google/uuid"
)

// MaxSuggestedProducts caps the products returned with an answer.
const MaxSuggestedProducts = 3

// Result sub-types.
const (
	TypeUnauthorized = "unauthorized_access"
	TypeNoData       = "NO_DATA"
	TypeClarify      = "clarification"
	TypeError        = "error"
)

// Action types.
const (
	ActionAddToCart = "add_to_cart"
)

// Request is one classified turn.
type Request struct {
	Message   string
	UserID    string
	SessionID string
	Role      string
	Intent    intent.Intent
	Context   *store.ConversationContext
	Entities  session.ResolvedEntities
	Customer  *prompt.CustomerContext
}

// History returns the turns before this one.
func (r *Request) History() []store.Turn {
	if r.Context == nil {
		return nil
	}
	return r.Context.Turns
}

// PreviousUserMessage is the text of the last user turn, or "".
func (r *Request) PreviousUserMessage() string {
	if r.Context == nil {
		return ""
	}
	if t := r.Context.LastUserTurn(); t != nil {
		return t.Text
	}
	return ""
}

// Authenticated reports whether the request comes from a known user.
func (r *Request) Authenticated() bool {
	return !store.IsGuest(r.UserID)
}

// Action is a follow-up the client may offer. It is never executed here.
type Action struct {
	Type      string `json:"type"`
	ProductID string `json:"product_id,omitempty"`
	VariantID string `json:"variant_id,omitempty"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// Attachment describes a generated file.
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

type Result struct {
	Answer               string
	Sources              []string
	SuggestedProducts    []store.ProductRef
	SuggestedAction      *Action
	Intent               intent.Type
	Type                 string
	Attachment           *Attachment
	RequiresMeasurements bool
	MissingFields        []string
	RecommendedSize      string
	// Product is the product this turn was about, with the tier it was
	// resolved at.
	Product *store.ProductRef
	Data    map[string]interface{}
}

// ReportedIntent is the intent label returned to the caller. A refused
// admin request reports unauthorized_access instead of its intent.
func (r *Result) ReportedIntent() string {
	if r.Type == TypeUnauthorized {
		return TypeUnauthorized
	}
	return string(r.Intent)
}

type Handler interface {
	Handle(ctx context.Context, req *Request) (*Result, error)
}

type HandlerFunc func(ctx context.Context, req *Request) (*Result, error)

func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*Result, error) {
	return f(ctx, req)
}

// JSONGenerator produces structured model output.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, schema *llm.Schema, out interface{}) error
}

// ProductResolver is the part of the entity resolver handlers use.
type ProductResolver interface {
	ResolveProducts(ctx context.Context, query string, vectorTopK int) ([]search.Candidate, error)
	InCategory(ctx context.Context, category string, limit int) ([]search.Candidate, error)
}

func clarify(answer string) *Result {
	return &Result{Answer: answer, Type: TypeClarify}
}

// loadProduct fetches the full product behind a conversation reference.
func loadProduct(ctx context.Context, products contract.ProductRepository, ref *store.ProductRef) (*entity.Product, error) {
	if ref == nil {
		return nil, nil
	}
	id, err := uuid.Parse(ref.ID)
	if err != nil {
		return nil, nil
	}
	p, err := products.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, fmt.Errorf("load product %s: %w", ref.ID, err)
	}
	return p, nil
}

func refOf(p *entity.Product, tier string) *store.ProductRef {
	return &store.ProductRef{ID: p.Id.String(), Name: p.Name, Category: p.Category, Tier: tier}
}

func formatPrice(lo, hi float64) string {
	if lo == hi {
		return fmt.Sprintf("$%.0f", lo)
	}
	return fmt.Sprintf("$%.0f - $%.0f", lo, hi)
}

// variantFor returns the first in-stock variant matching size and color.
// Empty criteria match anything.
func variantFor(p *entity.Product, size, colorName string) *entity.ProductVariant {
	for _, v := range p.InStockVariants() {
		if size != "" && !strings.EqualFold(v.Size, size) {
			continue
		}
		if colorName != "" && len(color.FilterByColor([]*entity.ProductVariant{v}, colorName)) == 0 {
			continue
		}
		return v
	}
	return nil
}

func addToCart(p *entity.Product, v *entity.ProductVariant) *Action {
	return &Action{
		Type:      ActionAddToCart,
		ProductID: p.Id.String(),
		VariantID: v.Id.String(),
		Size:      v.Size,
		Color:     v.Color,
	}
}
