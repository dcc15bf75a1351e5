package handler

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

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

func newProduct(name, category string, variants ...[3]string) *entity.Product {
	p := &entity.Product{Id: uuid.New(), Name: name, Category: category, Status: entity.ProductStatusActive}
	for _, v := range variants {
		qty := 3
		if v[2] == "0" {
			qty = 0
		}
		p.Variants = append(p.Variants, &entity.ProductVariant{
			Id: uuid.New(), ProductId: p.Id, ProductName: name,
			Size: v[0], Color: v[1], Price: 50, Quantity: qty, IsActive: true,
		})
	}
	return p
}

func exact(p *entity.Product) search.Candidate {
	return search.Candidate{ID: p.Id.String(), Tier: search.TierExact, Score: 1, Product: p}
}

func productRequest(message string, ref *store.ProductRef, m store.Measurements) *Request {
	return &Request{
		Message:   message,
		UserID:    uuid.NewString(),
		SessionID: "s-1",
		Role:      "user",
		Intent:    intent.Intent{Type: intent.ProductAdvice, Confidence: 0.9},
		Context:   store.NewConversationContext("s-1", "u-1"),
		Entities:  session.ResolvedEntities{Product: ref, Measurements: m},
	}
}

type fakeProducts struct {
	contract.ProductRepository
	items []*entity.Product
	finds int
}

func (r *fakeProducts) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Product, error) {
	r.finds++
	for _, s := range specs {
		if byID, ok := s.(specification.ByID); ok {
			for _, p := range r.items {
				if p.Id == byID.ID {
					return p, nil
				}
			}
		}
	}
	return nil, nil
}

func (r *fakeProducts) FindVariants(_ context.Context, specs ...specification.Specification) ([]*entity.ProductVariant, error) {
	want := ""
	for _, s := range specs {
		if c, ok := s.(specification.VariantColorLike); ok {
			want = c.Color
		}
	}
	var out []*entity.ProductVariant
	for _, p := range r.items {
		out = append(out, color.FilterByColor(p.InStockVariants(), want)...)
	}
	return out, nil
}

func (r *fakeProducts) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Product, error) {
	var ids map[uuid.UUID]bool
	for _, s := range specs {
		if byIDs, ok := s.(specification.ByIDs); ok {
			ids = make(map[uuid.UUID]bool)
			for _, id := range byIDs.IDs {
				ids[id] = true
			}
		}
	}
	var out []*entity.Product
	for _, p := range r.items {
		if ids == nil || ids[p.Id] {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeResolver struct {
	candidates []search.Candidate
	err        error
	queries    []string
}

func (r *fakeResolver) ResolveProducts(_ context.Context, query string, _ int) ([]search.Candidate, error) {
	r.queries = append(r.queries, query)
	return r.candidates, r.err
}

func (r *fakeResolver) InCategory(context.Context, string, int) ([]search.Candidate, error) {
	return nil, nil
}

// scriptedAnswer returns a fixed answer and remembers the context block.
type scriptedAnswer struct {
	answer string
	err    error
	task   string
	block  string
}

func (g *scriptedAnswer) GenerateTask(_ context.Context, task, _, contextBlock string, _ []store.Turn, _ *prompt.CustomerContext) (string, error) {
	g.task, g.block = task, contextBlock
	return g.answer, g.err
}

type cannedJSON struct {
	doc   string
	err   error
	calls int
}

func (g *cannedJSON) GenerateJSON(_ context.Context, _ string, _ *llm.Schema, out interface{}) error {
	g.calls++
	if g.err != nil {
		return g.err
	}
	return json.Unmarshal([]byte(g.doc), out)
}

var errModelDown = errors.New("model unavailable")

// blackFinder recognizes "đen" and "black" only.
type blackFinder struct{}

func (blackFinder) Find(_ context.Context, text string) *color.Match {
	lower := strings.ToLower(text)
	for _, term := range []string{"đen", "black"} {
		if strings.Contains(lower, term) {
			return &color.Match{Term: term, Canonical: "black"}
		}
	}
	return nil
}

// fakeOrders records which lookups ran.
type fakeOrders struct {
	contract.OrderRepository
	mu     sync.Mutex
	orders []*entity.Order
	calls  []string
}

func (r *fakeOrders) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *fakeOrders) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Order, error) {
	for _, s := range specs {
		switch v := s.(type) {
		case specification.ByOrderCode:
			r.record("code")
			for _, o := range r.orders {
				if o.OrderCode == v.Code {
					return o, nil
				}
			}
			return nil, nil
		case specification.ByShortCode:
			r.record("short")
			for _, o := range r.orders {
				if o.ShortCode() == v.Code {
					return o, nil
				}
			}
			return nil, nil
		case specification.ByCustomerPhone:
			r.record("phone")
			for _, o := range r.orders {
				if o.CustomerPhone == v.Phone {
					return o, nil
				}
			}
			return nil, nil
		case specification.ByCustomerEmail:
			r.record("email")
			for _, o := range r.orders {
				if strings.EqualFold(o.CustomerEmail, v.Email) {
					return o, nil
				}
			}
			return nil, nil
		case specification.OrderOwnedBy:
			r.record("latest")
			for _, o := range r.orders {
				if o.UserId != nil && *o.UserId == v.UserID {
					return o, nil
				}
			}
			return nil, nil
		}
	}
	return nil, nil
}

func (r *fakeOrders) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Order, error) {
	r.record("list")
	var owner uuid.UUID
	for _, s := range specs {
		if v, ok := s.(specification.OrderOwnedBy); ok {
			owner = v.UserID
		}
	}
	var out []*entity.Order
	for _, o := range r.orders {
		if o.UserId != nil && *o.UserId == owner {
			out = append(out, o)
		}
	}
	return out, nil
}
