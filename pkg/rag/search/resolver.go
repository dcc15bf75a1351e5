// Package search resolves catalog and customer references with a tiered
// strategy: text index, keyword conjunction, then vector similarity.
package search

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/internal/repository/contract"
	"commerce-assistant/internal/repository/specification"

	"github.com/google/uuid"
)

type Config struct {
	ExactThreshold  float64 // tier 1 accepts scores strictly above this
	VectorThreshold float64 // tier 3 accepts similarities at or above this
	VectorTopK      int
	Limit           int // cap for tier 1 and 2 results
}

func DefaultConfig() Config {
	return Config{
		ExactThreshold:  0.8,
		VectorThreshold: 0.75,
		VectorTopK:      10,
		Limit:           20,
	}
}

// Resolver is the entity resolver shared by every handler.
type Resolver struct {
	products contract.ProductRepository
	users    contract.UserRepository
	text     TextIndex
	vector   VectorIndex
	cfg      Config
	log      logger.ILogger
}

func NewResolver(
	products contract.ProductRepository,
	users contract.UserRepository,
	text TextIndex,
	vector VectorIndex,
	cfg Config,
	log logger.ILogger,
) *Resolver {
	if cfg.Limit <= 0 {
		cfg.Limit = 20
	}
	if cfg.VectorTopK <= 0 {
		cfg.VectorTopK = 10
	}
	return &Resolver{
		products: products,
		users:    users,
		text:     text,
		vector:   vector,
		cfg:      cfg,
		log:      log,
	}
}

// Resolve returns candidates ordered by tier then score. An empty result is
// not an error; callers ask the user to clarify.
func (r *Resolver) Resolve(ctx context.Context, query string, kind Kind) ([]Candidate, error) {
	if kind == KindCustomer {
		return r.resolveCustomer(ctx, query)
	}
	return r.ResolveProducts(ctx, query, r.cfg.VectorTopK)
}

// ResolveProducts is Resolve for products with an explicit vector tier size.
func (r *Resolver) ResolveProducts(ctx context.Context, query string, vectorTopK int) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	tiers := []struct {
		tier Tier
		run  func() ([]Candidate, error)
	}{
		{TierExact, func() ([]Candidate, error) { return r.exact(ctx, query) }},
		{TierFuzzy, func() ([]Candidate, error) { return r.fuzzy(ctx, query) }},
		{TierVector, func() ([]Candidate, error) { return r.semantic(ctx, query, vectorTopK) }},
	}

	for _, t := range tiers {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		candidates, err := t.run()
		if err != nil {
			r.log.Warn("EntityResolver", "tier failed, trying next", map[string]interface{}{
				"tier":  t.tier,
				"query": query,
				"error": err.Error(),
			})
			continue
		}
		if len(candidates) > 0 {
			r.log.Debug("EntityResolver", "resolved", map[string]interface{}{
				"tier":  t.tier,
				"query": query,
				"count": len(candidates),
				"top":   candidates[0].Name(),
			})
			return candidates, nil
		}
	}

	return nil, nil
}

// ResolveExplicit runs only the exact and fuzzy tiers. Its candidates are
// the ones allowed to become the conversation's current product.
func (r *Resolver) ResolveExplicit(ctx context.Context, query string) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	candidates, err := r.exact(ctx, query)
	if err != nil {
		r.log.Warn("EntityResolver", "exact tier failed", map[string]interface{}{"query": query, "error": err.Error()})
	}
	if len(candidates) > 0 {
		return candidates, nil
	}
	return r.fuzzy(ctx, query)
}

func (r *Resolver) exact(ctx context.Context, query string) ([]Candidate, error) {
	if r.text == nil {
		return nil, nil
	}
	hits, err := r.text.SearchNames(ctx, query, r.cfg.Limit)
	if err != nil {
		return nil, err
	}

	type scored struct {
		id    uuid.UUID
		score float64
	}
	var accepted []scored
	for _, h := range hits {
		s := NameScore(query, h.Name)
		if s <= r.cfg.ExactThreshold {
			continue
		}
		id, err := uuid.Parse(h.ID)
		if err != nil {
			continue
		}
		accepted = append(accepted, scored{id: id, score: s})
	}
	if len(accepted) == 0 {
		return nil, nil
	}
	sort.SliceStable(accepted, func(i, j int) bool { return accepted[i].score > accepted[j].score })

	ids := make([]uuid.UUID, len(accepted))
	for i, a := range accepted {
		ids[i] = a.id
	}
	products, err := r.products.FindAll(ctx, specification.ByIDs{IDs: ids}, specification.ActiveProducts{})
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*entity.Product, len(products))
	for _, p := range products {
		byID[p.Id] = p
	}

	out := make([]Candidate, 0, len(accepted))
	for _, a := range accepted {
		p, ok := byID[a.id]
		if !ok {
			continue
		}
		out = append(out, productCandidate(p, TierExact, a.score))
	}
	return out, nil
}

func (r *Resolver) fuzzy(ctx context.Context, query string) ([]Candidate, error) {
	tokens := SignificantTokens(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	products, err := r.products.FindAll(ctx,
		specification.ActiveProducts{},
		specification.NameContainsAll{Tokens: tokens},
		specification.Pagination{Limit: r.cfg.Limit},
	)
	if err != nil {
		return nil, err
	}

	// shorter names are more specific
	sort.SliceStable(products, func(i, j int) bool {
		li, lj := len([]rune(products[i].Name)), len([]rune(products[j].Name))
		if li != lj {
			return li < lj
		}
		return products[i].Name < products[j].Name
	})

	tokenRunes := len([]rune(strings.Join(tokens, " ")))
	out := make([]Candidate, 0, len(products))
	for _, p := range products {
		score := float64(tokenRunes) / float64(max(len([]rune(p.Name)), 1))
		if score > 1 {
			score = 1
		}
		out = append(out, productCandidate(p, TierFuzzy, score))
	}
	return out, nil
}

func (r *Resolver) semantic(ctx context.Context, query string, topK int) ([]Candidate, error) {
	if r.vector == nil {
		return nil, nil
	}
	if topK <= 0 {
		topK = r.cfg.VectorTopK
	}

	results, err := r.vector.SearchSimilar(ctx, query, topK, r.cfg.VectorThreshold)
	if err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(results))
	for _, res := range results {
		if res == nil || res.Product == nil || res.Similarity < r.cfg.VectorThreshold {
			continue
		}
		out = append(out, productCandidate(res.Product, TierVector, res.Similarity))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// InCategory lists active products of a category, used when the
// conversation already established what kind of item the shopper wants.
func (r *Resolver) InCategory(ctx context.Context, category string, limit int) ([]Candidate, error) {
	if category == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = r.cfg.Limit
	}
	products, err := r.products.FindAll(ctx,
		specification.ActiveProducts{},
		specification.InCategory{Category: category},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, len(products))
	for i, p := range products {
		out[i] = productCandidate(p, TierFuzzy, 1)
	}
	return out, nil
}

var (
	emailPattern = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]+`)
	phonePattern = regexp.MustCompile(`(?:\+84|0)\d{9,10}`)
	// command words stripped before a name lookup
	customerPhrases = []string{"thông tin", "tra cứu", "khách hàng", "lịch sử mua", "check"}
	customerWords   = map[string]bool{
		"tìm": true, "khách": true, "customer": true, "user": true, "info": true,
		"của": true, "về": true, "cho": true, "xem": true, "mình": true,
	}
)

func customerName(query string) string {
	s := strings.ToLower(query)
	for _, p := range customerPhrases {
		s = strings.ReplaceAll(s, p, " ")
	}
	var words []string
	for _, w := range strings.Fields(s) {
		w = strings.Trim(w, ".,:;!?\"'")
		if w == "" || customerWords[w] {
			continue
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}

// resolveCustomer tries email, then phone, then a name match.
func (r *Resolver) resolveCustomer(ctx context.Context, query string) ([]Candidate, error) {
	if r.users == nil {
		return nil, nil
	}

	if email := emailPattern.FindString(query); email != "" {
		u, err := r.users.FindOne(ctx, specification.ByEmail{Email: email})
		if err != nil {
			return nil, err
		}
		if u != nil {
			return []Candidate{customerCandidate(u, TierExact, 1)}, nil
		}
	}

	if phone := phonePattern.FindString(query); phone != "" {
		users, err := r.users.FindAll(ctx, specification.ByPhone{Phone: phone}, specification.Pagination{Limit: r.cfg.Limit})
		if err != nil {
			return nil, err
		}
		if len(users) > 0 {
			out := make([]Candidate, len(users))
			for i, u := range users {
				out[i] = customerCandidate(u, TierExact, 1)
			}
			return out, nil
		}
	}

	name := customerName(query)
	if len([]rune(name)) < 2 {
		return nil, nil
	}
	users, err := r.users.FindAll(ctx,
		specification.FullNameLike{Name: name},
		specification.ByRole{Role: string(entity.UserRoleUser)},
		specification.Pagination{Limit: r.cfg.Limit},
	)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, len(users))
	for i, u := range users {
		out[i] = customerCandidate(u, TierFuzzy, NameScore(name, u.FullName))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func productCandidate(p *entity.Product, tier Tier, score float64) Candidate {
	return Candidate{ID: p.Id.String(), Tier: tier, Score: score, Product: p}
}

func customerCandidate(u *entity.User, tier Tier, score float64) Candidate {
	return Candidate{ID: u.Id.String(), Tier: tier, Score: score, Customer: u}
}
