package handler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/internal/repository/contract"
	"commerce-assistant/internal/repository/specification"
	"commerce-assistant/pkg/rag/color"
	"commerce-assistant/pkg/rag/prompt"
	"commerce-assistant/pkg/rag/response"
	"commerce-assistant/pkg/rag/search"
	"commerce-assistant/pkg/rag/session"
	"commerce-assistant/pkg/rerank"
	"commerce-assistant/pkg/store"

	"github.com/google/uuid"
)

// AnswerGenerator writes the final answer from a context block.
type AnswerGenerator interface {
	GenerateTask(ctx context.Context, task, query, contextBlock string, history []store.Turn, customer *prompt.CustomerContext) (string, error)
}

// ColorFinder detects a color mention.
type ColorFinder interface {
	Find(ctx context.Context, text string) *color.Match
}

type AdvisorConfig struct {
	VectorTopK int
	RerankTopN int
}

func DefaultAdvisorConfig() AdvisorConfig {
	return AdvisorConfig{VectorTopK: 50, RerankTopN: 10}
}

const descriptionRunes = 500

// Advisor answers product questions from retrieved catalog data.
type Advisor struct {
	resolver  ProductResolver
	products  contract.ProductRepository
	colors    ColorFinder
	reranker  rerank.Reranker
	generator AnswerGenerator
	cfg       AdvisorConfig
	logger    logger.ILogger
}

func NewAdvisor(resolver ProductResolver, products contract.ProductRepository, colors ColorFinder, reranker rerank.Reranker, generator AnswerGenerator, cfg AdvisorConfig, log logger.ILogger) *Advisor {
	if cfg.VectorTopK <= 0 {
		cfg.VectorTopK = DefaultAdvisorConfig().VectorTopK
	}
	if cfg.RerankTopN <= 0 {
		cfg.RerankTopN = DefaultAdvisorConfig().RerankTopN
	}
	return &Advisor{
		resolver:  resolver,
		products:  products,
		colors:    colors,
		reranker:  reranker,
		generator: generator,
		cfg:       cfg,
		logger:    log,
	}
}

// item is a retrieved product with the variants shown for it.
type item struct {
	candidate  search.Candidate
	variants   []*entity.ProductVariant
	colorMatch bool
}

type retrieval struct {
	items []item
	color *color.Match
}

func (r *retrieval) candidates() []search.Candidate {
	out := make([]search.Candidate, len(r.items))
	for i, it := range r.items {
		out[i] = it.candidate
	}
	return out
}

func (h *Advisor) Handle(ctx context.Context, req *Request) (*Result, error) {
	r, err := h.retrieve(ctx, req, h.enrich(req))
	if err != nil {
		return nil, err
	}
	if len(r.items) == 0 {
		return clarify(response.ProductNotFound), nil
	}
	return h.answer(ctx, req, r, "")
}

// enrich appends the current product name to short follow-up questions.
func (h *Advisor) enrich(req *Request) string {
	query := req.Message
	ref := req.Entities.Product
	if ref == nil || ref.Name == "" || utf8.RuneCountInString(query) >= session.ShortMessageRunes {
		return query
	}
	if strings.Contains(strings.ToLower(query), strings.ToLower(ref.Name)) {
		return query
	}
	return query + " " + ref.Name
}

func (h *Advisor) retrieve(ctx context.Context, req *Request, query string) (*retrieval, error) {
	candidates, err := h.resolver.ResolveProducts(ctx, query, h.cfg.VectorTopK)
	if err != nil {
		return nil, err
	}

	r := &retrieval{}
	if h.colors != nil {
		r.color = h.colors.Find(ctx, req.Message)
	}

	if r.color != nil {
		byColor, err := h.colorCandidates(ctx, r.color.Canonical)
		if err != nil {
			h.logger.Warn("ProductAdvisor", "color lookup failed", map[string]interface{}{"color": r.color.Canonical, "error": err.Error()})
		}
		candidates = mergeCandidates(byColor, candidates)
	}

	category := ""
	if req.Entities.Product != nil {
		category = req.Entities.Product.Category
	}

	for _, c := range candidates {
		if c.Product == nil {
			continue
		}
		it := item{candidate: c, variants: c.Product.InStockVariants()}
		if r.color != nil {
			if matched := color.FilterByColor(it.variants, r.color.Canonical); len(matched) > 0 {
				it.variants = matched
				it.colorMatch = true
			}
		}
		r.items = append(r.items, it)
	}

	if r.color != nil && category != "" {
		r.items = restrict(r.items, category)
	}

	r.items = h.rerank(ctx, req.Message, r.items)

	if r.color != nil {
		sort.SliceStable(r.items, func(i, j int) bool {
			return r.items[i].colorMatch && !r.items[j].colorMatch
		})
	}
	return r, nil
}

// restrict keeps the color-matched items of the given category. With no
// such item the list is left unchanged.
func restrict(items []item, category string) []item {
	var out []item
	for _, it := range items {
		if it.colorMatch && strings.EqualFold(it.candidate.Product.Category, category) {
			out = append(out, it)
		}
	}
	if len(out) == 0 {
		return items
	}
	return out
}

// colorCandidates finds active products having an in-stock variant of the
// color. They carry the vector tier so they never become sticky.
func (h *Advisor) colorCandidates(ctx context.Context, canonical string) ([]search.Candidate, error) {
	if h.products == nil {
		return nil, nil
	}
	variants, err := h.products.FindVariants(ctx, specification.ActiveVariants{}, specification.VariantColorLike{Color: canonical})
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, v := range variants {
		if !seen[v.ProductId] {
			seen[v.ProductId] = true
			ids = append(ids, v.ProductId)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	products, err := h.products.FindAll(ctx, specification.ByIDs{IDs: ids}, specification.ActiveProducts{})
	if err != nil {
		return nil, err
	}
	out := make([]search.Candidate, 0, len(products))
	for _, p := range products {
		out = append(out, search.Candidate{ID: p.Id.String(), Tier: search.TierVector, Score: 1, Product: p})
	}
	return out, nil
}

// mergeCandidates concatenates lists and keeps the first occurrence of an id.
func mergeCandidates(lists ...[]search.Candidate) []search.Candidate {
	seen := make(map[string]bool)
	var out []search.Candidate
	for _, list := range lists {
		for _, c := range list {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out = append(out, c)
		}
	}
	return out
}

func (h *Advisor) rerank(ctx context.Context, query string, items []item) []item {
	if len(items) == 0 {
		return items
	}
	if h.reranker == nil {
		if len(items) > h.cfg.RerankTopN {
			items = items[:h.cfg.RerankTopN]
		}
		return items
	}
	docs := make([]string, len(items))
	for i, it := range items {
		docs[i] = document(it.candidate.Product)
	}
	results := h.reranker.Rerank(ctx, query, docs, h.cfg.RerankTopN)
	out := make([]item, 0, len(results))
	for _, r := range results {
		if r.Index >= 0 && r.Index < len(items) {
			out = append(out, items[r.Index])
		}
	}
	return out
}

func document(p *entity.Product) string {
	parts := []string{p.Name}
	for _, s := range []string{p.Category, p.Brand, p.Material, p.Description} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ". ")
}

func (h *Advisor) answer(ctx context.Context, req *Request, r *retrieval, task string) (*Result, error) {
	block := contextBlock(r)
	answer, err := h.generator.GenerateTask(ctx, task, req.Message, block, req.History(), req.Customer)
	if err != nil {
		return nil, err
	}

	suggested, mentioned := SuggestByMention(answer, r.candidates())
	res := &Result{Answer: answer}
	for _, c := range suggested {
		res.SuggestedProducts = append(res.SuggestedProducts, c.Ref())
	}
	for _, it := range r.items {
		res.Sources = append(res.Sources, it.candidate.Name())
	}
	if mentioned && len(res.SuggestedProducts) > 0 {
		first := res.SuggestedProducts[0]
		res.Product = &first
	}
	if r.color != nil {
		res.Data = map[string]interface{}{"color": r.color.Canonical}
	}
	return res, nil
}

// contextBlock renders retrieved products for the prompt. Color-matched
// items only show their matching variants.
func contextBlock(r *retrieval) string {
	var b strings.Builder
	b.WriteString("## Sản phẩm liên quan:\n\n")
	if r.color != nil {
		fmt.Fprintf(&b, "Khách hỏi màu: %s (%s)\n\n", color.DisplayName(r.color.Canonical), r.color.Canonical)
	}
	for i, it := range r.items {
		p := it.candidate.Product
		fmt.Fprintf(&b, "### %d. %s\n", i+1, p.Name)
		fmt.Fprintf(&b, "- **Danh mục:** %s\n", orNA(p.Category))
		if p.Brand != "" {
			fmt.Fprintf(&b, "- **Thương hiệu:** %s\n", p.Brand)
		}
		if p.Description != "" {
			fmt.Fprintf(&b, "- **Mô tả:** %s\n", truncateRunes(p.Description, descriptionRunes))
		}
		if len(it.variants) > 0 {
			view := &entity.Product{Variants: it.variants}
			lo, hi := view.PriceRange()
			fmt.Fprintf(&b, "- **Sizes có sẵn:** %s\n", strings.Join(view.AvailableSizes(), ", "))
			fmt.Fprintf(&b, "- **Màu sắc:** %s\n", strings.Join(view.Colors(), ", "))
			fmt.Fprintf(&b, "- **Giá:** %s\n", formatPrice(lo, hi))
			fmt.Fprintf(&b, "- **Còn hàng:** %d sản phẩm\n", view.TotalStock())
		} else {
			b.WriteString("- **Còn hàng:** hết hàng\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// SuggestByMention ranks candidates by how explicitly the answer names them.
// A bold marker equal to the name scores 100 and the plain name 50. Failing
// that each shared significant keyword adds 10, and a partial bold overlap
// scores 1. Positive scores are kept; with none the first candidates are
// returned and mentioned is false.
func SuggestByMention(answer string, candidates []search.Candidate) (suggested []search.Candidate, mentioned bool) {
	lower := strings.ToLower(answer)
	bold := session.BoldNames(answer)
	answerTokens := make(map[string]bool)
	for _, t := range search.SignificantTokens(answer) {
		answerTokens[t] = true
	}

	type scored struct {
		c     search.Candidate
		score int
		pos   int
	}
	var hits []scored
	for i, c := range candidates {
		name := strings.ToLower(strings.TrimSpace(c.Name()))
		if name == "" {
			continue
		}
		score := 0
		switch {
		case mentionsBold(bold, name):
			score = 100
		case strings.Contains(lower, name):
			score = 50
		default:
			for _, t := range search.SignificantTokens(name) {
				if answerTokens[t] {
					score += 10
				}
			}
			if score == 0 && boldContains(bold, name) {
				score = 1
			}
		}
		if score > 0 {
			hits = append(hits, scored{c: c, score: score, pos: i})
		}
	}

	if len(hits) == 0 {
		if len(candidates) > MaxSuggestedProducts {
			return candidates[:MaxSuggestedProducts], false
		}
		return candidates, false
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	out := make([]search.Candidate, 0, MaxSuggestedProducts)
	for _, h := range hits {
		if len(out) == MaxSuggestedProducts {
			break
		}
		out = append(out, h.c)
	}
	return out, true
}

func mentionsBold(bold []string, name string) bool {
	for _, b := range bold {
		if strings.EqualFold(b, name) {
			return true
		}
	}
	return false
}

func boldContains(bold []string, name string) bool {
	for _, b := range bold {
		lb := strings.ToLower(b)
		if strings.Contains(lb, name) || strings.Contains(name, lb) {
			return true
		}
	}
	return false
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
