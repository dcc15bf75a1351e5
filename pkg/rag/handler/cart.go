package handler

import (
	"context"
	"regexp"
	"strings"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/internal/repository/contract"
	"commerce-assistant/pkg/rag/response"
	"commerce-assistant/pkg/store"
)

var sizeMention = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:size|sz|cỡ)\s*(xxxl|xxl|xl|xs|s|m|l|\d{2})(?:[^\p{L}\p{N}]|$)`)

// RequestedSize extracts a size named in the message.
func RequestedSize(message string) string {
	m := sizeMention.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

// Cart proposes an add-to-cart action. It never touches a cart.
type Cart struct {
	resolver ProductResolver
	products contract.ProductRepository
	colors   ColorFinder
	logger   logger.ILogger
}

func NewCart(resolver ProductResolver, products contract.ProductRepository, colors ColorFinder, log logger.ILogger) *Cart {
	return &Cart{resolver: resolver, products: products, colors: colors, logger: log}
}

func (h *Cart) Handle(ctx context.Context, req *Request) (*Result, error) {
	product, tier, err := h.product(ctx, req)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return clarify(response.AskCartProduct), nil
	}
	ref := refOf(product, tier)

	if len(product.InStockVariants()) == 0 {
		return &Result{Answer: response.OutOfStock(product.Name), SuggestedProducts: []store.ProductRef{*ref}, Product: ref}, nil
	}

	size := RequestedSize(req.Message)
	wantColor := ""
	if h.colors != nil {
		if m := h.colors.Find(ctx, req.Message); m != nil {
			wantColor = m.Canonical
		}
	}

	variant := pickVariant(product, size, wantColor)
	return &Result{
		Answer:            response.ConfirmCart(product.Name, variant.Size, variant.Color),
		SuggestedAction:   addToCart(product, variant),
		SuggestedProducts: []store.ProductRef{*ref},
		Product:           ref,
		Sources:           []string{product.Name},
	}, nil
}

// product uses the conversation's product, then the best resolved match.
func (h *Cart) product(ctx context.Context, req *Request) (*entity.Product, string, error) {
	if ref := req.Entities.Product; ref != nil {
		p, err := loadProduct(ctx, h.products, ref)
		if err != nil {
			return nil, "", err
		}
		if p != nil {
			return p, ref.Tier, nil
		}
	}
	candidates, err := h.resolver.ResolveProducts(ctx, req.Message, 1)
	if err != nil {
		return nil, "", err
	}
	for _, c := range candidates {
		if c.Product != nil {
			return c.Product, string(c.Tier), nil
		}
	}
	return nil, "", nil
}

// pickVariant prefers an exact size and color match, then each criterion
// alone, then the first in-stock variant.
func pickVariant(p *entity.Product, size, colorName string) *entity.ProductVariant {
	for _, try := range [][2]string{{size, colorName}, {size, ""}, {"", colorName}} {
		if try[0] == "" && try[1] == "" {
			continue
		}
		if v := variantFor(p, try[0], try[1]); v != nil {
			return v
		}
	}
	return variantFor(p, "", "")
}
