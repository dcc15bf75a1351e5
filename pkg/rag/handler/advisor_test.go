package handler

import (
	"context"
	"testing"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/pkg/rag/response"
	"commerce-assistant/pkg/rag/search"
	"commerce-assistant/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type advisorFixture struct {
	advisor  *Advisor
	resolver *fakeResolver
	answer   *scriptedAnswer
}

func newAdvisorFixture(answer string, catalog []*entity.Product, candidates ...*entity.Product) *advisorFixture {
	f := &advisorFixture{
		resolver: &fakeResolver{},
		answer:   &scriptedAnswer{answer: answer},
	}
	for _, p := range candidates {
		f.resolver.candidates = append(f.resolver.candidates, exact(p))
	}
	f.advisor = NewAdvisor(f.resolver, &fakeProducts{items: catalog}, blackFinder{}, nil, f.answer, AdvisorConfig{}, logger.NewNopLogger())
	return f
}

func TestAdvisorSuggestsOnlyRetrievedProducts(t *testing.T) {
	jacket := newProduct("Cashmere Bomber Jacket", "Jackets", [3]string{"M", "Navy", ""})
	shirt := newProduct("Oxford Shirt", "Shirts", [3]string{"M", "White", ""})
	// The model mentions a product that was never retrieved.
	f := newAdvisorFixture("Bạn có thể thử **Oxford Shirt** hoặc **Silk Dress** nhé.", nil, jacket, shirt)

	res, err := f.advisor.Handle(context.Background(), productRequest("áo nào đi làm đẹp", nil, store.Measurements{}))
	require.NoError(t, err)

	retrieved := map[string]bool{jacket.Id.String(): true, shirt.Id.String(): true}
	require.NotEmpty(t, res.SuggestedProducts)
	for _, p := range res.SuggestedProducts {
		assert.True(t, retrieved[p.ID], "suggested %s was not retrieved", p.Name)
	}
	assert.Equal(t, "Oxford Shirt", res.SuggestedProducts[0].Name)
	assert.Equal(t, []string{"Cashmere Bomber Jacket", "Oxford Shirt"}, res.Sources)
	assert.Contains(t, f.answer.block, "### 1. Cashmere Bomber Jacket")
}

func TestAdvisorLeavesProductUnsetWhenAnswerNamesNothing(t *testing.T) {
	jacket := newProduct("Cashmere Bomber Jacket", "Jackets", [3]string{"M", "Navy", ""})
	shirt := newProduct("Oxford Shirt", "Shirts", [3]string{"M", "White", ""})
	f := newAdvisorFixture("Shop có vài mẫu phù hợp, bạn thích phong cách nào?", nil, jacket, shirt)

	res, err := f.advisor.Handle(context.Background(), productRequest("tư vấn đồ đi làm", nil, store.Measurements{}))
	require.NoError(t, err)
	require.Len(t, res.SuggestedProducts, 2)
	assert.Nil(t, res.Product)
}

func TestAdvisorAsksWhenNothingRetrieved(t *testing.T) {
	f := newAdvisorFixture("không dùng", nil)

	res, err := f.advisor.Handle(context.Background(), productRequest("có bán xe máy không", nil, store.Measurements{}))
	require.NoError(t, err)
	assert.Equal(t, TypeClarify, res.Type)
	assert.Equal(t, response.ProductNotFound, res.Answer)
	assert.Empty(t, f.answer.block)
}

func TestAdvisorEnrichesShortFollowUps(t *testing.T) {
	jacket := newProduct("Cashmere Bomber Jacket", "Jackets", [3]string{"M", "Navy", ""})
	f := newAdvisorFixture("Còn hàng nhé.", nil, jacket)
	ref := refTo(jacket, "exact")

	_, err := f.advisor.Handle(context.Background(), productRequest("giá bao nhiêu?", ref, store.Measurements{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"giá bao nhiêu? Cashmere Bomber Jacket"}, f.resolver.queries)
}

func TestAdvisorColorQueryShowsMatchingVariantsFirst(t *testing.T) {
	navy := newProduct("Wool Coat", "Coats", [3]string{"M", "Navy", ""})
	black := newProduct("Leather Jacket", "Jackets",
		[3]string{"M", "Black", ""},
		[3]string{"L", "Brown", ""},
	)
	f := newAdvisorFixture("Mẫu **Leather Jacket** màu đen rất hợp.", []*entity.Product{navy, black}, navy)

	res, err := f.advisor.Handle(context.Background(), productRequest("có áo khoác màu đen không", nil, store.Measurements{}))
	require.NoError(t, err)

	assert.Equal(t, "black", res.Data["color"])
	assert.Equal(t, "Leather Jacket", res.Sources[0])
	assert.Contains(t, f.answer.block, "Black")
	assert.NotContains(t, f.answer.block, "Brown")
	require.NotEmpty(t, res.SuggestedProducts)
	assert.Equal(t, "Leather Jacket", res.SuggestedProducts[0].Name)
	// Products found through their color never become the sticky product.
	assert.Equal(t, string(search.TierVector), res.Product.Tier)
}

func TestAdvisorColorRestrictedToCurrentCategory(t *testing.T) {
	pants := newProduct("Slim Chinos", "Pants", [3]string{"32", "Black", ""})
	jacket := newProduct("Leather Jacket", "Jackets", [3]string{"M", "Black", ""})
	current := newProduct("Bomber Jacket", "Jackets", [3]string{"M", "Green", ""})
	f := newAdvisorFixture("Có **Leather Jacket** màu đen.", []*entity.Product{pants, jacket}, current)

	res, err := f.advisor.Handle(context.Background(), productRequest("có màu đen không", refTo(current, "exact"), store.Measurements{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Leather Jacket"}, res.Sources)
}

func TestAdvisorPropagatesGenerationFailure(t *testing.T) {
	jacket := newProduct("Cashmere Bomber Jacket", "Jackets", [3]string{"M", "Navy", ""})
	f := newAdvisorFixture("", nil, jacket)
	f.answer.err = errModelDown

	_, err := f.advisor.Handle(context.Background(), productRequest("áo khoác ấm", nil, store.Measurements{}))
	assert.ErrorIs(t, err, errModelDown)
}

func TestSuggestByMention(t *testing.T) {
	a := exact(newProduct("Oxford Shirt", "Shirts"))
	b := exact(newProduct("Linen Trousers", "Pants"))
	c := exact(newProduct("Cashmere Bomber Jacket", "Jackets"))
	d := exact(newProduct("Denim Jacket", "Jackets"))
	all := []search.Candidate{a, b, c, d}

	names := func(cs []search.Candidate) []string {
		var out []string
		for _, c := range cs {
			out = append(out, c.Name())
		}
		return out
	}

	tests := []struct {
		name      string
		answer    string
		want      []string
		mentioned bool
	}{
		{"bold beats plain", "Thử Linen Trousers với **Oxford Shirt**.", []string{"Oxford Shirt", "Linen Trousers"}, true},
		{"keywords", "Chiếc bomber cashmere rất ấm.", []string{"Cashmere Bomber Jacket"}, true},
		{"nothing named keeps order", "Cảm ơn bạn!", []string{"Oxford Shirt", "Linen Trousers", "Cashmere Bomber Jacket"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, mentioned := SuggestByMention(tt.answer, all)
			assert.Equal(t, tt.want, names(got))
			assert.Equal(t, tt.mentioned, mentioned)
		})
	}
}
