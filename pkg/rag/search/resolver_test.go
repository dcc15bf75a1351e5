package search

import (
	"context"
	"errors"
	"testing"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(products *fakeProducts, users *fakeUsers, text TextIndex, vector VectorIndex) *Resolver {
	return NewResolver(products, users, text, vector, DefaultConfig(), logger.NewNopLogger())
}

func TestResolveExactSkipsVector(t *testing.T) {
	coat := product("Classic Wool Coat", "coat")
	products := &fakeProducts{catalog: []*entity.Product{coat, product("Wool Scarf", "scarf")}}
	vector := &fakeVector{}
	text := &fakeText{hits: []TextHit{{ID: coat.Id.String(), Name: coat.Name}}}

	r := newTestResolver(products, nil, text, vector)
	got, err := r.Resolve(context.Background(), "classic wool coat", KindProduct)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, TierExact, got[0].Tier)
	assert.Equal(t, coat.Id.String(), got[0].ID)
	assert.Equal(t, 1.0, got[0].Score)
	assert.Zero(t, vector.calls)
}

func TestResolveExactRejectsLowScores(t *testing.T) {
	coat := product("Classic Wool Coat With Hood", "coat")
	products := &fakeProducts{catalog: []*entity.Product{coat}}
	text := &fakeText{hits: []TextHit{{ID: coat.Id.String(), Name: coat.Name}}}
	vector := &fakeVector{}

	r := newTestResolver(products, nil, text, vector)
	got, err := r.Resolve(context.Background(), "tìm áo coat", KindProduct)

	require.NoError(t, err)
	// "coat" covers one of five name tokens, so the hit only survives as fuzzy
	require.Len(t, got, 1)
	assert.Equal(t, TierFuzzy, got[0].Tier)
	assert.InDelta(t, 4.0/27.0, got[0].Score, 1e-9)
	assert.Zero(t, vector.calls)
}

func TestResolveFuzzyPrefersShortestName(t *testing.T) {
	long := product("Everyday Linen Shirt Relaxed Fit", "shirt")
	short := product("Linen Shirt", "shirt")
	products := &fakeProducts{catalog: []*entity.Product{long, short}}

	r := newTestResolver(products, nil, &fakeText{}, &fakeVector{})
	got, err := r.Resolve(context.Background(), "có linen shirt không", KindProduct)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, TierFuzzy, got[0].Tier)
	assert.Equal(t, "Linen Shirt", got[0].Name())
	assert.Equal(t, 1.0, got[0].Score)
	assert.Less(t, got[1].Score, 1.0)
}

func TestResolveVectorHonoursThreshold(t *testing.T) {
	a := product("Amber Eau de Parfum", "fragrance")
	b := product("Citrus Cologne", "fragrance")
	vector := &fakeVector{results: []*contract.ScoredProduct{
		{Product: b, Similarity: 0.7},
		{Product: a, Similarity: 0.82},
	}}

	r := newTestResolver(&fakeProducts{}, nil, &fakeText{}, vector)
	got, err := r.Resolve(context.Background(), "mùi ấm áp", KindProduct)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, TierVector, got[0].Tier)
	assert.Equal(t, a.Id.String(), got[0].ID)
	assert.False(t, got[0].Tier.Sticky())
}

func TestResolveTierFailureFallsThrough(t *testing.T) {
	a := product("Amber Eau de Parfum", "fragrance")
	products := &fakeProducts{err: errors.New("db down")}
	text := &fakeText{err: errors.New("index down")}
	vector := &fakeVector{results: []*contract.ScoredProduct{{Product: a, Similarity: 0.9}}}

	r := newTestResolver(products, nil, text, vector)
	got, err := r.Resolve(context.Background(), "amber parfum", KindProduct)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, TierVector, got[0].Tier)
}

func TestResolveNothingFound(t *testing.T) {
	r := newTestResolver(&fakeProducts{}, nil, &fakeText{}, &fakeVector{})

	got, err := r.Resolve(context.Background(), "xyz", KindProduct)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = r.Resolve(context.Background(), "   ", KindProduct)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveCustomer(t *testing.T) {
	lan := &entity.User{Id: uuid.New(), FullName: "Nguyễn Thị Lan", Email: "lan@example.com", Phone: "0901234567", Role: entity.UserRoleUser}
	minh := &entity.User{Id: uuid.New(), FullName: "Trần Minh", Email: "minh@example.com", Phone: "0912345678", Role: entity.UserRoleUser}
	users := &fakeUsers{users: []*entity.User{lan, minh}}
	r := newTestResolver(&fakeProducts{}, users, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		want  *entity.User
		tier  Tier
	}{
		{"email", "thông tin khách lan@example.com", lan, TierExact},
		{"phone", "tìm user 0912345678", minh, TierExact},
		{"name", "thông tin khách hàng Trần Minh", minh, TierFuzzy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(ctx, tt.query, KindCustomer)
			require.NoError(t, err)
			require.NotEmpty(t, got)
			assert.Equal(t, tt.want.Id.String(), got[0].ID)
			assert.Equal(t, tt.tier, got[0].Tier)
			assert.Equal(t, tt.want, got[0].Customer)
		})
	}

	got, err := r.Resolve(ctx, "thông tin khách hàng", KindCustomer)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInCategory(t *testing.T) {
	products := &fakeProducts{catalog: []*entity.Product{
		product("Wool Scarf", "scarf"),
		product("Linen Shirt", "shirt"),
	}}
	r := newTestResolver(products, nil, nil, nil)

	got, err := r.InCategory(context.Background(), "SCARF", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Wool Scarf", got[0].Name())
}

func TestResolveExplicitNeverUsesVector(t *testing.T) {
	a := product("Amber Eau de Parfum", "fragrance")
	vector := &fakeVector{results: []*contract.ScoredProduct{{Product: a, Similarity: 0.95}}}
	r := newTestResolver(&fakeProducts{}, nil, &fakeText{}, vector)

	got, err := r.ResolveExplicit(context.Background(), "cao 175cm nặng 70kg")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, vector.calls)
}
