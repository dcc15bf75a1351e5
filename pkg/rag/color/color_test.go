package color

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu      sync.Mutex
	colors  []string
	err     error
	calls   int
	release chan struct{}
}

func (s *fakeSource) DistinctColors(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	s.calls++
	release := s.release
	s.mu.Unlock()

	if release != nil {
		<-release
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.colors, nil
}

func (s *fakeSource) set(colors []string, err error) {
	s.mu.Lock()
	s.colors, s.err = colors, err
	s.mu.Unlock()
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)}
}

func TestMatcherFind(t *testing.T) {
	src := &fakeSource{colors: []string{"Dusty Pink", "Red", "Navy"}}
	m := NewMatcher(NewCache(src, time.Hour, newClock(), logger.NewNopLogger()))
	ctx := context.Background()

	tests := []struct {
		name      string
		text      string
		canonical string
		origin    Origin
	}{
		{"vietnamese single", "màu đỏ", "red", OriginTranslated},
		{"catalog compound first", "có khăn dusty pink không", "dusty pink", OriginCatalog},
		{"catalog single", "I want the red one", "red", OriginCatalog},
		{"vietnamese compound", "áo xanh lá", "green", OriginCompound},
		{"english compound head noun", "light blue shirt", "blue", OriginCompound},
		{"catalog inside compound", "quần xanh navy", "navy", OriginCatalog},
		{"plain xanh", "áo xanh size M", "blue", OriginTranslated},
		{"english list", "any teal bags?", "teal", OriginTranslated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Find(ctx, tt.text)
			require.NotNil(t, got)
			assert.Equal(t, tt.canonical, got.Canonical)
			assert.Equal(t, tt.origin, got.Origin)
		})
	}
}

func TestMatcherWordBoundary(t *testing.T) {
	m := NewMatcher(nil)
	ctx := context.Background()

	for _, text := range []string{"shredded jeans", "I am bored", "tanktop", ""} {
		t.Run(text, func(t *testing.T) {
			assert.Nil(t, m.Find(ctx, text))
		})
	}
	assert.NotNil(t, m.Find(ctx, "red, please"))
	assert.NotNil(t, m.Find(ctx, "(đen)"))
}

func TestFilterByColor(t *testing.T) {
	variants := []*entity.ProductVariant{
		{Sku: "SC-RED", Color: "Red"},
		{Sku: "SC-WINE", Color: "Wine Red"},
		{Sku: "SC-NAVY", Color: "Navy"},
		{Sku: "SC-VI", Color: "Đỏ"},
	}

	got := FilterByColor(variants, "red")
	skus := make([]string, len(got))
	for i, v := range got {
		skus[i] = v.Sku
	}
	assert.Equal(t, []string{"SC-RED", "SC-WINE", "SC-VI"}, skus)

	assert.Len(t, FilterByColor(variants, ""), 4)
	assert.Empty(t, FilterByColor(variants, "green"))
}

func TestVocabularyHelpers(t *testing.T) {
	assert.Equal(t, "red", Normalize(" Đỏ "))
	assert.Equal(t, "navy", Normalize("xanh navy"))
	assert.Equal(t, "xanh", DisplayName("blue"))
	assert.Equal(t, "teal", DisplayName("teal"))
	assert.Contains(t, Variations("gray"), "grey")
	assert.Contains(t, Variations("gray"), "xám")
}

func TestCacheTTLAndInvalidate(t *testing.T) {
	src := &fakeSource{colors: []string{"Red"}}
	clock := newClock()
	c := NewCache(src, time.Hour, clock, logger.NewNopLogger())
	ctx := context.Background()

	assert.Equal(t, []string{"Red"}, c.Colors(ctx))
	assert.Equal(t, []string{"Red"}, c.Colors(ctx))
	assert.Equal(t, 1, src.callCount())

	src.set([]string{"Red", "Navy"}, nil)
	c.Invalidate()
	assert.Equal(t, []string{"Red", "Navy"}, c.Colors(ctx))
	assert.Equal(t, 2, src.callCount())
}

func TestCacheStaleWhileRevalidate(t *testing.T) {
	src := &fakeSource{colors: []string{"Red"}}
	clock := newClock()
	c := NewCache(src, time.Hour, clock, logger.NewNopLogger())
	ctx := context.Background()

	require.Equal(t, []string{"Red"}, c.Colors(ctx))

	src.set([]string{"Navy"}, nil)
	clock.Advance(2 * time.Hour)

	// stale value is served immediately
	assert.Equal(t, []string{"Red"}, c.Colors(ctx))
	assert.Eventually(t, func() bool {
		snap := c.Snapshot()
		return len(snap) == 1 && snap[0] == "Navy"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, src.callCount())
}

func TestCacheRefreshErrorKeepsStale(t *testing.T) {
	src := &fakeSource{colors: []string{"Red"}}
	clock := newClock()
	c := NewCache(src, time.Hour, clock, logger.NewNopLogger())
	ctx := context.Background()

	require.Equal(t, []string{"Red"}, c.Colors(ctx))

	src.set(nil, errors.New("db down"))
	clock.Advance(2 * time.Hour)

	assert.Equal(t, []string{"Red"}, c.Colors(ctx))
	assert.Eventually(t, func() bool { return src.callCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"Red"}, c.Snapshot())
}

func TestCacheColdLoadSingleFlight(t *testing.T) {
	release := make(chan struct{})
	src := &fakeSource{colors: []string{"Red"}, release: release}
	c := NewCache(src, time.Hour, newClock(), logger.NewNopLogger())

	var wg sync.WaitGroup
	results := make([][]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Colors(context.Background())
		}(i)
	}

	assert.Eventually(t, func() bool { return src.callCount() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, src.callCount())
	for _, r := range results {
		assert.Equal(t, []string{"Red"}, r)
	}
}
