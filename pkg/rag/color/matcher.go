// Package color detects color mentions in shopper messages and filters
// variants by color.
package color

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"

	"commerce-assistant/internal/entity"
)

// Origin names the vocabulary a match came from.
type Origin string

const (
	OriginCatalog    Origin = "catalog"
	OriginCompound   Origin = "compound"
	OriginTranslated Origin = "translated"
)

// Match is a detected color. Term is the text that matched.
type Match struct {
	Term      string
	Canonical string
	Origin    Origin
}

// Matcher checks vocabularies in priority order: catalog colors, compound
// colors, then translated names. The first match wins.
type Matcher struct {
	cache      *Cache
	compound   []term
	translated []term

	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

func NewMatcher(cache *Cache) *Matcher {
	return &Matcher{
		cache:      cache,
		compound:   compoundTerms(),
		translated: translatedTerms(),
		patterns:   make(map[string]*regexp.Regexp),
	}
}

func (m *Matcher) Find(ctx context.Context, text string) *Match {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return nil
	}

	if m.cache != nil {
		catalog := make([]term, 0)
		for _, c := range m.cache.Colors(ctx) {
			c = strings.ToLower(strings.TrimSpace(c))
			if c != "" {
				catalog = append(catalog, term{text: c, canonical: Normalize(c)})
			}
		}
		sortTerms(catalog)
		if t, ok := m.first(lower, catalog); ok {
			return &Match{Term: t.text, Canonical: t.canonical, Origin: OriginCatalog}
		}
	}

	if t, ok := m.first(lower, m.compound); ok {
		return &Match{Term: t.text, Canonical: t.canonical, Origin: OriginCompound}
	}
	if t, ok := m.first(lower, m.translated); ok {
		return &Match{Term: t.text, Canonical: t.canonical, Origin: OriginTranslated}
	}
	return nil
}

func (m *Matcher) first(text string, terms []term) (term, bool) {
	for _, t := range terms {
		if m.pattern(t.text).MatchString(text) {
			return t, true
		}
	}
	return term{}, false
}

// pattern matches the term as a whole word. Go's \b is ASCII only, so the
// boundary is any non letter, non digit rune.
func (m *Matcher) pattern(t string) *regexp.Regexp {
	m.mu.Lock()
	defer m.mu.Unlock()
	if re, ok := m.patterns[t]; ok {
		return re
	}
	re := regexp.MustCompile(`(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(t) + `(?:$|[^\p{L}\p{N}])`)
	m.patterns[t] = re
	return re
}

// FilterByColor keeps the variants whose color contains any spelling of the
// canonical color.
func FilterByColor(variants []*entity.ProductVariant, canonical string) []*entity.ProductVariant {
	if canonical == "" {
		return variants
	}
	spellings := Variations(canonical)
	sort.SliceStable(spellings, func(i, j int) bool { return len(spellings[i]) > len(spellings[j]) })

	var out []*entity.ProductVariant
	for _, v := range variants {
		c := strings.ToLower(v.Color)
		for _, s := range spellings {
			if strings.Contains(c, s) {
				out = append(out, v)
				break
			}
		}
	}
	return out
}
