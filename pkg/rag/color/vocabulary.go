package color

import (
	"sort"
	"strings"
)

// translations maps Vietnamese color names to their canonical English name.
var translations = map[string]string{
	"đen":         "black",
	"trắng":       "white",
	"đỏ":          "red",
	"xanh":        "blue",
	"xanh lá":     "green",
	"xanh dương":  "blue",
	"vàng":        "yellow",
	"cam":         "orange",
	"tím":         "purple",
	"hồng":        "pink",
	"nâu":         "brown",
	"xám":         "gray",
	"be":          "beige",
	"kem":         "cream",
	"xanh navy":   "navy",
	"xanh rêu":    "olive",
	"xanh mint":   "mint",
	"bạc":         "silver",
	"vàng gold":   "gold",
	"đỏ rượu":     "wine",
	"đỏ đô":       "burgundy",
	"hồng pastel": "pastel pink",
	"xanh pastel": "pastel blue",
}

var englishColors = []string{
	"black", "white", "red", "blue", "green", "yellow", "orange", "purple",
	"pink", "brown", "gray", "grey", "beige", "cream", "navy", "olive",
	"mint", "silver", "gold", "wine", "burgundy", "teal", "coral",
	"salmon", "khaki", "ivory", "charcoal", "indigo", "maroon", "tan",
}

var compoundColors = []string{
	"xanh navy", "xanh lá", "xanh dương", "xanh rêu", "xanh mint",
	"đỏ rượu", "đỏ đô", "wine red", "navy blue", "dusty pink",
	"hot pink", "light pink", "dark blue", "light blue", "dark green",
	"light green", "off white", "cream white", "pastel pink", "pastel blue",
	"dusty blue", "burgundy red", "olive green", "forest green", "sky blue",
}

var aliases = map[string][]string{
	"gray": {"grey"},
	"grey": {"gray"},
}

// compoundCanonical resolves a compound color to its canonical name. English
// compounds keep their head noun ("navy blue" is blue).
func compoundCanonical(compound string) string {
	if en, ok := translations[compound]; ok {
		return en
	}
	parts := strings.Fields(compound)
	return parts[len(parts)-1]
}

// translatedTerms lists the Vietnamese and English names, longest first so
// "xanh lá" wins over "xanh".
func translatedTerms() []term {
	terms := make([]term, 0, len(translations)+len(englishColors))
	for vi, en := range translations {
		terms = append(terms, term{text: vi, canonical: en})
	}
	for _, en := range englishColors {
		terms = append(terms, term{text: en, canonical: en})
	}
	sortTerms(terms)
	return terms
}

func compoundTerms() []term {
	terms := make([]term, len(compoundColors))
	for i, c := range compoundColors {
		terms[i] = term{text: c, canonical: compoundCanonical(c)}
	}
	sortTerms(terms)
	return terms
}

type term struct {
	text      string
	canonical string
}

func sortTerms(terms []term) {
	sort.SliceStable(terms, func(i, j int) bool {
		li, lj := len([]rune(terms[i].text)), len([]rune(terms[j].text))
		if li != lj {
			return li > lj
		}
		return terms[i].text < terms[j].text
	})
}

// Normalize returns the canonical English name of a color in either language.
func Normalize(c string) string {
	lower := strings.ToLower(strings.TrimSpace(c))
	if en, ok := translations[lower]; ok {
		return en
	}
	return lower
}

// DisplayName returns the Vietnamese name of a canonical color when known.
func DisplayName(canonical string) string {
	lower := strings.ToLower(canonical)
	best := ""
	for vi, en := range translations {
		if en == lower && (best == "" || len(vi) < len(best)) {
			best = vi
		}
	}
	if best == "" {
		return canonical
	}
	return best
}

// Variations lists every spelling that denotes the canonical color.
func Variations(c string) []string {
	canonical := Normalize(c)
	seen := map[string]bool{canonical: true}
	out := []string{canonical}
	add := func(v string) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for vi, en := range translations {
		if en == canonical {
			add(vi)
		}
	}
	for _, a := range aliases[canonical] {
		add(a)
	}
	add(strings.ToLower(c))
	sort.Strings(out[1:])
	return out
}
