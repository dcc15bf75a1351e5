package search

import (
	"strings"
	"unicode"
)

var stopwords = map[string]bool{
	// vi
	"những": true, "được": true, "không": true, "mình": true, "muốn": true,
	"bạn": true, "shop": true, "thêm": true, "giúp": true, "xem": true,
	"cho": true, "này": true, "kia": true, "đó": true, "với": true,
	"loại": true, "màu": true, "size": true, "còn": true, "hàng": true,
	"bao": true, "nhiêu": true, "giá": true, "sản": true, "phẩm": true,
	// en
	"this": true, "that": true, "with": true, "have": true, "what": true,
	"show": true, "about": true, "please": true, "want": true, "need": true,
	"some": true, "your": true, "there": true, "which": true, "price": true,
	"color": true, "colour": true,
}

// Tokenize lowercases the text and splits it on anything that is not a
// letter or digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Normalize joins the tokens of text with single spaces.
func Normalize(text string) string {
	return strings.Join(Tokenize(text), " ")
}

// SignificantTokens keeps tokens longer than three runes that are not
// stopwords, in order of first appearance.
func SignificantTokens(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range Tokenize(text) {
		if len([]rune(t)) <= 3 || stopwords[t] || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// NameScore rates how well a catalog name matches the query on a 0..1 scale.
// An identical normalized name scores 1. Otherwise the score is dominated by
// the share of name tokens present in the query, with the share of query
// tokens covered by the name as a tie-breaker.
func NameScore(query, name string) float64 {
	q := Normalize(query)
	n := Normalize(name)
	if q == "" || n == "" {
		return 0
	}
	if q == n {
		return 1
	}

	qTokens := Tokenize(q)
	nTokens := Tokenize(n)
	inQuery := make(map[string]bool, len(qTokens))
	for _, t := range qTokens {
		inQuery[t] = true
	}
	inName := make(map[string]bool, len(nTokens))
	common := 0
	for _, t := range nTokens {
		if inQuery[t] && !inName[t] {
			common++
		}
		inName[t] = true
	}
	if common == 0 {
		return 0
	}

	nameCoverage := float64(common) / float64(len(inName))
	queryCoverage := float64(common) / float64(len(inQuery))
	score := 0.9*nameCoverage + 0.1*queryCoverage
	if score >= 1 {
		// all tokens shared but spelled differently (order, punctuation)
		score = 0.99
	}
	return score
}
