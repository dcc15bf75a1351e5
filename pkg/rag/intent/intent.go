package intent

import (
	"fmt"
	"strings"
)

// Type is the closed set of primary intents.
type Type string

const (
	ProductAdvice      Type = "product_advice"
	SizeRecommendation Type = "size_recommendation"
	OrderLookup        Type = "order_lookup"
	PolicyFAQ          Type = "policy_faq"
	AddToCart          Type = "add_to_cart"
	StyleMatching      Type = "style_matching"
	AdminAnalytics     Type = "admin_analytics"
	General            Type = "general"
)

// All lists every intent type. Registries must cover each one.
func All() []Type {
	return []Type{
		ProductAdvice,
		SizeRecommendation,
		OrderLookup,
		PolicyFAQ,
		AddToCart,
		StyleMatching,
		AdminAnalytics,
		General,
	}
}

func (t Type) Valid() bool {
	for _, v := range All() {
		if v == t {
			return true
		}
	}
	return false
}

// RequiredRole is the role a caller needs for the intent, or "".
func (t Type) RequiredRole() string {
	if t == AdminAnalytics {
		return RoleAdmin
	}
	return ""
}

const RoleAdmin = "admin"

// Parse maps a model label onto a Type. Older labels are folded into the
// current set.
func Parse(label string) (Type, error) {
	l := Type(strings.ToLower(strings.TrimSpace(label)))
	switch l {
	case "return_exchange", "returns", "policy":
		return PolicyFAQ, nil
	case "admin":
		return AdminAnalytics, nil
	}
	if !l.Valid() {
		return General, fmt.Errorf("unknown intent %q", label)
	}
	return l, nil
}

type Source string

const (
	SourceKeyword  Source = "keyword"
	SourceLLM      Source = "llm"
	SourceFallback Source = "fallback"
)

type Intent struct {
	Type         Type                   `json:"intent"`
	Confidence   float64                `json:"confidence"`
	Slots        map[string]interface{} `json:"slots,omitempty"`
	RequiredRole string                 `json:"required_role,omitempty"`
	Source       Source                 `json:"source"`
}

func newIntent(t Type, confidence float64, source Source) Intent {
	return Intent{Type: t, Confidence: confidence, RequiredRole: t.RequiredRole(), Source: source}
}

// Slot returns a string slot or "".
func (i Intent) Slot(name string) string {
	if i.Slots == nil {
		return ""
	}
	if s, ok := i.Slots[name].(string); ok {
		return s
	}
	return ""
}
