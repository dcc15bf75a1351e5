// Package knowledge derives sizing and material knowledge for catalog
// products. Results are cached per product.
package knowledge

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"commerce-assistant/internal/entity"

	"github.com/patrickmn/go-cache"
)

const DefaultTTL = 30 * time.Minute

type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

type MaterialProperties struct {
	Stretch       Level `json:"stretch,omitempty"`
	Breathability Level `json:"breathability,omitempty"`
	Warmth        Level `json:"warmth,omitempty"`
}

type ProductKnowledge struct {
	ProductID           string             `json:"product_id"`
	ProductName         string             `json:"product_name"`
	Material            string             `json:"material"`
	MaterialType        string             `json:"material_type"` // natural, synthetic, blend
	Properties          MaterialProperties `json:"properties"`
	HasStretch          bool               `json:"has_stretch"`
	StretchPercentage   int                `json:"stretch_percentage"`
	FitType             string             `json:"fit_type"`
	SizingAdvice        string             `json:"sizing_advice"`
	CriticalMeasurement string             `json:"critical_measurement"`
	SizeChart           *SizeChart         `json:"size_chart,omitempty"`
	CareInstructions    string             `json:"care_instructions"`
	Shrinkage           string             `json:"shrinkage"`
	Season              string             `json:"season"`
}

// Service builds and caches product knowledge.
type Service struct {
	cache *cache.Cache
}

func NewService(ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{cache: cache.New(ttl, 2*ttl)}
}

// ForProduct returns the knowledge of p, computing it on a cache miss.
func (s *Service) ForProduct(ctx context.Context, p *entity.Product) ProductKnowledge {
	if p == nil {
		return ProductKnowledge{FitType: defaultFit.fit, SizingAdvice: defaultFit.advice}
	}
	key := p.Id.String()
	if x, ok := s.cache.Get(key); ok {
		return x.(ProductKnowledge)
	}
	k := Build(p)
	s.cache.SetDefault(key, k)
	return k
}

// Invalidate drops the cached knowledge of one product.
func (s *Service) Invalidate(productID string) {
	s.cache.Delete(productID)
}

// Build derives knowledge from the product record alone.
func Build(p *entity.Product) ProductKnowledge {
	text := strings.ToLower(p.Description + " " + p.Material)
	group := CategoryGroup(p.Category, p.Name)
	fit := fitNotes[group]

	k := ProductKnowledge{
		ProductID:           p.Id.String(),
		ProductName:         p.Name,
		FitType:             fit.fit,
		SizingAdvice:        fit.advice,
		CriticalMeasurement: fit.critical,
		Properties:          AnalyzeMaterial(text),
		CareInstructions:    careInstructions(text),
		Shrinkage:           shrinkage(text),
		Season:              season(strings.ToLower(p.Name) + " " + text),
	}
	k.Material, k.MaterialType = primaryMaterial(text)
	if p.Material != "" {
		k.Material = p.Material
	}
	k.HasStretch = stretchPattern.MatchString(text)
	if m := stretchPercent.FindStringSubmatch(text); m != nil {
		k.StretchPercentage, _ = strconv.Atoi(m[1])
	} else if k.HasStretch {
		k.StretchPercentage = 5
	}

	switch group {
	case GroupPants:
		chart := pantsChart
		k.SizeChart = &chart
	case GroupAccessories:
	default:
		chart := shirtChart
		k.SizeChart = &chart
	}
	return k
}

type Group string

const (
	GroupOuterwear   Group = "Outerwear"
	GroupKnitwear    Group = "Knitwear"
	GroupShirts      Group = "Shirts"
	GroupPants       Group = "Pants"
	GroupAccessories Group = "Accessories"
	GroupOther       Group = ""
)

var groupKeywords = []struct {
	group    Group
	keywords []string
}{
	{GroupAccessories, []string{"accessor", "scarf", "khăn", "handbag", "tote", "backpack", "túi", "wallet", "belt", "necktie", "cà vạt", "fragrance", "perfume", "nước hoa", "cufflink"}},
	{GroupOuterwear, []string{"outerwear", "jacket", "coat", "bomber", "blazer", "áo khoác", "parka"}},
	{GroupKnitwear, []string{"knit", "sweater", "cardigan", "áo len", "pullover"}},
	{GroupPants, []string{"pants", "trousers", "jeans", "shorts", "chinos", "quần"}},
	{GroupShirts, []string{"shirt", "polo", "tee", "t-shirt", "sơ mi", "áo thun"}},
}

// CategoryGroup maps a catalog category (or, failing that, the product
// name) onto a fit group.
func CategoryGroup(category, name string) Group {
	for _, text := range []string{category, name} {
		t := strings.ToLower(text)
		if t == "" {
			continue
		}
		for _, g := range groupKeywords {
			for _, k := range g.keywords {
				if strings.Contains(t, k) {
					return g.group
				}
			}
		}
	}
	return GroupOther
}

type fitNote struct {
	fit      string
	advice   string
	critical string
}

var defaultFit = fitNote{"Regular fit", "Standard sizing - refer to measurements chart", "chest_and_shoulders"}

var fitNotes = map[Group]fitNote{
	GroupOuterwear:   {"Regular fit with layering room", "Size to accommodate thick sweaters underneath. Outerwear should feel comfortable when raising arms.", "shoulder_width"},
	GroupKnitwear:    {"Slim to regular depending on weave", "Knitwear has natural give. Size down if between sizes for better drape unless explicitly oversized style.", "chest"},
	GroupShirts:      {"Tailored fit", "Collar must be exact - should fit one finger between neck and fabric. Shoulders are non-negotiable.", "neck_and_shoulder"},
	GroupPants:       {"Tailored to slim", "Waist is critical. Inseam can be hemmed. Consider rise (low/mid/high) for comfort.", "waist"},
	GroupAccessories: {"One size or measured", "Most accessories are one-size-fits-all or require specific measurements.", "varies"},
	GroupOther:       defaultFit,
}

type levelKeywords struct {
	high, medium, low []string
}

var (
	stretchKeywords = levelKeywords{
		high:   []string{"spandex", "elastane", "lycra", "jersey", "stretch"},
		medium: []string{"cotton blend", "poly blend", "knit"},
		low:    []string{"100% cotton", "linen", "wool", "denim"},
	}
	breathabilityKeywords = levelKeywords{
		high:   []string{"cotton", "linen", "bamboo", "mesh"},
		medium: []string{"wool", "silk", "modal"},
		low:    []string{"polyester", "nylon", "acrylic"},
	}
	warmthKeywords = levelKeywords{
		high:   []string{"wool", "cashmere", "fleece", "down"},
		medium: []string{"cotton", "poly blend", "denim"},
		low:    []string{"linen", "silk", "mesh"},
	}
)

func (l levelKeywords) classify(text string) Level {
	for _, set := range []struct {
		level    Level
		keywords []string
	}{{LevelHigh, l.high}, {LevelMedium, l.medium}, {LevelLow, l.low}} {
		for _, k := range set.keywords {
			if strings.Contains(text, k) {
				return set.level
			}
		}
	}
	return ""
}

// AnalyzeMaterial rates a lowercased description against the keyword
// lists. An empty level means the text gives no hint.
func AnalyzeMaterial(text string) MaterialProperties {
	return MaterialProperties{
		Stretch:       stretchKeywords.classify(text),
		Breathability: breathabilityKeywords.classify(text),
		Warmth:        warmthKeywords.classify(text),
	}
}

var materials = []struct {
	key, name, kind string
}{
	{"cashmere", "Cashmere", "natural"},
	{"merino", "Merino wool", "natural"},
	{"wool", "Wool blend", "natural"},
	{"alpaca", "Alpaca wool", "natural"},
	{"cotton", "Cotton", "natural"},
	{"linen", "Linen", "natural"},
	{"silk", "Silk", "natural"},
	{"polyester", "Polyester", "synthetic"},
	{"nylon", "Nylon", "synthetic"},
	{"acrylic", "Acrylic", "synthetic"},
	{"elastane", "Elastane", "synthetic"},
	{"spandex", "Spandex", "synthetic"},
}

func primaryMaterial(text string) (string, string) {
	for _, m := range materials {
		if strings.Contains(text, m.key) {
			return m.name, m.kind
		}
	}
	return "Premium fabric blend", "blend"
}

var (
	stretchPattern = regexp.MustCompile(`stretch|elastane|spandex|elastic`)
	stretchPercent = regexp.MustCompile(`(\d+)%?\s*(?:elastane|spandex|elastic)`)
)

func careInstructions(text string) string {
	switch {
	case strings.Contains(text, "dry clean only") || strings.Contains(text, "professional clean"):
		return "Dry clean only"
	case strings.Contains(text, "hand wash") || strings.Contains(text, "gentle wash"):
		return "Hand wash in cold water recommended"
	case strings.Contains(text, "machine wash") || strings.Contains(text, "washable"):
		return "Machine washable (gentle cycle, cold water)"
	}
	return "Professional care recommended"
}

func shrinkage(text string) string {
	switch {
	case strings.Contains(text, "pre-shrunk") || strings.Contains(text, "sanforized"):
		return "Pre-treated fabric - negligible shrinkage"
	case strings.Contains(text, "wool") || strings.Contains(text, "cotton"):
		return "May shrink 2-3% if not cared for properly (avoid hot water/dryer)"
	}
	return "Minimal shrinkage (<2%) with proper care"
}

var (
	transitionalPattern = regexp.MustCompile(`transitional|mid-weight|versatile`)
	winterPattern       = regexp.MustCompile(`winter|wool|cashmere|heavy|insulated`)
	summerPattern       = regexp.MustCompile(`summer|lightweight|linen`)
)

func season(text string) string {
	switch {
	case transitionalPattern.MatchString(text):
		return "Transitional (Spring/Fall)"
	case winterPattern.MatchString(text):
		return "Fall/Winter"
	case summerPattern.MatchString(text):
		return "Spring/Summer"
	}
	return "All-season"
}
