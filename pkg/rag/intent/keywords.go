package intent

import (
	"regexp"
	"strings"
)

type keywordRule struct {
	intent     Type
	confidence float64
	keywords   []string
}

var adminKeywords = []string{
	"doanh thu", "revenue", "bán được", "lãi", "doanh số",
	"tồn kho", "stock", "còn bao nhiêu cái", "trong kho", "hết", "sắp hết", "hết hàng", "còn ít", "cảnh báo", "warning",
	"check kho", "kiểm kho", "số lượng",
	"thông tin khách", "tìm user", "lịch sử mua", "customer", "user", "khách hàng",
	"check đơn", "trạng thái đơn", "admin", "báo cáo",
	"xuất file", "export", "csv", "file tồn kho",
}

// lookupPrefixes followed by no product word read as a customer lookup
var lookupPrefixes = []string{"thông tin ", "info ", "tìm "}

var productIndicators = []string{
	"sản phẩm", "product", "áo", "quần", "váy", "đầm", "giày", "túi", "khăn", "nước hoa",
	"size", "màu", "giá", "chất liệu", "shop", "cửa hàng",
}

// rules after the admin checks, in priority order
var rules = []keywordRule{
	{ProductAdvice, 0.85, []string{
		"nước hoa", "fragrance", "perfume", "cologne", "eau de parfum",
		"scarf", "khăn", "jacket", "áo khoác", "sweater", "áo len",
	}},
	{SizeRecommendation, 0.7, []string{"size", "số đo", "chiều cao", "cân nặng", "form", "vừa", "rộng", "chật"}},
	{OrderLookup, 0.8, []string{"đơn hàng", "theo dõi", "tracking"}},
	{AddToCart, 0.9, []string{"thêm vào bag", "thêm vào giỏ", "add to bag", "add to cart", "mua ngay", "đặt hàng", "muốn mua"}},
	{StyleMatching, 0.7, []string{"phối", "mix", "match", "outfit", "kết hợp", "mặc với"}},
	{PolicyFAQ, 0.8, []string{
		"payment", "thanh toán", "pay", "shipping", "giao hàng", "ship", "delivery", "vận chuyển", "phí ship", "crypto", "payos", "nowpayments",
		"địa chỉ", "ở đâu", "cửa hàng", "store", "location", "address", "chỗ nào", "showroom", "chi nhánh", "đường đi",
	}},
	{PolicyFAQ, 0.7, []string{"đổi", "trả", "hoàn", "refund", "bảo hành"}},
	{ProductAdvice, 0.6, []string{
		"tìm", "muốn", "cần", "gợi ý", "tư vấn", "sản phẩm", "bán", "có bán", "còn",
		"áo", "quần", "váy", "đầm", "jacket", "coat", "scarf", "khăn", "túi", "bag", "giày", "boots",
		"nước hoa", "fragrance", "perfume", "eau de parfum", "cologne",
		"wallet", "ví", "tie", "cà vạt", "cufflink", "sweater", "áo len",
		"sản xuất", "xuất xứ", "made in", "origin", "chất liệu", "nguyên liệu", "material", "fabric",
		"mô tả", "chi tiết", "thông tin", "về sản phẩm", "detail",
		"còn hàng", "hết hàng", "in stock", "available",
		"giá", "bao nhiêu", "price", "cost",
	}},
}

var (
	// bare measurements such as "175cm", "70kg" or "1m75" mean a size question
	measurementPattern = regexp.MustCompile(`\d\s*(?:cm|kg)|\dm\d`)
	// two capitalized words in a row look like a catalog name
	productNamePattern = regexp.MustCompile(`\p{Lu}\p{Ll}+\s+\p{Lu}\p{Ll}+`)
	productNameWords   = []string{"scarf", "polo", "jacket", "coat"}
)

// Keywords classifies by keyword lists only. It never calls a model.
func Keywords(message string) Intent {
	lower := strings.ToLower(message)

	if containsAny(lower, adminKeywords) {
		return newIntent(AdminAnalytics, 0.95, SourceKeyword)
	}
	for _, p := range lookupPrefixes {
		if strings.HasPrefix(strings.TrimSpace(lower), p) && !containsAny(lower, productIndicators) {
			return newIntent(AdminAnalytics, 0.95, SourceKeyword)
		}
	}

	for i, r := range rules {
		if containsAny(lower, r.keywords) {
			return newIntent(r.intent, r.confidence, SourceKeyword)
		}
		// after the size list, bare measurements count as size keywords
		if i == 1 && measurementPattern.MatchString(lower) {
			return newIntent(SizeRecommendation, 0.7, SourceKeyword)
		}
	}

	if productNamePattern.MatchString(message) || containsAny(lower, productNameWords) {
		return newIntent(ProductAdvice, 0.6, SourceKeyword)
	}
	return newIntent(General, 0.5, SourceKeyword)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
