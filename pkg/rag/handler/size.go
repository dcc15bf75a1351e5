package handler

import (
	"context"
	"fmt"
	"strings"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/internal/repository/contract"
	"commerce-assistant/pkg/llm"
	"commerce-assistant/pkg/rag/knowledge"
	"commerce-assistant/pkg/rag/response"
	"commerce-assistant/pkg/store"
)

// SizeState is where the size conversation stopped.
type SizeState string

const (
	SizeAwaitingProduct      SizeState = "awaiting_product"
	SizeAwaitingMeasurements SizeState = "awaiting_measurements"
	SizeRecommending         SizeState = "recommending"
	SizeAnswered             SizeState = "answered"
)

var sizeSchema = llm.MustSchema(`{
	"type": "object",
	"required": ["recommended_size"],
	"properties": {
		"recommended_size": {"type": "string", "minLength": 1},
		"reason": {"type": "string"},
		"alternative_size": {"type": ["string", "null"]},
		"fit_note": {"type": ["string", "null"]}
	}
}`)

type sizeAdvice struct {
	RecommendedSize string `json:"recommended_size"`
	Reason          string `json:"reason"`
	AlternativeSize string `json:"alternative_size"`
	FitNote         string `json:"fit_note"`
}

// SizeAdvisor recommends a size for the product under discussion.
type SizeAdvisor struct {
	products  contract.ProductRepository
	knowledge *knowledge.Service
	generator JSONGenerator
	logger    logger.ILogger
}

func NewSizeAdvisor(products contract.ProductRepository, kn *knowledge.Service, generator JSONGenerator, log logger.ILogger) *SizeAdvisor {
	return &SizeAdvisor{products: products, knowledge: kn, generator: generator, logger: log}
}

func (h *SizeAdvisor) Handle(ctx context.Context, req *Request) (*Result, error) {
	measurements := req.Entities.Measurements
	missing := measurements.Missing()

	product, err := loadProduct(ctx, h.products, req.Entities.Product)
	if err != nil {
		return nil, err
	}
	if product == nil {
		res := clarify(response.AskProduct)
		res.RequiresMeasurements = len(missing) > 0
		res.MissingFields = missing
		res.Data = map[string]interface{}{"state": SizeAwaitingProduct}
		return res, nil
	}
	ref := refOf(product, req.Entities.Product.Tier)

	sizes := product.AvailableSizes()
	if len(sizes) == 0 {
		return &Result{
			Answer:            response.OutOfStock(product.Name),
			SuggestedProducts: []store.ProductRef{*ref},
			Product:           ref,
			Data:              map[string]interface{}{"state": SizeAnswered},
		}, nil
	}

	if knowledge.IsFreeSize(sizes) {
		v := variantFor(product, sizes[0], "")
		return &Result{
			Answer:            response.FreeSize(product.Name),
			RecommendedSize:   sizes[0],
			SuggestedAction:   addToCart(product, v),
			SuggestedProducts: []store.ProductRef{*ref},
			Product:           ref,
			Data:              map[string]interface{}{"state": SizeAnswered},
		}, nil
	}

	if len(missing) > 0 {
		return &Result{
			Answer:               response.AskMeasurements(product.Name, missing),
			Type:                 TypeClarify,
			RequiresMeasurements: true,
			MissingFields:        missing,
			SuggestedProducts:    []store.ProductRef{*ref},
			Product:              ref,
			Data:                 map[string]interface{}{"state": SizeAwaitingMeasurements},
		}, nil
	}

	kn := h.knowledge.ForProduct(ctx, product)
	advice := h.advise(ctx, product, kn, measurements, sizes)

	chosen := knowledge.ClosestSize(advice.RecommendedSize, sizes)
	if !strings.EqualFold(chosen, advice.RecommendedSize) {
		h.logger.Info("SizeAdvisor", "recommended size not in stock, substituted", map[string]interface{}{
			"product":     product.Name,
			"recommended": advice.RecommendedSize,
			"chosen":      chosen,
		})
	}
	advice.RecommendedSize = chosen
	if advice.AlternativeSize != "" && !containsFold(sizes, advice.AlternativeSize) {
		advice.AlternativeSize = ""
	}

	variant := variantFor(product, chosen, "")
	res := &Result{
		Answer:            sizeAnswer(product, measurements, advice),
		RecommendedSize:   chosen,
		SuggestedProducts: []store.ProductRef{*ref},
		Product:           ref,
		Sources:           []string{product.Name},
		Data:              map[string]interface{}{"state": SizeAnswered, "size_recommendation": advice},
	}
	if variant != nil {
		res.SuggestedAction = addToCart(product, variant)
	}
	return res, nil
}

// advise asks the model and falls back to the size chart.
func (h *SizeAdvisor) advise(ctx context.Context, p *entity.Product, kn knowledge.ProductKnowledge, m store.Measurements, sizes []string) sizeAdvice {
	chartSize := kn.SizeChart.Recommend(m)
	if chartSize == "" && m.UsualSize != "" {
		chartSize = m.UsualSize
	}
	fallback := sizeAdvice{
		RecommendedSize: chartSize,
		Reason:          "Dựa trên bảng size của sản phẩm và số đo bạn cung cấp.",
		FitNote:         kn.SizingAdvice,
	}
	if chartSize == "" {
		fallback.RecommendedSize = sizes[len(sizes)/2]
	}
	if h.generator == nil {
		return fallback
	}

	var advice sizeAdvice
	if err := h.generator.GenerateJSON(ctx, sizePrompt(p, kn, m, sizes), sizeSchema, &advice); err != nil {
		h.logger.Warn("SizeAdvisor", "model advice failed, using size chart", map[string]interface{}{
			"product": p.Name,
			"error":   err.Error(),
		})
		return fallback
	}
	return advice
}

func sizePrompt(p *entity.Product, kn knowledge.ProductKnowledge, m store.Measurements, sizes []string) string {
	var b strings.Builder
	b.WriteString("<role>\nBạn là chuyên viên tư vấn size thời trang. Trả lời bằng tiếng Việt.\n</role>\n\n")

	b.WriteString("<product>\n")
	fmt.Fprintf(&b, "Tên: %s\nDanh mục: %s\nSizes có sẵn: %s\n", p.Name, p.Category, strings.Join(sizes, ", "))
	if kn.Material != "" {
		fmt.Fprintf(&b, "Chất liệu: %s\n", kn.Material)
	}
	fmt.Fprintf(&b, "Kiểu dáng: %s\n", kn.FitType)
	if kn.HasStretch {
		b.WriteString("Co giãn: có\n")
	} else {
		b.WriteString("Co giãn: không\n")
	}
	if kn.CriticalMeasurement != "" {
		fmt.Fprintf(&b, "Điểm đo quan trọng nhất: %s\n", kn.CriticalMeasurement)
	}
	if kn.SizingAdvice != "" {
		fmt.Fprintf(&b, "Lưu ý fit: %s\n", kn.SizingAdvice)
	}
	b.WriteString("</product>\n\n")

	if kn.SizeChart != nil {
		b.WriteString("<size_chart>\n")
		b.WriteString(kn.SizeChart.Render())
		b.WriteString("\n</size_chart>\n\n")
	}

	b.WriteString("<measurements>\n")
	fmt.Fprintf(&b, "Chiều cao: %.0fcm\nCân nặng: %.0fkg\n", m.Height, m.Weight)
	if m.Chest > 0 {
		fmt.Fprintf(&b, "Vòng ngực: %.0fcm\n", m.Chest)
	}
	if m.Waist > 0 {
		fmt.Fprintf(&b, "Vòng eo: %.0fcm\n", m.Waist)
	}
	if m.Shoulder > 0 {
		fmt.Fprintf(&b, "Rộng vai: %.0fcm\n", m.Shoulder)
	}
	if m.UsualSize != "" {
		fmt.Fprintf(&b, "Size thường mặc: %s\n", m.UsualSize)
	}
	b.WriteString("</measurements>\n\n")

	b.WriteString("<task>\n")
	fmt.Fprintf(&b, "1. Đề xuất size phù hợp nhất, CHỈ chọn trong: %s\n", strings.Join(sizes, ", "))
	b.WriteString("2. Nếu số đo nằm giữa 2 size, ưu tiên size lớn hơn\n")
	b.WriteString("3. Chỉ dùng số đo trong <measurements>, không tự đặt ra số đo\n")
	b.WriteString("4. Giải thích ngắn gọn lý do\n")
	b.WriteString("</task>\n\n")

	b.WriteString(`Trả về JSON: {"recommended_size": "...", "reason": "...", "alternative_size": "...", "fit_note": "..."}`)
	return b.String()
}

func sizeAnswer(p *entity.Product, m store.Measurements, a sizeAdvice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Với chiều cao %.0fcm và cân nặng %.0fkg, mình gợi ý bạn chọn **size %s** cho **%s**.\n\n", m.Height, m.Weight, a.RecommendedSize, p.Name)
	if a.Reason != "" {
		b.WriteString(a.Reason)
		b.WriteString("\n\n")
	}
	if a.FitNote != "" {
		fmt.Fprintf(&b, "• Lưu ý: %s\n", a.FitNote)
	}
	if a.AlternativeSize != "" && !strings.EqualFold(a.AlternativeSize, a.RecommendedSize) {
		fmt.Fprintf(&b, "• Size dự phòng: %s\n", a.AlternativeSize)
	}

	var colors []string
	for _, v := range p.InStockVariants() {
		if strings.EqualFold(v.Size, a.RecommendedSize) {
			colors = append(colors, fmt.Sprintf("- Màu %s: $%.0f (còn %d sản phẩm)", v.Color, v.Price, v.Quantity))
		}
	}
	if len(colors) > 0 {
		fmt.Fprintf(&b, "\nSize %s hiện có:\n%s\n", a.RecommendedSize, strings.Join(colors, "\n"))
	}
	b.WriteString("\nBạn có muốn thêm vào giỏ hàng không?")
	return b.String()
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
