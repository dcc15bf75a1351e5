package handler

import (
	"context"
	"fmt"
	"strings"

	"commerce-assistant/pkg/rag/response"
)

// Occasion is a dressing occasion with a ready-made style template.
type Occasion string

const (
	OccasionWork   Occasion = "work"
	OccasionCasual Occasion = "casual"
	OccasionParty  Occasion = "party"
	OccasionDate   Occasion = "date"
)

type StyleTemplate struct {
	Style      string
	Tips       []string
	Categories []string
}

var styleTemplates = map[Occasion]StyleTemplate{
	OccasionWork: {
		Style:      "Smart Casual / Business Casual",
		Tips:       []string{"Chọn màu trung tính", "Tránh quá casual", "Ưu tiên form vừa vặn"},
		Categories: []string{"Áo sơ mi", "Quần tây", "Blazer"},
	},
	OccasionCasual: {
		Style:      "Casual / Street Style",
		Tips:       []string{"Thoải mái là chính", "Mix & match tự do", "Thể hiện cá tính"},
		Categories: []string{"Áo thun", "Quần jean", "Áo hoodie"},
	},
	OccasionParty: {
		Style:      "Semi-Formal / Cocktail",
		Tips:       []string{"Chọn chất liệu sang trọng", "Màu đậm hoặc metallic", "Phụ kiện điểm nhấn"},
		Categories: []string{"Áo blazer", "Sơ mi lụa", "Giày da"},
	},
	OccasionDate: {
		Style:      "Smart Casual",
		Tips:       []string{"Gọn gàng, lịch sự", "Tôn dáng", "Màu sắc hài hòa"},
		Categories: []string{"Áo sơ mi", "Quần chinos", "Áo len mỏng"},
	},
}

var occasionKeywords = []struct {
	occasion Occasion
	keywords []string
}{
	{OccasionWork, []string{"đi làm", "công sở", "văn phòng", "work", "office", "meeting", "họp"}},
	{OccasionParty, []string{"tiệc", "party", "cocktail", "sự kiện", "event", "cưới", "wedding"}},
	{OccasionDate, []string{"hẹn hò", "date", "gặp người yêu"}},
	{OccasionCasual, []string{"đi chơi", "dạo phố", "casual", "cuối tuần", "weekend", "du lịch"}},
}

// StyleFor returns the template of an occasion.
func StyleFor(o Occasion) (StyleTemplate, bool) {
	t, ok := styleTemplates[o]
	return t, ok
}

// DetectOccasion finds the occasion named in a message.
func DetectOccasion(message string) (Occasion, bool) {
	lower := strings.ToLower(message)
	for _, o := range occasionKeywords {
		for _, k := range o.keywords {
			if strings.Contains(lower, k) {
				return o.occasion, true
			}
		}
	}
	return "", false
}

func (t StyleTemplate) render(o Occasion) string {
	return fmt.Sprintf("Dịp: %s\nPhong cách: %s\nGợi ý: %s\nMón nên có: %s",
		o, t.Style, strings.Join(t.Tips, "; "), strings.Join(t.Categories, ", "))
}

const styleTask = `Bạn là stylist chuyên nghiệp. Đề xuất 2-3 outfit phối đồ CHỈ từ các sản phẩm trong <context>.
Với mỗi outfit:
1. Mô tả ngắn gọn về style
2. Liệt kê các sản phẩm trong outfit (tên **bold**)
3. Dịp phù hợp
4. Tips phối đồ thêm`

// Stylist proposes outfits built from retrieved products.
type Stylist struct {
	advisor *Advisor
}

func NewStylist(advisor *Advisor) *Stylist {
	return &Stylist{advisor: advisor}
}

func (h *Stylist) Handle(ctx context.Context, req *Request) (*Result, error) {
	occasion, hasOccasion := DetectOccasion(req.Message)

	r, err := h.advisor.retrieve(ctx, req, h.advisor.enrich(req)+" phối đồ outfit")
	if err != nil {
		return nil, err
	}

	if len(r.items) == 0 {
		if hasOccasion {
			t := styleTemplates[occasion]
			answer := fmt.Sprintf("Với dịp này, phong cách **%s** sẽ phù hợp:\n\n• %s\n\nBạn có thể tìm thêm: %s. Bạn muốn mình gợi ý sản phẩm cụ thể không?",
				t.Style, strings.Join(t.Tips, "\n• "), strings.Join(t.Categories, ", "))
			return &Result{Answer: answer, Data: map[string]interface{}{"occasion": occasion}}, nil
		}
		return clarify(response.AskOccasion), nil
	}

	task := styleTask
	if hasOccasion {
		task += "\n\n" + styleTemplates[occasion].render(occasion)
	}
	res, err := h.advisor.answer(ctx, req, r, task)
	if err != nil {
		return nil, err
	}
	if hasOccasion {
		if res.Data == nil {
			res.Data = map[string]interface{}{}
		}
		res.Data["occasion"] = occasion
	}
	return res, nil
}
