package handler

import (
	"context"
	"fmt"
	"strings"
)

type PolicyType string

const (
	PolicyPayment  PolicyType = "payment"
	PolicyShipping PolicyType = "shipping"
	PolicyReturn   PolicyType = "return"
	PolicyGeneral  PolicyType = "general"
)

var policyKeywords = []struct {
	policy   PolicyType
	keywords []string
}{
	{PolicyPayment, []string{"payment", "thanh toán", "pay", "crypto", "bitcoin", "chuyển khoản", "trả góp"}},
	{PolicyShipping, []string{"shipping", "giao hàng", "ship", "delivery", "vận chuyển"}},
	{PolicyReturn, []string{"return", "đổi trả", "hoàn", "refund", "bảo hành", "đổi size", "trả hàng"}},
}

// PolicyConfig is the store policy content.
type PolicyConfig struct {
	Hotline string
}

// Policy answers payment, shipping and return questions from templates.
type Policy struct {
	cfg PolicyConfig
}

func NewPolicy(cfg PolicyConfig) *Policy {
	return &Policy{cfg: cfg}
}

// ClassifyPolicy picks the policy category of a message.
func ClassifyPolicy(message string) PolicyType {
	lower := strings.ToLower(message)
	for _, p := range policyKeywords {
		for _, k := range p.keywords {
			if strings.Contains(lower, k) {
				return p.policy
			}
		}
	}
	return PolicyGeneral
}

func (h *Policy) Handle(_ context.Context, req *Request) (*Result, error) {
	kind := ClassifyPolicy(req.Message)
	return &Result{
		Answer: h.text(kind),
		Data:   map[string]interface{}{"policy_type": string(kind)},
	}, nil
}

func (h *Policy) text(kind PolicyType) string {
	var b strings.Builder
	switch kind {
	case PolicyPayment:
		b.WriteString("**Phương thức thanh toán:**\n\n")
		b.WriteString("1. **Chuyển khoản ngân hàng** (ngân hàng nội địa), miễn phí\n")
		b.WriteString("2. **Cryptocurrency** (Bitcoin, USDT, ETH...), miễn phí\n\n")
		b.WriteString("Cả hai phương thức đều được xử lý tự động. Bạn có thể chọn khi thanh toán nhé!")
	case PolicyShipping:
		b.WriteString("**Các tùy chọn giao hàng:**\n\n")
		b.WriteString("1. **Standard delivery** - Miễn phí, 2-3 ngày làm việc\n")
		b.WriteString("2. **Next day delivery** - $5, giao trong ngày hôm sau\n")
		b.WriteString("3. **Nominated day delivery** - $10, chọn ngày giao theo ý bạn\n\n")
		b.WriteString("Bạn có thể chọn hình thức phù hợp khi đặt hàng nhé!")
	case PolicyReturn:
		b.WriteString("**Chính sách đổi trả:**\n\n")
		b.WriteString("• Thời hạn: 30 ngày\n\n")
		b.WriteString("**Điều kiện:**\n")
		b.WriteString("- Sản phẩm chưa qua sử dụng, còn nguyên tag\n")
		b.WriteString("- Có hóa đơn mua hàng\n")
		b.WriteString("- Đổi size miễn phí trong 7 ngày đầu\n")
		if h.cfg.Hotline != "" {
			fmt.Fprintf(&b, "\nLiên hệ hotline **%s** để được hỗ trợ!", h.cfg.Hotline)
		}
	default:
		b.WriteString("Mình có thể hỗ trợ bạn về:\n\n")
		b.WriteString("**Thanh toán:** chuyển khoản ngân hàng hoặc cryptocurrency\n\n")
		b.WriteString("**Giao hàng:** Standard miễn phí (2-3 ngày), Next day $5, Nominated $10\n\n")
		b.WriteString("**Đổi trả:** 30 ngày, đổi size miễn phí trong 7 ngày\n\n")
		b.WriteString("Bạn muốn biết thêm chi tiết về vấn đề nào?")
	}
	return strings.TrimRight(b.String(), "\n")
}
