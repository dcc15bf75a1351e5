// Package intent decides which handler a message goes to: a keyword pass
// first, then a model classification for anything the keywords are not sure
// about.
package intent

import (
	"context"
	"strings"

	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/pkg/llm"
	"commerce-assistant/pkg/resilience"
	"commerce-assistant/pkg/store"
)

// HistoryTurns is how many prior turns the model sees.
const HistoryTurns = 4

// shortcut thresholds: a keyword result at or above these skips the model
var shortcuts = map[Type]float64{
	AdminAnalytics: 0.9,
	PolicyFAQ:      0.7,
	AddToCart:      0.8,
	ProductAdvice:  0.85,
}

// lowConfidence is the model confidence under which a stronger keyword
// result is preferred.
const lowConfidence = 0.6

var responseSchema = llm.MustSchema(`{
	"type": "object",
	"required": ["intent"],
	"properties": {
		"intent": {"type": "string", "minLength": 1},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"extracted_info": {"type": ["object", "null"]}
	}
}`)

type llmResponse struct {
	Intent        string                 `json:"intent"`
	Confidence    *float64               `json:"confidence"`
	ExtractedInfo map[string]interface{} `json:"extracted_info"`
}

// Classifier is the hybrid keyword and model classifier.
type Classifier struct {
	llm    llm.LLMProvider
	policy resilience.Policy
	log    logger.ILogger
}

func NewClassifier(provider llm.LLMProvider, policy resilience.Policy, log logger.ILogger) *Classifier {
	if policy.Name == "" {
		policy.Name = "intent-llm"
	}
	return &Classifier{llm: provider, policy: policy, log: log}
}

// Classify returns exactly one intent. Model failures fall back to the
// keyword result; only a cancelled context is returned as an error.
func (c *Classifier) Classify(ctx context.Context, message string, history []store.Turn) (Intent, error) {
	quick := Keywords(message)

	if threshold, ok := shortcuts[quick.Type]; ok && quick.Confidence >= threshold {
		c.log.Debug("IntentClassifier", "keyword shortcut", map[string]interface{}{
			"intent":     quick.Type,
			"confidence": quick.Confidence,
		})
		return quick, nil
	}
	if c.llm == nil {
		return quick, nil
	}

	res, err := resilience.Do(ctx, c.policy, nil, func(ctx context.Context) (llmResponse, error) {
		var out llmResponse
		err := llm.ChatJSON(ctx, c.llm, buildMessages(message, history), responseSchema, &out, llm.WithTemperature(0.1))
		return out, err
	})
	if err != nil {
		if ctx.Err() != nil {
			return Intent{}, ctx.Err()
		}
		c.log.Warn("IntentClassifier", "model classification failed, using keywords", map[string]interface{}{
			"error": err.Error(),
		})
		quick.Source = SourceFallback
		return quick, nil
	}

	t, perr := Parse(res.Intent)
	if perr != nil {
		c.log.Warn("IntentClassifier", "unknown model intent", map[string]interface{}{"label": res.Intent})
	}
	confidence := 0.5
	if res.Confidence != nil {
		confidence = *res.Confidence
	}
	if perr != nil {
		confidence = 0
	}

	result := newIntent(t, confidence, SourceLLM)
	result.Slots = res.ExtractedInfo

	if result.Confidence < lowConfidence && quick.Confidence > result.Confidence {
		quick.Slots = result.Slots
		return quick, nil
	}
	return result, nil
}

func buildMessages(message string, history []store.Turn) []llm.Message {
	msgs := []llm.Message{{Role: "system", Content: classificationPrompt}}
	if len(history) > HistoryTurns {
		history = history[len(history)-HistoryTurns:]
	}
	for _, t := range history {
		role := "assistant"
		if t.Role == store.RoleUser {
			role = "user"
		}
		msgs = append(msgs, llm.Message{Role: role, Content: t.Text})
	}
	return append(msgs, llm.Message{Role: "user", Content: message})
}

var classificationPrompt = func() string {
	var b strings.Builder
	b.WriteString("<system>\n")
	b.WriteString("Phân loại ý định của khách hàng khi hỏi về cửa hàng thời trang.\n")
	b.WriteString("Sử dụng lịch sử hội thoại để hiểu câu hỏi follow-up.\n")
	b.WriteString("</system>\n\n")

	b.WriteString("<followup_rules>\n")
	b.WriteString("- \"còn hàng không\" về sản phẩm đang thảo luận → product_advice\n")
	b.WriteString("- \"size gì\" về sản phẩm trước → size_recommendation\n")
	b.WriteString("- \"giá bao nhiêu\", \"có màu khác không\" → product_advice\n")
	b.WriteString("</followup_rules>\n\n")

	b.WriteString("<intent_definitions>\n")
	b.WriteString("product_advice: tư vấn, tìm kiếm sản phẩm, hỏi hàng, giá, màu sắc\n")
	b.WriteString("size_recommendation: hỏi size, số đo, form dáng, chiều cao, cân nặng\n")
	b.WriteString("style_matching: phối đồ, mix & match, outfit\n")
	b.WriteString("order_lookup: tra cứu đơn hàng, tình trạng vận chuyển\n")
	b.WriteString("policy_faq: thanh toán, giao hàng, đổi trả, hoàn tiền, địa chỉ cửa hàng\n")
	b.WriteString("add_to_cart: muốn thêm sản phẩm vào giỏ hoặc mua ngay\n")
	b.WriteString("admin_analytics: doanh thu, tồn kho, thông tin khách hàng, xuất báo cáo\n")
	b.WriteString("general: chỉ dùng cho chào hỏi, cảm ơn\n")
	b.WriteString("</intent_definitions>\n\n")

	b.WriteString("<extraction>\n")
	b.WriteString("Trích xuất nếu có: product_type, product_name, material, color, size, height, weight, style, budget, occasion, order_number, phone, email, is_followup\n")
	b.WriteString("</extraction>\n\n")

	b.WriteString("<output_format>\n")
	b.WriteString("Chỉ trả về JSON:\n")
	b.WriteString("{\"intent\": \"tên_intent\", \"confidence\": 0.0-1.0, \"extracted_info\": {\"is_followup\": false}}\n")
	b.WriteString("</output_format>")
	return b.String()
}()
