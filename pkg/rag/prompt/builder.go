package prompt

import (
	"strings"
)

// ContextualBuilder builds the system prompt of the shopping assistant.
type ContextualBuilder struct {
	contextBlock string
	customer     string
	tone         string
	task         string
}

// NewContextualBuilder creates a builder over the retrieved context block.
func NewContextualBuilder(contextBlock string) *ContextualBuilder {
	return &ContextualBuilder{contextBlock: contextBlock}
}

// WithCustomer adds a rendered customer context and the tone to use with
// that customer.
func (b *ContextualBuilder) WithCustomer(block, tone string) *ContextualBuilder {
	b.customer = block
	b.tone = tone
	return b
}

// WithTask replaces the default advisory task with a specific one.
func (b *ContextualBuilder) WithTask(task string) *ContextualBuilder {
	b.task = task
	return b
}

func (b *ContextualBuilder) Build() string {
	var prompt strings.Builder

	b.writeRole(&prompt)
	b.writeRules(&prompt)
	b.writeFormat(&prompt)
	b.writeCustomer(&prompt)
	b.writeTask(&prompt)
	b.writeContext(&prompt)

	return prompt.String()
}

func (b *ContextualBuilder) writeRole(prompt *strings.Builder) {
	prompt.WriteString("<role>\n")
	prompt.WriteString("Bạn là chuyên gia tư vấn thời trang của cửa hàng. Xưng hô \"mình\" và gọi khách là \"bạn\".\n")
	prompt.WriteString("</role>\n\n")
}

func (b *ContextualBuilder) writeRules(prompt *strings.Builder) {
	prompt.WriteString("<rules>\n")
	prompt.WriteString("- CHỈ sử dụng thông tin trong <context>\n")
	prompt.WriteString("- KHÔNG bịa đặt thông tin sản phẩm, giá hay tồn kho\n")
	prompt.WriteString("- KHÔNG dùng emoji hay icon\n")
	prompt.WriteString("- Giá tiền hiển thị dạng $XXX (ví dụ: $299, $1,200)\n")
	prompt.WriteString("- Nếu không biết: \"Mình cần kiểm tra lại thông tin này nhé\"\n")
	prompt.WriteString("</rules>\n\n")
}

func (b *ContextualBuilder) writeFormat(prompt *strings.Builder) {
	prompt.WriteString("<format>\n")
	prompt.WriteString("- Ngắn gọn, rõ ràng, thân thiện\n")
	prompt.WriteString("- Dùng **bold** cho tên sản phẩm, đúng như tên trong <context>\n")
	prompt.WriteString("- Trình bày dạng danh sách (•) khi có nhiều thông tin\n")
	prompt.WriteString("- Kết thúc bằng một câu hỏi mở để hỗ trợ tiếp\n")
	prompt.WriteString("</format>\n\n")
}

func (b *ContextualBuilder) writeCustomer(prompt *strings.Builder) {
	if b.customer == "" {
		return
	}
	prompt.WriteString("<customer_context>\n")
	prompt.WriteString("THÔNG TIN KHÁCH HÀNG (chỉ dùng nội bộ, KHÔNG tiết lộ trực tiếp, KHÔNG suy diễn thêm)\n")
	prompt.WriteString(b.customer)
	if b.tone != "" {
		prompt.WriteString("\nGiọng điệu: ")
		prompt.WriteString(b.tone)
		prompt.WriteString("\n")
	}
	prompt.WriteString("</customer_context>\n\n")
}

func (b *ContextualBuilder) writeTask(prompt *strings.Builder) {
	if b.task == "" {
		return
	}
	prompt.WriteString("<task>\n")
	prompt.WriteString(b.task)
	prompt.WriteString("\n</task>\n\n")
}

func (b *ContextualBuilder) writeContext(prompt *strings.Builder) {
	prompt.WriteString("<context>\n")
	if strings.TrimSpace(b.contextBlock) == "" {
		prompt.WriteString("(không có dữ liệu)\n")
	} else {
		prompt.WriteString(b.contextBlock)
		prompt.WriteString("\n")
	}
	prompt.WriteString("</context>")
}
