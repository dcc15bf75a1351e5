package response

import (
	"fmt"
	"strings"
)

// Fixed answers that never go through the model.
const (
	GeneralHelp = `Xin chào! Mình là trợ lý mua sắm của cửa hàng. Mình có thể giúp bạn:

• **Tư vấn sản phẩm**: tìm áo, quần, phụ kiện theo nhu cầu
• **Tư vấn size**: gợi ý size theo chiều cao, cân nặng
• **Tra cứu đơn hàng**: kiểm tra trạng thái đơn của bạn
• **Phối đồ**: gợi ý outfit theo dịp
• **Chính sách**: thanh toán, giao hàng, đổi trả

Bạn cần mình hỗ trợ gì nhé?`

	AdminHelp = `Xin chào Admin! Bạn có thể hỏi:

• **Doanh thu**: "Doanh thu tháng này", "Doanh thu tuần trước"
• **Khách hàng**: "Thông tin khách Nguyễn Văn A", "Thống kê khách hàng"
• **Đơn hàng**: "Trạng thái đơn 1A2B3C4D"
• **Tồn kho**: "Sản phẩm sắp hết hàng"
• **Xuất báo cáo**: "Xuất báo cáo doanh thu tháng này", "Xuất file tồn kho"`

	ErrorGeneric     = "Xin lỗi, mình gặp sự cố khi xử lý yêu cầu của bạn. Vui lòng thử lại sau ít phút."
	Unauthorized     = "Bạn không có quyền truy cập chức năng này."
	ProductNotFound  = "Mình chưa tìm thấy sản phẩm phù hợp. Bạn có thể mô tả rõ hơn về sản phẩm bạn đang tìm không?"
	AskProduct       = "Bạn muốn mình tư vấn size cho sản phẩm nào? Bạn có thể cho mình biết tên sản phẩm nhé."
	AskCartProduct   = "Bạn muốn thêm sản phẩm nào vào giỏ hàng? Bạn cho mình biết tên sản phẩm nhé."
	AskOrderIdentity = "Để tra cứu đơn hàng, bạn vui lòng cung cấp mã đơn hàng, số điện thoại hoặc email đặt hàng nhé."
	AskOccasion      = "Bạn định mặc cho dịp nào (đi làm, đi chơi, dự tiệc, hẹn hò) và thích phong cách ra sao? Mình sẽ gợi ý outfit phù hợp."
)

var fieldLabels = map[string]string{
	"height": "chiều cao (cm)",
	"weight": "cân nặng (kg)",
}

// AskMeasurements asks for exactly the missing fields.
func AskMeasurements(productName string, missing []string) string {
	labels := make([]string, 0, len(missing))
	for _, f := range missing {
		if l, ok := fieldLabels[f]; ok {
			labels = append(labels, l)
		} else {
			labels = append(labels, f)
		}
	}
	subject := "sản phẩm này"
	if productName != "" {
		subject = "**" + productName + "**"
	}
	return fmt.Sprintf("Để tư vấn size %s chính xác, bạn cho mình biết %s nhé. Nếu có số đo vòng ngực, vòng eo thì càng tốt!",
		subject, strings.Join(labels, " và "))
}

// OutOfStock tells the shopper the product cannot be bought right now.
func OutOfStock(productName string) string {
	return fmt.Sprintf("Rất tiếc, **%s** hiện đã hết hàng. Bạn có muốn mình gợi ý sản phẩm tương tự không?", productName)
}

// FreeSize answers a size question for a one-size product.
func FreeSize(productName string) string {
	return fmt.Sprintf("**%s** là sản phẩm free size, phù hợp với hầu hết vóc dáng. Bạn có muốn thêm vào giỏ hàng không?", productName)
}

// ConfirmCart proposes the add-to-cart action.
func ConfirmCart(productName, size, color string) string {
	var details []string
	if size != "" {
		details = append(details, "size "+size)
	}
	if color != "" {
		details = append(details, "màu "+color)
	}
	if len(details) == 0 {
		return fmt.Sprintf("Bạn muốn thêm **%s** vào giỏ hàng?", productName)
	}
	return fmt.Sprintf("Bạn muốn thêm **%s** (%s) vào giỏ hàng?", productName, strings.Join(details, ", "))
}
