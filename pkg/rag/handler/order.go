package handler

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/internal/repository/contract"
	"commerce-assistant/internal/repository/specification"
	"commerce-assistant/pkg/llm"
	"commerce-assistant/pkg/rag/response"

	"github.com/google/uuid"
)

type OrderQueryType string

const (
	OrderListAll  OrderQueryType = "list_all"
	OrderSpecific OrderQueryType = "specific"
	OrderLatest   OrderQueryType = "latest"

	// OrderListLimit is how many orders a list answer shows.
	OrderListLimit = 5
)

var orderQuerySchema = llm.MustSchema(`{
	"type": "object",
	"required": ["query_type"],
	"properties": {
		"query_type": {"enum": ["list_all", "specific", "latest"]},
		"order_number": {"type": ["string", "null"]},
		"phone": {"type": ["string", "null"]},
		"email": {"type": ["string", "null"]}
	}
}`)

// OrderQuery is what the shopper asked to look up.
type OrderQuery struct {
	QueryType   OrderQueryType `json:"query_type"`
	OrderNumber string         `json:"order_number"`
	Phone       string         `json:"phone"`
	Email       string         `json:"email"`
}

func (q OrderQuery) hasIdentifier() bool {
	return q.OrderNumber != "" || q.Phone != "" || q.Email != ""
}

var (
	orderEmail  = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]+`)
	orderPhone  = regexp.MustCompile(`(?:\+84|0)\d{9,10}`)
	orderCode   = regexp.MustCompile(`(?i)(?:đơn(?:\s+hàng)?|order|mã(?:\s+đơn)?|#)\s*(?:số\s*)?#?\s*([a-z0-9]{6,32})`)
	listWords   = []string{"tất cả", "các đơn", "danh sách", "lịch sử", "all orders", "my orders", "đơn hàng của tôi", "đơn của tôi", "đơn hàng của mình"}
	latestWords = []string{"gần nhất", "mới nhất", "vừa đặt", "đơn cuối", "latest", "last order", "recent order"}
)

// ExtractOrderQuery reads identifiers and the query type with patterns.
func ExtractOrderQuery(message string) OrderQuery {
	q := OrderQuery{QueryType: OrderSpecific}
	lower := strings.ToLower(message)

	rest := message
	if m := orderEmail.FindString(rest); m != "" {
		q.Email = m
		rest = strings.Replace(rest, m, " ", 1)
	}
	if m := orderPhone.FindString(rest); m != "" {
		q.Phone = m
		rest = strings.Replace(rest, m, " ", 1)
	}
	if m := orderCode.FindStringSubmatch(rest); m != nil && hasDigit(m[1]) {
		q.OrderNumber = strings.ToUpper(m[1])
	}

	if !q.hasIdentifier() {
		switch {
		case containsAny(lower, latestWords):
			q.QueryType = OrderLatest
		case containsAny(lower, listWords):
			q.QueryType = OrderListAll
		}
	}
	return q
}

// OrderLookup answers order status questions.
type OrderLookup struct {
	orders    contract.OrderRepository
	generator JSONGenerator
	logger    logger.ILogger
}

func NewOrderLookup(orders contract.OrderRepository, generator JSONGenerator, log logger.ILogger) *OrderLookup {
	return &OrderLookup{orders: orders, generator: generator, logger: log}
}

func (h *OrderLookup) Handle(ctx context.Context, req *Request) (*Result, error) {
	q := h.extract(ctx, req.Message)

	var userID *uuid.UUID
	if req.Authenticated() {
		if id, err := uuid.Parse(req.UserID); err == nil {
			userID = &id
		}
	}

	if !q.hasIdentifier() && userID == nil {
		return clarify(response.AskOrderIdentity), nil
	}

	if q.hasIdentifier() {
		order, err := h.findSpecific(ctx, q)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return &Result{Answer: orderNotFound, Type: TypeNoData}, nil
		}
		return orderResult(order), nil
	}

	if q.QueryType == OrderLatest {
		order, err := h.orders.FindOne(ctx, specification.OrderOwnedBy{UserID: *userID}, specification.OrderBy{Field: "created_at", Desc: true})
		if err != nil {
			return nil, err
		}
		if order == nil {
			return &Result{Answer: noOrders, Type: TypeNoData}, nil
		}
		return orderResult(order), nil
	}

	orders, err := h.orders.FindAll(ctx,
		specification.OrderOwnedBy{UserID: *userID},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: OrderListLimit},
	)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return &Result{Answer: noOrders, Type: TypeNoData}, nil
	}
	return &Result{Answer: formatOrderList(orders), Data: map[string]interface{}{"order_count": len(orders)}}, nil
}

// extract uses patterns first and asks the model only when they find no
// identifier. Model output never replaces a pattern match.
func (h *OrderLookup) extract(ctx context.Context, message string) OrderQuery {
	q := ExtractOrderQuery(message)
	if q.hasIdentifier() || h.generator == nil {
		return q
	}

	var out OrderQuery
	if err := h.generator.GenerateJSON(ctx, orderQueryPrompt(message), orderQuerySchema, &out); err != nil {
		h.logger.Warn("OrderLookup", "model extraction failed, using patterns", map[string]interface{}{"error": err.Error()})
		return q
	}
	// identifiers must appear in the message itself
	if out.OrderNumber != "" && strings.Contains(strings.ToUpper(message), strings.ToUpper(strings.TrimPrefix(out.OrderNumber, "#"))) {
		q.OrderNumber = strings.ToUpper(strings.TrimPrefix(out.OrderNumber, "#"))
	}
	if out.Phone != "" && strings.Contains(message, out.Phone) {
		q.Phone = out.Phone
	}
	if out.Email != "" && strings.Contains(strings.ToLower(message), strings.ToLower(out.Email)) {
		q.Email = out.Email
	}
	if !q.hasIdentifier() && out.QueryType != "" {
		q.QueryType = out.QueryType
	}
	return q
}

func (h *OrderLookup) findSpecific(ctx context.Context, q OrderQuery) (*entity.Order, error) {
	newest := specification.OrderBy{Field: "created_at", Desc: true}

	if code := cleanCode(q.OrderNumber); code != "" {
		if n, err := strconv.ParseInt(code, 10, 64); err == nil {
			order, err := h.orders.FindOne(ctx, specification.ByOrderCode{Code: n})
			if err != nil || order != nil {
				return order, err
			}
		}
		if len(code) > 8 {
			code = code[len(code)-8:]
		}
		order, err := h.orders.FindOne(ctx, specification.ByShortCode{Code: code})
		if err != nil || order != nil {
			return order, err
		}
	}
	if q.Phone != "" {
		order, err := h.orders.FindOne(ctx, specification.ByCustomerPhone{Phone: q.Phone}, newest)
		if err != nil || order != nil {
			return order, err
		}
	}
	if q.Email != "" {
		return h.orders.FindOne(ctx, specification.ByCustomerEmail{Email: q.Email}, newest)
	}
	return nil, nil
}

func orderQueryPrompt(message string) string {
	var b strings.Builder
	b.WriteString("<task>\nPhân tích yêu cầu tra cứu đơn hàng.\n</task>\n\n")
	b.WriteString("<rules>\n")
	b.WriteString("- \"list_all\": muốn xem tất cả hoặc danh sách đơn hàng\n")
	b.WriteString("- \"specific\": có mã đơn hàng, số điện thoại hoặc email\n")
	b.WriteString("- \"latest\": muốn xem đơn hàng gần nhất\n")
	b.WriteString("- Chỉ trích xuất thông tin có trong câu hỏi, không tự đặt ra\n")
	b.WriteString("</rules>\n\n")
	fmt.Fprintf(&b, "<question>\n%s\n</question>\n\n", message)
	b.WriteString(`Trả về JSON: {"query_type": "list_all" | "specific" | "latest", "order_number": null, "phone": null, "email": null}`)
	return b.String()
}

const (
	orderNotFound = "Không tìm thấy đơn hàng với thông tin đã cung cấp. Bạn vui lòng kiểm tra lại mã đơn hàng, số điện thoại hoặc email đặt hàng nhé."
	noOrders      = "Bạn chưa có đơn hàng nào. Hãy khám phá các sản phẩm của cửa hàng nhé!"
)

func orderResult(o *entity.Order) *Result {
	return &Result{
		Answer: formatOrder(o),
		Data: map[string]interface{}{
			"order_id":        o.Id.String(),
			"status":          string(o.Status),
			"tracking_number": o.TrackingNumber,
		},
	}
}

func formatOrder(o *entity.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thông tin đơn hàng #%s\n\n", o.ShortCode())
	fmt.Fprintf(&b, "**Trạng thái:** %s\n", o.Status.Label())
	if o.TrackingNumber != "" {
		fmt.Fprintf(&b, "**Mã vận đơn:** %s\n", o.TrackingNumber)
	}
	fmt.Fprintf(&b, "**Ngày đặt:** %s\n", o.CreatedAt.Format("02/01/2006"))
	fmt.Fprintf(&b, "**Tổng tiền:** $%.2f\n", o.TotalAmount)

	if len(o.Items) > 0 {
		b.WriteString("\n**Sản phẩm:**\n")
		for i, it := range o.Items {
			line := fmt.Sprintf("%d. %s", i+1, it.ProductName)
			if it.Color != "" {
				line += " - " + it.Color
			}
			if it.Size != "" {
				line += " - Size " + it.Size
			}
			fmt.Fprintf(&b, "%s x%d\n", line, it.Quantity)
		}
	}

	switch o.Status {
	case entity.OrderStatusShipped:
		b.WriteString("\nĐơn hàng đang trên đường giao đến bạn!")
	case entity.OrderStatusDelivered:
		b.WriteString("\nCảm ơn bạn đã mua hàng!")
	case entity.OrderStatusPaid:
		b.WriteString("\nĐơn hàng đang được xử lý, sẽ giao trong 1-2 ngày.")
	case entity.OrderStatusPending:
		b.WriteString("\nĐơn hàng đang chờ thanh toán.")
	case entity.OrderStatusCancelled:
		b.WriteString("\nĐơn hàng đã bị hủy.")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatOrderList(orders []*entity.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Đây là %d đơn hàng gần nhất của bạn:\n\n", len(orders))
	for i, o := range orders {
		fmt.Fprintf(&b, "**%d. Đơn hàng #%s**\n", i+1, o.ShortCode())
		fmt.Fprintf(&b, "- Trạng thái: %s\n", o.Status.Label())
		fmt.Fprintf(&b, "- Ngày đặt: %s\n", o.CreatedAt.Format("02/01/2006"))
		fmt.Fprintf(&b, "- Tổng tiền: $%.2f\n", o.TotalAmount)
		fmt.Fprintf(&b, "- Số sản phẩm: %d\n\n", len(o.Items))
	}
	b.WriteString("Bạn muốn xem chi tiết đơn hàng nào? Hãy cho mình biết mã đơn nhé!")
	return b.String()
}

func cleanCode(code string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(code) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func hasDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
