package analytics

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/internal/repository/specification"
	"commerce-assistant/internal/repository/unitofwork"
	"commerce-assistant/pkg/rag/search"

	"github.com/google/uuid"
)

// TypeNoData marks an empty result set.
const TypeNoData = "NO_DATA"

const (
	recentOrderLimit    = 5
	customerMatchLimit  = 5
	customerOrderLimit  = 3
	inventoryScanLimit  = 20
	dateTimeLayout      = "02/01/2006 15:04"
	dayLayout           = "02/01/2006"
	customerListPrefix  = "customer_list"
	inventoryFilePrefix = "inventory_export"
	revenueFilePrefix   = "revenue_export"
)

// Report is the outcome of one admin request.
type Report struct {
	Type       string
	Answer     string
	Attachment *Attachment
	Data       map[string]interface{}
}

func noData(answer string) *Report {
	return &Report{Type: TypeNoData, Answer: answer}
}

// CustomerResolver finds customers by email, phone or name.
type CustomerResolver interface {
	Resolve(ctx context.Context, query string, kind search.Kind) ([]search.Candidate, error)
}

// Aggregator runs read-only queries against one unit of work.
type Aggregator struct {
	customers CustomerResolver
	exporter  *Exporter
	logger    logger.ILogger
}

func NewAggregator(customers CustomerResolver, exporter *Exporter, logger logger.ILogger) *Aggregator {
	return &Aggregator{customers: customers, exporter: exporter, logger: logger}
}

func (a *Aggregator) Revenue(ctx context.Context, uow unitofwork.UnitOfWork, r Range) (*Report, error) {
	summary, err := uow.OrderRepository().SumRevenue(ctx, r.From, r.To)
	if err != nil {
		return nil, err
	}
	if summary.OrderCount == 0 {
		return noData(fmt.Sprintf("Không có đơn hàng nào trong khoảng %s (%s).", r.Period.Label(), r.String())), nil
	}

	recent, err := uow.OrderRepository().FindAll(ctx,
		specification.CreatedBetween{From: r.From, To: r.To},
		specification.StatusNotIn{Statuses: []string{string(entity.OrderStatusCancelled)}},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: recentOrderLimit},
	)
	if err != nil {
		a.logger.Warn("AdminAggregator", "recent orders unavailable", map[string]interface{}{"error": err.Error()})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Doanh thu %s (%s): **$%.2f** từ %d đơn hàng.", r.Period.Label(), r.String(), summary.TotalRevenue, summary.OrderCount)
	fmt.Fprintf(&b, "\nGiá trị trung bình mỗi đơn: $%.2f.", summary.TotalRevenue/float64(summary.OrderCount))
	if len(recent) > 0 {
		b.WriteString("\n\nGiao dịch gần nhất:")
		for _, o := range recent {
			fmt.Fprintf(&b, "\n- #%s: $%.2f, %s, %s", o.ShortCode(), o.TotalAmount, o.Status.Label(), o.CreatedAt.Format(dateTimeLayout))
		}
	}

	return &Report{
		Type:   string(TypeRevenue),
		Answer: b.String(),
		Data: map[string]interface{}{
			"period":        string(r.Period),
			"from":          r.From,
			"to":            r.To,
			"total_revenue": summary.TotalRevenue,
			"order_count":   summary.OrderCount,
		},
	}, nil
}

func (a *Aggregator) CustomerLookup(ctx context.Context, uow unitofwork.UnitOfWork, target string) (*Report, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return &Report{Type: string(TypeCustomerLookup), Answer: "Bạn muốn tra cứu khách hàng nào? Vui lòng cung cấp email, số điện thoại hoặc tên."}, nil
	}

	candidates, err := a.customers.Resolve(ctx, target, search.KindCustomer)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return noData(fmt.Sprintf("Không tìm thấy khách hàng nào khớp với \"%s\".", target)), nil
	}

	if len(candidates) > 1 {
		if len(candidates) > customerMatchLimit {
			candidates = candidates[:customerMatchLimit]
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Tìm thấy %d khách hàng khớp với \"%s\":", len(candidates), target)
		for i, c := range candidates {
			u := c.Customer
			fmt.Fprintf(&b, "\n%d. **%s** - %s - %s", i+1, orNA(u.FullName), orNA(u.Email), orNA(u.Phone))
		}
		b.WriteString("\n\nBạn muốn xem chi tiết khách hàng nào?")
		return &Report{Type: string(TypeCustomerLookup), Answer: b.String(), Data: map[string]interface{}{"matches": len(candidates)}}, nil
	}

	u := candidates[0].Customer
	orders, err := uow.OrderRepository().FindAll(ctx,
		specification.OrderOwnedBy{UserID: u.Id},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}
	spending, err := uow.OrderRepository().SpendingByUsers(ctx, []uuid.UUID{u.Id})
	if err != nil {
		return nil, err
	}
	spent := spending[u.Id]

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n- Email: %s\n- Điện thoại: %s\n- Tham gia: %s\n- Phân loại: %s",
		orNA(u.FullName), orNA(u.Email), orNA(u.Phone), u.CreatedAt.Format(dayLayout), orNA(string(u.CustomerType)))
	fmt.Fprintf(&b, "\n- Tổng đơn hàng: %d\n- Tổng chi tiêu: $%.2f", len(orders), spent.TotalSpent)
	if len(orders) > 0 {
		fmt.Fprintf(&b, "\n- Đơn gần nhất: %s", orders[0].CreatedAt.Format(dayLayout))
		b.WriteString("\n\nĐơn hàng gần đây:")
		for i, o := range orders {
			if i == customerOrderLimit {
				break
			}
			fmt.Fprintf(&b, "\n- #%s: $%.2f, %s", o.ShortCode(), o.TotalAmount, o.Status.Label())
		}
	}

	return &Report{
		Type:   string(TypeCustomerLookup),
		Answer: b.String(),
		Data: map[string]interface{}{
			"user_id":      u.Id.String(),
			"total_orders": len(orders),
			"total_spent":  spent.TotalSpent,
		},
	}, nil
}

var customerTypes = []entity.CustomerType{
	entity.CustomerTypeNew,
	entity.CustomerTypeRegular,
	entity.CustomerTypeVIP,
	entity.CustomerTypeAtRisk,
}

func (a *Aggregator) CustomerStats(ctx context.Context, uow unitofwork.UnitOfWork, thisMonth Range) (*Report, error) {
	users := uow.UserRepository()
	role := specification.ByRole{Role: string(entity.UserRoleUser)}

	total, err := users.Count(ctx, role)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return noData("Hiện tại chưa có khách hàng nào trong hệ thống."), nil
	}

	joined, err := users.Count(ctx, role, specification.CreatedBetween{From: thisMonth.From, To: thisMonth.To})
	if err != nil {
		return nil, err
	}

	byType := make(map[string]int64, len(customerTypes))
	var b strings.Builder
	fmt.Fprintf(&b, "Tổng số khách hàng: **%d**\nKhách mới tháng này: %d", total, joined)
	for _, t := range customerTypes {
		n, err := users.Count(ctx, role, specification.ByCustomerType{Type: string(t)})
		if err != nil {
			return nil, err
		}
		byType[string(t)] = n
		fmt.Fprintf(&b, "\n- %s: %d", t, n)
	}

	return &Report{
		Type:   string(TypeCustomerStats),
		Answer: b.String(),
		Data:   map[string]interface{}{"total": total, "new_this_month": joined, "by_type": byType},
	}, nil
}

func (a *Aggregator) OrderStatus(ctx context.Context, uow unitofwork.UnitOfWork, target string) (*Report, error) {
	target = strings.TrimPrefix(strings.TrimSpace(target), "#")
	if target == "" {
		return &Report{Type: string(TypeOrderStatus), Answer: "Bạn muốn kiểm tra đơn hàng nào? Vui lòng cung cấp mã đơn, mã vận đơn hoặc số điện thoại."}, nil
	}

	order, err := a.findOrder(ctx, uow, target)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return noData(fmt.Sprintf("Không tìm thấy đơn hàng \"%s\".", target)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Đơn hàng **#%s**\n- Trạng thái: %s\n- Thanh toán: %s (%s)\n- Tổng tiền: $%.2f\n- Khách hàng: %s - %s\n- Ngày đặt: %s",
		order.ShortCode(), order.Status.Label(), orNA(order.PaymentMethod), orNA(order.PaymentStatus),
		order.TotalAmount, orNA(order.CustomerName), orNA(order.CustomerPhone), order.CreatedAt.Format(dateTimeLayout))
	if order.TrackingNumber != "" {
		fmt.Fprintf(&b, "\n- Mã vận đơn: %s", order.TrackingNumber)
	}

	return &Report{
		Type:   string(TypeOrderStatus),
		Answer: b.String(),
		Data:   map[string]interface{}{"order_id": order.Id.String(), "status": string(order.Status)},
	}, nil
}

// findOrder tries the gateway code, the tracking number, the short code and
// finally the customer phone.
func (a *Aggregator) findOrder(ctx context.Context, uow unitofwork.UnitOfWork, target string) (*entity.Order, error) {
	orders := uow.OrderRepository()
	newest := specification.OrderBy{Field: "created_at", Desc: true}

	if code, err := strconv.ParseInt(target, 10, 64); err == nil {
		o, err := orders.FindOne(ctx, specification.ByOrderCode{Code: code})
		if err != nil || o != nil {
			return o, err
		}
	}

	o, err := orders.FindOne(ctx, specification.ByTrackingNumber{Number: target})
	if err != nil || o != nil {
		return o, err
	}

	if len(target) == 8 {
		o, err := orders.FindOne(ctx, specification.ByShortCode{Code: target}, newest)
		if err != nil || o != nil {
			return o, err
		}
	}

	return orders.FindOne(ctx, specification.ByCustomerPhone{Phone: target}, newest)
}

func (a *Aggregator) ProductInventory(ctx context.Context, uow unitofwork.UnitOfWork, in AdminIntent) (*Report, error) {
	products := uow.ProductRepository()

	if target := strings.TrimSpace(in.Target); target != "" {
		variants, err := products.FindVariants(ctx,
			specification.VariantProductNameLike{Query: target},
			specification.OrderBy{Field: "products.name, product_variants.size"},
		)
		if err != nil {
			return nil, err
		}
		if len(variants) == 0 {
			return noData(fmt.Sprintf("Không tìm thấy sản phẩm nào tên là \"%s\".", target)), nil
		}
		return inventoryDetail(variants), nil
	}

	status := in.Status
	if status == "" {
		status = in.Scope
	}
	if status != ScopeLowStock && status != ScopeOutOfStock {
		return &Report{Type: string(TypeProductInventory), Answer: "Vui lòng cung cấp tên sản phẩm cụ thể hoặc yêu cầu xem hàng sắp hết."}, nil
	}

	threshold := in.Threshold
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	var filter specification.Specification = specification.QuantityAtMost{Threshold: threshold}
	if status == ScopeOutOfStock {
		threshold = 0
		filter = specification.OutOfStock{}
	}

	variants, err := products.FindVariants(ctx,
		specification.ActiveVariants{},
		filter,
		specification.OrderBy{Field: "product_variants.quantity"},
		specification.Pagination{Limit: inventoryScanLimit},
	)
	if err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		if status == ScopeOutOfStock {
			return noData("Hiện tại kho hàng đang hoạt động tốt, chưa ghi nhận sản phẩm nào hết hàng."), nil
		}
		return noData(fmt.Sprintf("Hiện tại kho hàng đang hoạt động tốt, chưa ghi nhận sản phẩm nào có số lượng dưới %d.", threshold)), nil
	}

	var b strings.Builder
	if status == ScopeOutOfStock {
		fmt.Fprintf(&b, "Có %d biến thể đã hết hàng:", len(variants))
	} else {
		fmt.Fprintf(&b, "Có %d biến thể còn từ %d sản phẩm trở xuống:", len(variants), threshold)
	}
	for _, v := range variants {
		fmt.Fprintf(&b, "\n- **%s** (%s, %s, SKU %s): còn %d", v.ProductName, v.Color, v.Size, orNA(v.Sku), v.Quantity)
	}

	return &Report{
		Type:   string(TypeProductInventory),
		Answer: b.String(),
		Data:   map[string]interface{}{"status": status, "threshold": threshold, "count": len(variants)},
	}, nil
}

func inventoryDetail(variants []*entity.ProductVariant) *Report {
	byProduct := make(map[string][]*entity.ProductVariant)
	var names []string
	for _, v := range variants {
		if _, ok := byProduct[v.ProductName]; !ok {
			names = append(names, v.ProductName)
		}
		byProduct[v.ProductName] = append(byProduct[v.ProductName], v)
	}
	sort.Strings(names)

	var b strings.Builder
	total := 0
	for i, name := range names {
		if i > 0 {
			b.WriteString("\n\n")
		}
		stock, reserved := 0, 0
		for _, v := range byProduct[name] {
			stock += v.Quantity
			reserved += v.Reserved
		}
		total += stock
		fmt.Fprintf(&b, "**%s**: tổng tồn %d, đang giữ %d", name, stock, reserved)
		for _, v := range byProduct[name] {
			fmt.Fprintf(&b, "\n- %s / %s (SKU %s): %d", v.Color, v.Size, orNA(v.Sku), v.Quantity)
		}
	}

	return &Report{
		Type:   string(TypeProductInventory),
		Answer: b.String(),
		Data:   map[string]interface{}{"products": len(names), "total_stock": total},
	}
}

func (a *Aggregator) InventoryExport(ctx context.Context, uow unitofwork.UnitOfWork, in AdminIntent) (*Report, error) {
	specs := []specification.Specification{}
	switch in.Scope {
	case ScopeLowStock:
		specs = append(specs, specification.QuantityAtMost{Threshold: DefaultLowStockThreshold}, specification.OrderBy{Field: "product_variants.quantity"})
	case ScopeOutOfStock:
		specs = append(specs, specification.OutOfStock{}, specification.OrderBy{Field: "product_variants.quantity"})
	default:
		specs = append(specs, specification.OrderBy{Field: "products.name"})
	}
	if in.Category != "" {
		specs = append(specs, specification.InCategory{Category: in.Category})
	}

	variants, err := uow.ProductRepository().FindVariants(ctx, specs...)
	if err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		return noData("Không có sản phẩm nào phù hợp để xuất báo cáo tồn kho."), nil
	}

	rows := make([][]string, len(variants))
	for i, v := range variants {
		status := string(entity.ProductStatusActive)
		if !v.IsActive {
			status = string(entity.ProductStatusInactive)
		}
		rows[i] = []string{v.ProductName, v.Sku, v.Color, v.Size, strconv.Itoa(v.Quantity), strconv.Itoa(v.Reserved), status}
	}
	header := []string{"Product Name", "SKU", "Color", "Size", "Stock Quantity", "Reserved", "Status"}

	att, err := a.exporter.Write(inventoryFilePrefix, header, rows)
	if err != nil {
		return nil, err
	}
	return &Report{
		Type:       string(TypeInventoryExport),
		Answer:     fmt.Sprintf("Đã xuất báo cáo tồn kho với %d biến thể sản phẩm.", len(rows)),
		Attachment: att,
		Data:       map[string]interface{}{"count": len(rows), "scope": scopeOrAll(in.Scope)},
	}, nil
}

func (a *Aggregator) RevenueExport(ctx context.Context, uow unitofwork.UnitOfWork, r Range) (*Report, error) {
	orders, err := uow.OrderRepository().FindAll(ctx,
		specification.CreatedBetween{From: r.From, To: r.To},
		specification.StatusNotIn{Statuses: []string{string(entity.OrderStatusCancelled)}},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return noData(fmt.Sprintf("Không có đơn hàng nào trong khoảng %s (%s) để xuất báo cáo.", r.Period.Label(), r.String())), nil
	}

	rows := make([][]string, len(orders))
	var total float64
	for i, o := range orders {
		total += o.TotalAmount
		rows[i] = []string{
			o.Id.String(),
			o.CreatedAt.Format(dateTimeLayout),
			orDefault(o.CustomerName, "Guest"),
			orNA(o.CustomerPhone),
			strconv.FormatFloat(o.TotalAmount, 'f', 2, 64),
			o.PaymentMethod,
			o.PaymentStatus,
			string(o.Status),
		}
	}
	header := []string{"Order ID", "Date", "Customer Name", "Customer Phone", "Total Amount", "Payment Method", "Payment Status", "Order Status"}

	att, err := a.exporter.Write(revenueFilePrefix, header, rows)
	if err != nil {
		return nil, err
	}
	return &Report{
		Type:       string(TypeRevenueExport),
		Answer:     fmt.Sprintf("Đã xuất báo cáo doanh thu %s (%s). Tìm thấy %d đơn hàng, tổng $%.2f.", r.Period.Label(), r.String(), len(orders), total),
		Attachment: att,
		Data:       map[string]interface{}{"count": len(orders), "period": string(r.Period), "total_revenue": total},
	}, nil
}

func (a *Aggregator) CustomerExport(ctx context.Context, uow unitofwork.UnitOfWork) (*Report, error) {
	users, err := uow.UserRepository().FindAll(ctx, specification.OrderBy{Field: "created_at", Desc: true})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return noData("Hiện tại chưa có người dùng nào trong hệ thống."), nil
	}

	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		ids[i] = u.Id
	}
	spending, err := uow.OrderRepository().SpendingByUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, len(users))
	for i, u := range users {
		s := spending[u.Id]
		rows[i] = []string{
			u.Id.String(),
			orDefault(u.FullName, orNA(u.Email)),
			orNA(u.Email),
			orNA(u.Phone),
			string(u.Role),
			u.CreatedAt.Format(dayLayout),
			strconv.FormatInt(s.Orders, 10),
			strconv.FormatFloat(s.TotalSpent, 'f', 2, 64),
		}
	}
	header := []string{"User ID", "Name", "Email", "Phone", "Role", "Join Date", "Total Orders", "Total Spent"}

	att, err := a.exporter.Write(customerListPrefix, header, rows)
	if err != nil {
		return nil, err
	}
	return &Report{
		Type:       string(TypeCustomerExport),
		Answer:     fmt.Sprintf("Đã xuất danh sách %d người dùng.", len(users)),
		Attachment: att,
		Data:       map[string]interface{}{"count": len(users)},
	}, nil
}

func scopeOrAll(scope string) string {
	if scope == "" {
		return ScopeAll
	}
	return scope
}

func orNA(s string) string {
	return orDefault(s, "N/A")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
