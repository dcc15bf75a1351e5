// Package analytics answers read-only admin questions about revenue,
// customers, orders and inventory, and writes CSV exports.
package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/pkg/llm"
	"commerce-assistant/pkg/resilience"
	"commerce-assistant/pkg/store"
)

type SubType string

const (
	TypeRevenue          SubType = "revenue"
	TypeCustomerLookup   SubType = "customer_lookup"
	TypeCustomerStats    SubType = "customer_stats"
	TypeOrderStatus      SubType = "order_status"
	TypeProductInventory SubType = "product_inventory"
	TypeInventoryExport  SubType = "inventory_export"
	TypeRevenueExport    SubType = "revenue_export"
	TypeCustomerExport   SubType = "customer_export"
	TypeGeneral          SubType = "general"
)

// Inventory scopes and statuses.
const (
	ScopeAll        = "all"
	ScopeLowStock   = "low_stock"
	ScopeOutOfStock = "out_of_stock"
	ScopeCategory   = "category"

	DefaultLowStockThreshold = 10
)

// AdminIntent is the structured admin request.
type AdminIntent struct {
	Type      SubType `json:"type"`
	Target    string  `json:"target,omitempty"`
	Period    Period  `json:"period,omitempty"`
	StartDate string  `json:"start_date,omitempty"`
	EndDate   string  `json:"end_date,omitempty"`
	Scope     string  `json:"scope,omitempty"`
	Category  string  `json:"category,omitempty"`
	Status    string  `json:"status,omitempty"`
	Threshold int     `json:"threshold,omitempty"`
}

// IsExport reports whether the intent writes a file.
func (i AdminIntent) IsExport() bool {
	switch i.Type {
	case TypeInventoryExport, TypeRevenueExport, TypeCustomerExport:
		return true
	}
	return false
}

var adminSchema = llm.MustSchema(`{
	"type": "object",
	"required": ["type"],
	"properties": {
		"type": {"enum": ["revenue", "customer_lookup", "customer_stats", "order_status", "product_inventory", "inventory_export", "revenue_export", "customer_export", "general"]},
		"target": {"type": ["string", "null"]},
		"period": {"type": ["string", "null"]},
		"start_date": {"type": ["string", "null"]},
		"end_date": {"type": ["string", "null"]},
		"scope": {"type": ["string", "null"]},
		"category": {"type": ["string", "null"]},
		"status": {"type": ["string", "null"]},
		"threshold": {"type": ["integer", "null"]}
	}
}`)

var (
	exportWords   = []string{"csv", "export", "xuất file", "xuất báo cáo", "tải", "download"}
	lowWords      = []string{"low", "thấp", "sắp hết", "cảnh báo", "warning"}
	outWords      = []string{"out of stock", "hết hàng", "out"}
	revenueExport = []string{"báo cáo", "xuất", "export", "csv"}
	customerWords = []string{"user", "khách hàng", "customer", "người dùng"}
	customerList  = []string{"danh sách", "xuất", "list", "export", "tải"}
)

const historyMessages = 3

// Classifier sub-classifies admin requests.
type Classifier struct {
	llm    llm.LLMProvider
	policy resilience.Policy
	now    func() time.Time
	logger logger.ILogger
}

func NewClassifier(provider llm.LLMProvider, policy resilience.Policy, log logger.ILogger) *Classifier {
	if policy.Name == "" {
		policy.Name = "admin-intent"
	}
	return &Classifier{llm: provider, policy: policy, now: time.Now, logger: log}
}

func (c *Classifier) WithClock(now func() time.Time) *Classifier {
	c.now = now
	return c
}

// Classify returns the admin intent of query. previous is the last user
// message and history the recent turns, both used to resolve references.
func (c *Classifier) Classify(ctx context.Context, query, previous string, history []store.Turn) AdminIntent {
	lower := strings.ToLower(query)

	pre, needsModel := precheck(lower, strings.ToLower(previous))
	if !needsModel {
		return pre
	}
	if c.llm == nil {
		return keywordIntent(lower)
	}

	var out AdminIntent
	_, err := resilience.Do(ctx, c.policy, nil, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, llm.GenerateJSON(ctx, c.llm, c.prompt(query, history), adminSchema, &out, llm.WithTemperature(0.1))
	})
	if err != nil {
		c.logger.Warn("AdminClassifier", "model classification failed, using keywords", map[string]interface{}{"error": err.Error()})
		return keywordIntent(lower)
	}
	if out.Period == "" && (out.Type == TypeRevenue || out.Type == TypeRevenueExport) {
		out.Period = PeriodFromText(lower)
	}
	return out
}

// precheck routes export requests. Inventory exports are decided here;
// revenue and customer exports still need the model for details.
func precheck(lower, previous string) (AdminIntent, bool) {
	switch {
	case strings.Contains(lower, "doanh thu") && containsAny(lower, revenueExport):
		return AdminIntent{}, true
	case containsAny(lower, customerWords) && containsAny(lower, customerList):
		return AdminIntent{}, true
	case containsAny(lower, exportWords) || (strings.Contains(lower, "báo cáo") && strings.Contains(lower, "kho")):
		return AdminIntent{Type: TypeInventoryExport, Scope: stockScope(lower, previous)}, false
	}
	return AdminIntent{}, true
}

func stockScope(lower, previous string) string {
	for _, text := range []string{lower, previous} {
		switch {
		case containsAny(text, lowWords):
			return ScopeLowStock
		case containsAny(text, outWords):
			return ScopeOutOfStock
		}
	}
	return ScopeAll
}

// keywordIntent is used when the model is unavailable.
func keywordIntent(lower string) AdminIntent {
	isExport := containsAny(lower, exportWords) || strings.Contains(lower, "báo cáo") || strings.Contains(lower, "xuất")
	switch {
	case strings.Contains(lower, "doanh thu") || strings.Contains(lower, "revenue") || strings.Contains(lower, "doanh số"):
		t := TypeRevenue
		if isExport {
			t = TypeRevenueExport
		}
		return AdminIntent{Type: t, Period: PeriodFromText(lower)}
	case containsAny(lower, customerWords) && containsAny(lower, customerList):
		return AdminIntent{Type: TypeCustomerExport}
	case strings.Contains(lower, "tồn kho") || strings.Contains(lower, "kho") || strings.Contains(lower, "stock") || strings.Contains(lower, "sắp hết"):
		status := ScopeAll
		if containsAny(lower, lowWords) {
			status = ScopeLowStock
		} else if strings.Contains(lower, "hết hàng") {
			status = ScopeOutOfStock
		}
		return AdminIntent{Type: TypeProductInventory, Status: status, Threshold: DefaultLowStockThreshold}
	case strings.Contains(lower, "bao nhiêu khách") || strings.Contains(lower, "số lượng user") || strings.Contains(lower, "thống kê"):
		return AdminIntent{Type: TypeCustomerStats}
	}
	return AdminIntent{Type: TypeGeneral}
}

func (c *Classifier) prompt(query string, history []store.Turn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<current_date>\n%s\n</current_date>\n\n", c.now().Format(time.RFC3339))

	if len(history) > historyMessages {
		history = history[len(history)-historyMessages:]
	}
	if len(history) > 0 {
		b.WriteString("<history>\n")
		for _, t := range history {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Text)
		}
		b.WriteString("</history>\n\n")
	}

	b.WriteString(`<types>
- revenue (doanh thu, doanh số): period today | yesterday | this_week | last_week | this_month | last_month | this_quarter | last_quarter | this_year | last_year | all | custom, start_date and end_date (YYYY-MM-DD) for custom ranges
- customer_lookup (tìm khách, thông tin khách, lịch sử mua): target = email, phone or name; resolve "khách này", "user đó" from <history>
- customer_stats (số lượng user, bao nhiêu khách hàng)
- customer_export (xuất danh sách khách hàng, tải danh sách user)
- order_status (trạng thái đơn hàng): target = order code, tracking number or phone
- product_inventory (tồn kho, sắp hết, hết hàng): target = product name or sku, status all | low_stock | out_of_stock, threshold (default 10)
- inventory_export (xuất file tồn kho): scope all | low_stock | out_of_stock | category, category
- revenue_export (xuất báo cáo doanh thu): period and dates as for revenue
</types>

`)
	fmt.Fprintf(&b, "<query>\n%s\n</query>\n\n", query)
	b.WriteString(`Trả về JSON: {"type": "...", "target": null, "period": null, "start_date": null, "end_date": null, "scope": null, "category": null, "status": null, "threshold": null}`)
	return b.String()
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
