package prompt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/repository/contract"
	"commerce-assistant/internal/repository/specification"
	"commerce-assistant/pkg/store"

	"github.com/google/uuid"
)

// CustomerContext is what the assistant may know about an identified
// shopper. It is never built for guests.
type CustomerContext struct {
	UserID      string
	Name        string
	Type        entity.CustomerType
	Preferences entity.CustomerPreferences
	Tags        []string
	Orders      int64
	TotalSpent  float64
	Since       time.Time
}

var typeDescriptions = map[entity.CustomerType]string{
	entity.CustomerTypeVIP:     "Khách VIP - mua thường xuyên, giá trị cao, trung thành",
	entity.CustomerTypeRegular: "Khách hàng quen - mua sắm đều đặn",
	entity.CustomerTypeAtRisk:  "Khách có nguy cơ rời bỏ - cần chăm sóc kỹ",
	entity.CustomerTypeNew:     "Khách mới - cần xây dựng niềm tin",
}

var tones = map[entity.CustomerType]string{
	entity.CustomerTypeVIP:     "trân trọng, ưu tiên gợi ý sản phẩm cao cấp",
	entity.CustomerTypeRegular: "thân thiện như người quen",
	entity.CustomerTypeAtRisk:  "ân cần, chủ động hỏi han nhu cầu",
	entity.CustomerTypeNew:     "nhiệt tình, giới thiệu rõ ràng",
}

// Tone is the voice to use with this customer.
func (c *CustomerContext) Tone() string {
	if c == nil {
		return ""
	}
	return tones[c.Type]
}

// Render formats the context as prompt sections. Empty when nothing is
// known.
func (c *CustomerContext) Render() string {
	if c == nil {
		return ""
	}
	var sections []string

	if c.Type != "" {
		desc := typeDescriptions[c.Type]
		if desc == "" {
			desc = "Khách hàng thông thường"
		}
		sections = append(sections, fmt.Sprintf("## PHÂN LOẠI KHÁCH HÀNG\nLoại: %s\nMô tả: %s", c.Type, desc))
	}

	var prefs []string
	if len(c.Preferences.Styles) > 0 {
		prefs = append(prefs, "  - Phong cách: "+strings.Join(c.Preferences.Styles, ", "))
	}
	if len(c.Preferences.Colors) > 0 {
		prefs = append(prefs, "  - Màu sắc ưa thích: "+strings.Join(c.Preferences.Colors, ", "))
	}
	if len(c.Preferences.Sizes) > 0 {
		prefs = append(prefs, "  - Size thường mặc: "+strings.Join(c.Preferences.Sizes, ", "))
	}
	if len(c.Preferences.Categories) > 0 {
		prefs = append(prefs, "  - Danh mục quan tâm: "+strings.Join(c.Preferences.Categories, ", "))
	}
	if len(prefs) > 0 {
		sections = append(sections, "## SỞ THÍCH & ƯU TIÊN\n"+strings.Join(prefs, "\n"))
	}

	if c.Orders > 0 {
		s := fmt.Sprintf("## LỊCH SỬ MUA HÀNG\n  - Tổng chi tiêu: $%.0f\n  - Số đơn hàng: %d", c.TotalSpent, c.Orders)
		if !c.Since.IsZero() {
			s += "\n  - Khách hàng từ: " + c.Since.Format("02/01/2006")
		}
		sections = append(sections, s)
	}

	if len(c.Tags) > 0 {
		sections = append(sections, "## NHÃN HÀNH VI\n  - "+strings.Join(c.Tags, ", "))
	}

	return strings.Join(sections, "\n\n")
}

// CustomerContextBuilder loads customer context from the user and order
// stores.
type CustomerContextBuilder struct {
	users  contract.UserRepository
	orders contract.OrderRepository
}

func NewCustomerContextBuilder(users contract.UserRepository, orders contract.OrderRepository) *CustomerContextBuilder {
	return &CustomerContextBuilder{users: users, orders: orders}
}

// Build returns nil for guests, unknown users and ids that are not user ids.
func (b *CustomerContextBuilder) Build(ctx context.Context, userID string) (*CustomerContext, error) {
	if store.IsGuest(userID) {
		return nil, nil
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, nil
	}

	user, err := b.users.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	cc := &CustomerContext{
		UserID:      userID,
		Name:        user.FullName,
		Type:        user.CustomerType,
		Preferences: user.Preferences,
		Tags:        user.Tags,
		Since:       user.CreatedAt,
	}

	if b.orders != nil {
		spending, err := b.orders.SpendingByUsers(ctx, []uuid.UUID{id})
		if err != nil {
			return nil, err
		}
		if s, ok := spending[id]; ok {
			cc.Orders = s.Orders
			cc.TotalSpent = s.TotalSpent
		}
	}
	return cc, nil
}
