package handler

import (
	"context"
	"testing"
	"time"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/pkg/rag/response"
	"commerce-assistant/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractOrderQuery(t *testing.T) {
	tests := []struct {
		message string
		want    OrderQuery
	}{
		{"kiểm tra đơn hàng 1A2B3C4D giúp mình", OrderQuery{QueryType: OrderSpecific, OrderNumber: "1A2B3C4D"}},
		{"order #ab12cd34 đâu rồi", OrderQuery{QueryType: OrderSpecific, OrderNumber: "AB12CD34"}},
		{"sdt đặt hàng 0912345678", OrderQuery{QueryType: OrderSpecific, Phone: "0912345678"}},
		{"email mình là an.nguyen@example.com", OrderQuery{QueryType: OrderSpecific, Email: "an.nguyen@example.com"}},
		{"đơn hàng gần nhất của tôi", OrderQuery{QueryType: OrderLatest}},
		{"xem danh sách đơn hàng", OrderQuery{QueryType: OrderListAll}},
		{"đơn hàng của tôi đâu", OrderQuery{QueryType: OrderListAll}},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractOrderQuery(tt.message))
		})
	}
}

func orderFor(userID *uuid.UUID, status entity.OrderStatus, phone string) *entity.Order {
	return &entity.Order{
		Id:            uuid.New(),
		UserId:        userID,
		Status:        status,
		TotalAmount:   129.5,
		CustomerPhone: phone,
		Items:         []*entity.OrderItem{{ProductName: "Oxford Shirt", Size: "M", Color: "White", Quantity: 1}},
		CreatedAt:     time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC),
	}
}

func TestOrderLookupGuestWithoutIdentifierIsAskedFirst(t *testing.T) {
	orders := &fakeOrders{}
	// The model invents an order number that is not in the message.
	gen := &cannedJSON{doc: `{"query_type": "specific", "order_number": "ZZ999999"}`}
	h := NewOrderLookup(orders, gen, logger.NewNopLogger())

	req := productRequest("đơn hàng của tôi đâu rồi", nil, store.Measurements{})
	req.UserID = store.GuestPrefix + "abc"

	res, err := h.Handle(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, TypeClarify, res.Type)
	assert.Equal(t, response.AskOrderIdentity, res.Answer)
	assert.Empty(t, orders.calls)
}

func TestOrderLookupByIdentifier(t *testing.T) {
	shipped := orderFor(nil, entity.OrderStatusShipped, "0912345678")
	shipped.Id = uuid.MustParse("7f3c2a10-5b6e-4d1f-9a0b-00001a2b3c4d")
	shipped.TrackingNumber = "VN123456"
	orders := &fakeOrders{orders: []*entity.Order{shipped}}
	h := NewOrderLookup(orders, nil, logger.NewNopLogger())

	req := productRequest("đơn hàng "+shipped.ShortCode()+" tới đâu rồi", nil, store.Measurements{})
	req.UserID = store.GuestPrefix + "abc"
	res, err := h.Handle(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, res.Answer, "#1A2B3C4D")
	assert.Contains(t, res.Answer, "Đang giao")
	assert.Contains(t, res.Answer, "VN123456")
	assert.Equal(t, "shipped", res.Data["status"])

	res, err = h.Handle(context.Background(), productRequest("sdt 0912345678", nil, store.Measurements{}))
	require.NoError(t, err)
	assert.Equal(t, shipped.Id.String(), res.Data["order_id"])

	res, err = h.Handle(context.Background(), productRequest("sdt 0987654321", nil, store.Measurements{}))
	require.NoError(t, err)
	assert.Equal(t, TypeNoData, res.Type)
}

func TestOrderLookupForSignedInCustomer(t *testing.T) {
	user := uuid.New()
	orders := &fakeOrders{orders: []*entity.Order{
		orderFor(&user, entity.OrderStatusPaid, ""),
		orderFor(&user, entity.OrderStatusDelivered, ""),
	}}
	h := NewOrderLookup(orders, nil, logger.NewNopLogger())

	req := productRequest("đơn hàng gần nhất của mình", nil, store.Measurements{})
	req.UserID = user.String()
	res, err := h.Handle(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, res.Answer, "Đã thanh toán")
	assert.Equal(t, []string{"latest"}, orders.calls)

	req = productRequest("danh sách đơn hàng của tôi", nil, store.Measurements{})
	req.UserID = user.String()
	res, err = h.Handle(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, res.Answer, "Đây là 2 đơn hàng gần nhất")
	assert.Equal(t, 2, res.Data["order_count"])

	req = productRequest("danh sách đơn hàng của tôi", nil, store.Measurements{})
	req.UserID = uuid.NewString()
	res, err = h.Handle(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, TypeNoData, res.Type)
}
