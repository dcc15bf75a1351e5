package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// SpendingStatuses are the order states counted as money actually spent.
var SpendingStatuses = []OrderStatus{OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered}

type Order struct {
	Id             uuid.UUID
	UserId         *uuid.UUID
	OrderCode      int64 // payment gateway code
	Status         OrderStatus
	PaymentMethod  string
	PaymentStatus  string
	TotalAmount    float64
	CustomerName   string
	CustomerPhone  string
	CustomerEmail  string
	TrackingNumber string
	Items          []*OrderItem
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OrderItem struct {
	Id          uuid.UUID
	OrderId     uuid.UUID
	ProductId   uuid.UUID
	VariantId   uuid.UUID
	ProductName string
	Size        string
	Color       string
	Quantity    int
	Price       float64
}

// ShortCode is the customer-facing reference: the last 8 characters of the id.
func (o *Order) ShortCode() string {
	id := strings.ReplaceAll(o.Id.String(), "-", "")
	return strings.ToUpper(id[len(id)-8:])
}

// Spending aggregates paid orders for one customer.
type Spending struct {
	Orders     int64
	TotalSpent float64
}

var statusLabels = map[OrderStatus]string{
	OrderStatusPending:    "Chờ thanh toán",
	OrderStatusPaid:       "Đã thanh toán",
	OrderStatusConfirmed:  "Đã xác nhận",
	OrderStatusProcessing: "Đang xử lý",
	OrderStatusShipped:    "Đang giao",
	OrderStatusDelivered:  "Đã giao",
	OrderStatusCancelled:  "Đã hủy",
}

// Label is the customer-facing Vietnamese status text.
func (s OrderStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}
