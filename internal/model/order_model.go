package model

import (
	"time"

	"github.com/google/uuid"
)

type Order struct {
	Id             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId         *uuid.UUID `gorm:"type:uuid;index"`
	OrderCode      int64      `gorm:"index"`
	Status         string     `gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentMethod  string     `gorm:"type:varchar(50)"`
	PaymentStatus  string     `gorm:"type:varchar(20)"`
	TotalAmount    float64    `gorm:"type:numeric(14,2);not null"`
	CustomerName   string     `gorm:"type:varchar(255)"`
	CustomerPhone  string     `gorm:"type:varchar(30);index"`
	CustomerEmail  string     `gorm:"type:varchar(255);index"`
	TrackingNumber string     `gorm:"type:varchar(100)"`
	Items          []OrderItem `gorm:"foreignKey:OrderId"`
	CreatedAt      time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderId     uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductId   uuid.UUID `gorm:"type:uuid"`
	VariantId   uuid.UUID `gorm:"type:uuid"`
	ProductName string    `gorm:"type:varchar(255)"`
	Size        string    `gorm:"type:varchar(20)"`
	Color       string    `gorm:"type:varchar(100)"`
	Quantity    int
	Price       float64 `gorm:"type:numeric(14,2)"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
