package specification

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByOrderCode struct {
	Code int64
}

func (s ByOrderCode) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("order_code = ?", s.Code)
}

// ByShortCode matches the last 8 hex characters of the order id.
type ByShortCode struct {
	Code string
}

func (s ByShortCode) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("UPPER(RIGHT(REPLACE(id::text, '-', ''), 8)) = ?", strings.ToUpper(s.Code))
}

type ByCustomerPhone struct {
	Phone string
}

func (s ByCustomerPhone) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("customer_phone = ?", s.Phone)
}

type ByCustomerEmail struct {
	Email string
}

func (s ByCustomerEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("LOWER(customer_email) = LOWER(?)", s.Email)
}

type ByTrackingNumber struct {
	Number string
}

func (s ByTrackingNumber) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("tracking_number = ?", s.Number)
}

type OrderOwnedBy struct {
	UserID uuid.UUID
}

func (s OrderOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type StatusIn struct {
	Statuses []string
}

func (s StatusIn) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", s.Statuses)
}

type StatusNotIn struct {
	Statuses []string
}

func (s StatusNotIn) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status NOT IN ?", s.Statuses)
}
