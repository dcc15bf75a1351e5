package specification

import (
	"gorm.io/gorm"
)

type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("LOWER(email) = LOWER(?)", s.Email)
}

type ByPhone struct {
	Phone string
}

func (s ByPhone) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("phone = ?", s.Phone)
}

type FullNameLike struct {
	Name string
}

func (s FullNameLike) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("full_name ILIKE ?", "%"+escapeLike(s.Name)+"%")
}

type ByRole struct {
	Role string
}

func (s ByRole) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role = ?", s.Role)
}

// ChatLogOwnedBy filters chat logs by the (string) chat user id.
type ChatLogOwnedBy struct {
	UserID string
}

func (s ChatLogOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type ByCustomerType struct {
	Type string
}

func (s ByCustomerType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("customer_type = ?", s.Type)
}
