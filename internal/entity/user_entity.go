package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type CustomerType string

const (
	CustomerTypeNew     CustomerType = "new"
	CustomerTypeRegular CustomerType = "regular"
	CustomerTypeVIP     CustomerType = "vip"
	CustomerTypeAtRisk  CustomerType = "at_risk"
)

type User struct {
	Id           uuid.UUID
	Email        string
	FullName     string
	Phone        string
	Role         UserRole
	CustomerType CustomerType
	Tags         []string
	Preferences  CustomerPreferences
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CustomerPreferences struct {
	Styles     []string `json:"styles,omitempty"`
	Colors     []string `json:"colors,omitempty"`
	Sizes      []string `json:"sizes,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// HasTag reports whether tag is already set.
func (u *User) HasTag(tag string) bool {
	for _, t := range u.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
