package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null"`
	FullName     string         `gorm:"type:varchar(255);not null"`
	Phone        string         `gorm:"type:varchar(30);index"`
	Role         string         `gorm:"type:varchar(50);not null;default:'user'"`
	CustomerType string         `gorm:"type:varchar(20);default:'new'"`
	Tags         datatypes.JSON `gorm:"type:jsonb"`
	Preferences  datatypes.JSON `gorm:"type:jsonb"`
	Notes        string         `gorm:"type:text"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
