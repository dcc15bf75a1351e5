package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatLog struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    string         `gorm:"type:varchar(100);not null;index"`
	SessionId string         `gorm:"type:varchar(100);index"`
	Role      string         `gorm:"type:varchar(20);not null"`
	Content   string         `gorm:"type:text"`
	Intent    string         `gorm:"type:varchar(50)"`
	Metadata  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"index"`
}

func (ChatLog) TableName() string {
	return "chat_logs"
}
