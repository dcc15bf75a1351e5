package contract

import (
	"context"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/repository/specification"
)

type ChatLogRepository interface {
	CreateBulk(ctx context.Context, logs []*entity.ChatLog) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatLog, error)
	DeleteByUser(ctx context.Context, userId string) error
}
