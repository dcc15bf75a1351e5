package implementation

import (
	"context"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/mapper"
	"commerce-assistant/internal/model"
	"commerce-assistant/internal/repository/contract"
	"commerce-assistant/internal/repository/specification"

	"gorm.io/gorm"
)

type ChatLogRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatLogMapper
}

func NewChatLogRepository(db *gorm.DB) contract.ChatLogRepository {
	return &ChatLogRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatLogMapper(),
	}
}

func (r *ChatLogRepositoryImpl) CreateBulk(ctx context.Context, logs []*entity.ChatLog) error {
	if len(logs) == 0 {
		return nil
	}
	models := make([]*model.ChatLog, len(logs))
	for i, l := range logs {
		m, err := r.mapper.ToModel(l)
		if err != nil {
			return err
		}
		models[i] = m
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		e, err := r.mapper.ToEntity(m)
		if err != nil {
			return err
		}
		*logs[i] = *e
	}
	return nil
}

func (r *ChatLogRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatLog, error) {
	var models []*model.ChatLog
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.ChatLog{}), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models)
}

func (r *ChatLogRepositoryImpl) DeleteByUser(ctx context.Context, userId string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userId).Delete(&model.ChatLog{}).Error
}
