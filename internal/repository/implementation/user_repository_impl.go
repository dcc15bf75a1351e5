package implementation

import (
	"context"
	"encoding/json"
	"errors"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/mapper"
	"commerce-assistant/internal/model"
	"commerce-assistant/internal/repository/contract"
	"commerce-assistant/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewUserRepository(db *gorm.DB) contract.UserRepository {
	return &UserRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserMapper(),
	}
}

func (r *UserRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	var m model.User
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.User{}), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *UserRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	var models []*model.User
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.User{}), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models)
}

func (r *UserRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.User{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

func (r *UserRepositoryImpl) AddTag(ctx context.Context, id uuid.UUID, tag string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.User
		if err := tx.Select("id", "tags").Where("id = ?", id).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		var tags []string
		if len(m.Tags) > 0 {
			if err := json.Unmarshal(m.Tags, &tags); err != nil {
				return err
			}
		}
		for _, t := range tags {
			if t == tag {
				return nil
			}
		}

		b, err := json.Marshal(append(tags, tag))
		if err != nil {
			return err
		}
		return tx.Model(&model.User{}).Where("id = ?", id).Update("tags", datatypes.JSON(b)).Error
	})
}
