package implementation

import (
	"context"
	"errors"
	"time"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/mapper"
	"commerce-assistant/internal/model"
	"commerce-assistant/internal/repository/contract"
	"commerce-assistant/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.OrderMapper
}

func NewOrderRepository(db *gorm.DB) contract.OrderRepository {
	return &OrderRepositoryImpl{
		db:     db,
		mapper: mapper.NewOrderMapper(),
	}
}

func (r *OrderRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Order, error) {
	var m model.Order
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Order{}).Preload("Items"), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *OrderRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Order, error) {
	var models []*model.Order
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Order{}).Preload("Items"), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *OrderRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Order{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

func (r *OrderRepositoryImpl) SumRevenue(ctx context.Context, from, to time.Time) (*contract.RevenueSummary, error) {
	var summary contract.RevenueSummary
	query := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Select("COALESCE(SUM(total_amount), 0) AS total_revenue, COUNT(*) AS order_count").
		Where("status <> ?", string(entity.OrderStatusCancelled))
	query = specification.CreatedBetween{From: from, To: to}.Apply(query)

	if err := query.Scan(&summary).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *OrderRepositoryImpl) SpendingByUsers(ctx context.Context, userIds []uuid.UUID) (map[uuid.UUID]entity.Spending, error) {
	out := make(map[uuid.UUID]entity.Spending, len(userIds))
	if len(userIds) == 0 {
		return out, nil
	}

	statuses := make([]string, len(entity.SpendingStatuses))
	for i, s := range entity.SpendingStatuses {
		statuses[i] = string(s)
	}

	type row struct {
		UserId     uuid.UUID
		Orders     int64
		TotalSpent float64
	}
	var rows []row

	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Select("user_id, COUNT(*) AS orders, COALESCE(SUM(total_amount), 0) AS total_spent").
		Where("user_id IN ?", userIds).
		Where("status IN ?", statuses).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		out[r.UserId] = entity.Spending{Orders: r.Orders, TotalSpent: r.TotalSpent}
	}
	return out, nil
}
