package mapper

import (
	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/model"
)

type OrderMapper struct{}

func NewOrderMapper() *OrderMapper {
	return &OrderMapper{}
}

func (m *OrderMapper) ToEntity(o *model.Order) *entity.Order {
	if o == nil {
		return nil
	}

	items := make([]*entity.OrderItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = &entity.OrderItem{
			Id:          it.Id,
			OrderId:     it.OrderId,
			ProductId:   it.ProductId,
			VariantId:   it.VariantId,
			ProductName: it.ProductName,
			Size:        it.Size,
			Color:       it.Color,
			Quantity:    it.Quantity,
			Price:       it.Price,
		}
	}

	return &entity.Order{
		Id:             o.Id,
		UserId:         o.UserId,
		OrderCode:      o.OrderCode,
		Status:         entity.OrderStatus(o.Status),
		PaymentMethod:  o.PaymentMethod,
		PaymentStatus:  o.PaymentStatus,
		TotalAmount:    o.TotalAmount,
		CustomerName:   o.CustomerName,
		CustomerPhone:  o.CustomerPhone,
		CustomerEmail:  o.CustomerEmail,
		TrackingNumber: o.TrackingNumber,
		Items:          items,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func (m *OrderMapper) ToEntities(orders []*model.Order) []*entity.Order {
	entities := make([]*entity.Order, len(orders))
	for i, o := range orders {
		entities[i] = m.ToEntity(o)
	}
	return entities
}
