package contract

import (
	"context"
	"time"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/repository/specification"

	"github.com/google/uuid"
)

// RevenueSummary is the aggregate of non-cancelled orders in a range.
type RevenueSummary struct {
	TotalRevenue float64
	OrderCount   int64
}

type OrderRepository interface {
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Order, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Order, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	SumRevenue(ctx context.Context, from, to time.Time) (*RevenueSummary, error)
	// SpendingByUsers aggregates paid, shipped and delivered orders per user.
	SpendingByUsers(ctx context.Context, userIds []uuid.UUID) (map[uuid.UUID]entity.Spending, error)
}
