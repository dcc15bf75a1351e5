package analytics

import (
	"context"
	"strings"
	"time"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/repository/contract"
	"commerce-assistant/internal/repository/specification"
	"commerce-assistant/internal/repository/unitofwork"
	"commerce-assistant/pkg/rag/search"

	"github.com/google/uuid"
)

type fakeFactory struct {
	uow *fakeUoW
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

type fakeUoW struct {
	products *fakeProducts
	orders   *fakeOrders
	users    *fakeUsers
	readOnly bool
}

func newFakeUoW() *fakeUoW {
	return &fakeUoW{products: &fakeProducts{}, orders: &fakeOrders{}, users: &fakeUsers{}}
}

func (u *fakeUoW) Begin(ctx context.Context) error { return nil }
func (u *fakeUoW) Commit() error                   { return nil }
func (u *fakeUoW) Rollback() error                 { return nil }

func (u *fakeUoW) BeginReadOnly(ctx context.Context) error {
	u.readOnly = true
	return nil
}

func (u *fakeUoW) ProductRepository() contract.ProductRepository { return u.products }
func (u *fakeUoW) OrderRepository() contract.OrderRepository     { return u.orders }
func (u *fakeUoW) UserRepository() contract.UserRepository       { return u.users }
func (u *fakeUoW) ChatLogRepository() contract.ChatLogRepository { return nil }

type fakeProducts struct {
	variants []*entity.ProductVariant
	specs    [][]specification.Specification
}

func (f *fakeProducts) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Product, error) {
	return nil, nil
}

func (f *fakeProducts) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Product, error) {
	return nil, nil
}

func (f *fakeProducts) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}

func (f *fakeProducts) FindVariants(ctx context.Context, specs ...specification.Specification) ([]*entity.ProductVariant, error) {
	f.specs = append(f.specs, specs)
	limit := 0
	var out []*entity.ProductVariant
	for _, v := range f.variants {
		keep := true
		for _, s := range specs {
			switch s := s.(type) {
			case specification.ActiveVariants:
				keep = keep && v.IsActive
			case specification.QuantityAtMost:
				keep = keep && v.Quantity <= s.Threshold
			case specification.OutOfStock:
				keep = keep && v.Quantity == 0
			case specification.VariantProductNameLike:
				keep = keep && strings.Contains(strings.ToLower(v.ProductName), strings.ToLower(s.Query))
			case specification.Pagination:
				limit = s.Limit
			}
		}
		if keep {
			out = append(out, v)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeProducts) DistinctColors(ctx context.Context) ([]string, error) { return nil, nil }

func (f *fakeProducts) SearchSimilar(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*contract.ScoredProduct, error) {
	return nil, nil
}

type fakeOrders struct {
	orders []*entity.Order
}

func (f *fakeOrders) match(o *entity.Order, specs []specification.Specification) bool {
	for _, s := range specs {
		switch s := s.(type) {
		case specification.CreatedBetween:
			if (!s.From.IsZero() && o.CreatedAt.Before(s.From)) || (!s.To.IsZero() && !o.CreatedAt.Before(s.To)) {
				return false
			}
		case specification.StatusNotIn:
			for _, st := range s.Statuses {
				if string(o.Status) == st {
					return false
				}
			}
		case specification.OrderOwnedBy:
			if o.UserId == nil || *o.UserId != s.UserID {
				return false
			}
		case specification.ByOrderCode:
			if o.OrderCode != s.Code {
				return false
			}
		case specification.ByTrackingNumber:
			if o.TrackingNumber != s.Number {
				return false
			}
		case specification.ByShortCode:
			if o.ShortCode() != strings.ToUpper(s.Code) {
				return false
			}
		case specification.ByCustomerPhone:
			if o.CustomerPhone != s.Phone {
				return false
			}
		}
	}
	return true
}

func (f *fakeOrders) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Order, error) {
	for _, o := range f.orders {
		if f.match(o, specs) {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakeOrders) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Order, error) {
	var out []*entity.Order
	for _, o := range f.orders {
		if f.match(o, specs) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := f.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func (f *fakeOrders) SumRevenue(ctx context.Context, from, to time.Time) (*contract.RevenueSummary, error) {
	all, _ := f.FindAll(ctx,
		specification.CreatedBetween{From: from, To: to},
		specification.StatusNotIn{Statuses: []string{string(entity.OrderStatusCancelled)}},
	)
	sum := &contract.RevenueSummary{}
	for _, o := range all {
		sum.TotalRevenue += o.TotalAmount
		sum.OrderCount++
	}
	return sum, nil
}

func (f *fakeOrders) SpendingByUsers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]entity.Spending, error) {
	out := make(map[uuid.UUID]entity.Spending)
	for _, id := range ids {
		for _, o := range f.orders {
			if o.UserId != nil && *o.UserId == id && o.Status != entity.OrderStatusCancelled && o.Status != entity.OrderStatusPending {
				s := out[id]
				s.Orders++
				s.TotalSpent += o.TotalAmount
				out[id] = s
			}
		}
	}
	return out, nil
}

type fakeUsers struct {
	users []*entity.User
}

func (f *fakeUsers) filter(specs []specification.Specification) []*entity.User {
	var out []*entity.User
	for _, u := range f.users {
		keep := true
		for _, s := range specs {
			switch s := s.(type) {
			case specification.ByRole:
				keep = keep && string(u.Role) == s.Role
			case specification.CreatedBetween:
				keep = keep && !u.CreatedAt.Before(s.From) && u.CreatedAt.Before(s.To)
			case specification.ByCustomerType:
				keep = keep && string(u.CustomerType) == s.Type
			}
		}
		if keep {
			out = append(out, u)
		}
	}
	return out
}

func (f *fakeUsers) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	if all := f.filter(specs); len(all) > 0 {
		return all[0], nil
	}
	return nil, nil
}

func (f *fakeUsers) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	return f.filter(specs), nil
}

func (f *fakeUsers) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(f.filter(specs))), nil
}

func (f *fakeUsers) AddTag(ctx context.Context, id uuid.UUID, tag string) error { return nil }

type fakeCustomers struct {
	candidates []search.Candidate
	queries    []string
}

func (f *fakeCustomers) Resolve(ctx context.Context, query string, kind search.Kind) ([]search.Candidate, error) {
	f.queries = append(f.queries, query)
	return f.candidates, nil
}

var octNow = time.Date(2026, 10, 14, 10, 30, 5, 123_000_000, time.UTC)

func fixedClock() time.Time { return octNow }

func order(code int64, status entity.OrderStatus, amount float64, at time.Time) *entity.Order {
	return &entity.Order{
		Id:            uuid.New(),
		OrderCode:     code,
		Status:        status,
		TotalAmount:   amount,
		PaymentMethod: "card",
		PaymentStatus: "paid",
		CustomerName:  "Lan Nguyen",
		CustomerPhone: "0901234567",
		CreatedAt:     at,
	}
}
