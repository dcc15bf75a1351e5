package search

import (
	"context"
	"strings"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/repository/contract"
	"commerce-assistant/internal/repository/specification"

	"github.com/google/uuid"
)

// fakeProducts answers FindAll from an in-memory catalog by interpreting the
// specs the resolver uses.
type fakeProducts struct {
	contract.ProductRepository
	catalog []*entity.Product
	err     error
	calls   int
}

func (f *fakeProducts) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Product, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	limit := 0
	out := []*entity.Product{}
	for _, p := range f.catalog {
		ok := true
		for _, s := range specs {
			switch spec := s.(type) {
			case specification.ActiveProducts:
				ok = ok && p.Status == entity.ProductStatusActive
			case specification.ByIDs:
				found := false
				for _, id := range spec.IDs {
					found = found || id == p.Id
				}
				ok = ok && found
			case specification.ByName:
				ok = ok && strings.EqualFold(p.Name, spec.Name)
			case specification.NameContainsAll:
				for _, t := range spec.Tokens {
					ok = ok && strings.Contains(strings.ToLower(p.Name), t)
				}
			case specification.NameMatchesAny:
				matched := false
				for _, t := range spec.Tokens {
					matched = matched || strings.Contains(strings.ToLower(p.Name), t)
				}
				ok = ok && matched
			case specification.InCategory:
				ok = ok && strings.EqualFold(p.Category, spec.Category)
			case specification.Pagination:
				limit = spec.Limit
			}
		}
		if ok {
			out = append(out, p)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeUsers struct {
	contract.UserRepository
	users []*entity.User
}

func (f *fakeUsers) match(u *entity.User, specs []specification.Specification) bool {
	for _, s := range specs {
		switch spec := s.(type) {
		case specification.ByEmail:
			if !strings.EqualFold(u.Email, spec.Email) {
				return false
			}
		case specification.ByPhone:
			if u.Phone != spec.Phone {
				return false
			}
		case specification.FullNameLike:
			if !strings.Contains(strings.ToLower(u.FullName), strings.ToLower(spec.Name)) {
				return false
			}
		case specification.ByRole:
			if string(u.Role) != spec.Role {
				return false
			}
		}
	}
	return true
}

func (f *fakeUsers) FindOne(_ context.Context, specs ...specification.Specification) (*entity.User, error) {
	for _, u := range f.users {
		if f.match(u, specs) {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	var out []*entity.User
	for _, u := range f.users {
		if f.match(u, specs) {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeText struct {
	hits []TextHit
	err  error
}

func (f *fakeText) SearchNames(context.Context, string, int) ([]TextHit, error) {
	return f.hits, f.err
}

type fakeVector struct {
	results []*contract.ScoredProduct
	err     error
	calls   int
}

func (f *fakeVector) SearchSimilar(context.Context, string, int, float64) ([]*contract.ScoredProduct, error) {
	f.calls++
	return f.results, f.err
}

func product(name, category string) *entity.Product {
	return &entity.Product{
		Id:       uuid.New(),
		Name:     name,
		Category: category,
		Status:   entity.ProductStatusActive,
	}
}
