package contract

import (
	"context"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/repository/specification"

	"github.com/google/uuid"
)

type UserRepository interface {
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// AddTag appends a behavioral tag when it is not already present.
	AddTag(ctx context.Context, id uuid.UUID, tag string) error
}
