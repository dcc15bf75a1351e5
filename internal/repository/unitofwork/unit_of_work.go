package unitofwork

import (
	"context"

	"commerce-assistant/internal/repository/contract"
)

// UnitOfWork hands out repositories that share one connection scope. Outside
// a transaction every repository runs on the pool with the unit's context.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	// BeginReadOnly opens a repeatable-read snapshot for reports that issue
	// several queries and must agree with each other.
	BeginReadOnly(ctx context.Context) error
	Commit() error
	Rollback() error

	ProductRepository() contract.ProductRepository
	OrderRepository() contract.OrderRepository
	UserRepository() contract.UserRepository
	ChatLogRepository() contract.ChatLogRepository
}
