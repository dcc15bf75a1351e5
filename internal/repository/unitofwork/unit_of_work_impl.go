package unitofwork

import (
	"context"
	"database/sql"
	"errors"

	"commerce-assistant/internal/repository/contract"
	"commerce-assistant/internal/repository/implementation"

	"gorm.io/gorm"
)

var (
	ErrTxActive   = errors.New("transaction already started")
	ErrNoActiveTx = errors.New("no active transaction")
)

type UnitOfWorkImpl struct {
	db  *gorm.DB
	ctx context.Context
	tx  *gorm.DB // nil outside Begin/Commit
}

func NewUnitOfWork(ctx context.Context, db *gorm.DB) UnitOfWork {
	if ctx == nil {
		ctx = context.Background()
	}
	return &UnitOfWorkImpl{db: db, ctx: ctx}
}

func (u *UnitOfWorkImpl) conn() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db.WithContext(u.ctx)
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	return u.begin(ctx)
}

func (u *UnitOfWorkImpl) BeginReadOnly(ctx context.Context) error {
	return u.begin(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
}

func (u *UnitOfWorkImpl) begin(ctx context.Context, opts ...*sql.TxOptions) error {
	if u.tx != nil {
		return ErrTxActive
	}
	tx := u.db.WithContext(ctx).Begin(opts...)
	if tx.Error != nil {
		return tx.Error
	}
	u.tx = tx
	return nil
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return ErrNoActiveTx
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return ErrNoActiveTx
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) ProductRepository() contract.ProductRepository {
	return implementation.NewProductRepository(u.conn())
}

func (u *UnitOfWorkImpl) OrderRepository() contract.OrderRepository {
	return implementation.NewOrderRepository(u.conn())
}

func (u *UnitOfWorkImpl) UserRepository() contract.UserRepository {
	return implementation.NewUserRepository(u.conn())
}

func (u *UnitOfWorkImpl) ChatLogRepository() contract.ChatLogRepository {
	return implementation.NewChatLogRepository(u.conn())
}
