package unitofwork

import "context"

// RepositoryFactory creates one short lived UnitOfWork per operation.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
