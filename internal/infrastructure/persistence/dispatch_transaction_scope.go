package persistence

import (
	"context"

	appdispatch "github.com/codledger/backend/internal/application/dispatch"
	"github.com/codledger/backend/internal/domain/dispatch"
	"github.com/codledger/backend/internal/domain/order"
	"gorm.io/gorm"
)

// GormDispatchTransactionScope implements the dispatch TransactionScope using
// GORM transactions. Session creation and the order claim commit together.
type GormDispatchTransactionScope struct {
	db *gorm.DB
}

// NewGormDispatchTransactionScope creates a new GormDispatchTransactionScope
func NewGormDispatchTransactionScope(db *gorm.DB) *GormDispatchTransactionScope {
	return &GormDispatchTransactionScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormDispatchTransactionScope) Execute(ctx context.Context, fn func(repos appdispatch.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormDispatchTxRepositories{tx: tx})
	})
}

type gormDispatchTxRepositories struct {
	tx *gorm.DB
}

// SessionRepo returns the session repository scoped to the current transaction
func (r *gormDispatchTxRepositories) SessionRepo() dispatch.Repository {
	return NewGormDispatchSessionRepository(r.tx)
}

// OrderRepo returns the order repository scoped to the current transaction
func (r *gormDispatchTxRepositories) OrderRepo() order.Repository {
	return NewGormOrderRepository(r.tx)
}

var _ appdispatch.TransactionScope = (*GormDispatchTransactionScope)(nil)
var _ appdispatch.TransactionalRepositories = (*gormDispatchTxRepositories)(nil)
