package persistence

import (
	"context"

	appsettlement "github.com/codledger/backend/internal/application/settlement"
	"github.com/codledger/backend/internal/domain/dispatch"
	"github.com/codledger/backend/internal/domain/ledger"
	"github.com/codledger/backend/internal/domain/order"
	"github.com/codledger/backend/internal/domain/settlement"
	"gorm.io/gorm"
)

// GormSettlementTransactionScope implements the settlement TransactionScope
// using GORM transactions. The session transition, the settlement and its
// ledger movements commit atomically.
type GormSettlementTransactionScope struct {
	db *gorm.DB
}

// NewGormSettlementTransactionScope creates a new GormSettlementTransactionScope
func NewGormSettlementTransactionScope(db *gorm.DB) *GormSettlementTransactionScope {
	return &GormSettlementTransactionScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormSettlementTransactionScope) Execute(ctx context.Context, fn func(repos appsettlement.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormSettlementTxRepositories{tx: tx})
	})
}

type gormSettlementTxRepositories struct {
	tx *gorm.DB
}

// SettlementRepo returns the settlement repository scoped to the current transaction
func (r *gormSettlementTxRepositories) SettlementRepo() settlement.Repository {
	return NewGormSettlementRepository(r.tx)
}

// SessionRepo returns the session repository scoped to the current transaction
func (r *gormSettlementTxRepositories) SessionRepo() dispatch.Repository {
	return NewGormDispatchSessionRepository(r.tx)
}

// OrderRepo returns the order repository scoped to the current transaction
func (r *gormSettlementTxRepositories) OrderRepo() order.Repository {
	return NewGormOrderRepository(r.tx)
}

// MovementRepo returns the movement repository scoped to the current transaction
func (r *gormSettlementTxRepositories) MovementRepo() ledger.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

var _ appsettlement.TransactionScope = (*GormSettlementTransactionScope)(nil)
var _ appsettlement.TransactionalRepositories = (*gormSettlementTxRepositories)(nil)
