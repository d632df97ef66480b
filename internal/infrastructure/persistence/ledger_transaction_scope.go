package persistence

import (
	"context"

	appledger "github.com/codledger/backend/internal/application/ledger"
	"github.com/codledger/backend/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormLedgerTransactionScope implements the ledger TransactionScope using GORM
// transactions. A payment, its movement and the settled-amount updates commit
// together; backfill repairs apply their whole diff or none of it.
type GormLedgerTransactionScope struct {
	db *gorm.DB
}

// NewGormLedgerTransactionScope creates a new GormLedgerTransactionScope
func NewGormLedgerTransactionScope(db *gorm.DB) *GormLedgerTransactionScope {
	return &GormLedgerTransactionScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormLedgerTransactionScope) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormLedgerTxRepositories{tx: tx})
	})
}

type gormLedgerTxRepositories struct {
	tx *gorm.DB
}

// MovementRepo returns the movement repository scoped to the current transaction
func (r *gormLedgerTxRepositories) MovementRepo() ledger.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

// PaymentRepo returns the payment repository scoped to the current transaction
func (r *gormLedgerTxRepositories) PaymentRepo() ledger.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

var _ appledger.TransactionScope = (*GormLedgerTransactionScope)(nil)
var _ appledger.TransactionalRepositories = (*gormLedgerTxRepositories)(nil)
