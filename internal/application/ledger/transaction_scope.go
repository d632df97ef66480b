package ledger

import (
	"context"

	"github.com/codledger/backend/internal/domain/ledger"
)

// TransactionScope runs a function with ledger repositories bound to one
// database transaction. A payment record, its movement and the settled-amount
// updates it causes commit or roll back together; the same holds for a
// backfill repair.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories participating in a
// ledger transaction.
type TransactionalRepositories interface {
	MovementRepo() ledger.MovementRepository
	PaymentRepo() ledger.PaymentRepository
}

// NoOpTransactionScope passes repositories through without a real transaction.
// Used in tests.
type NoOpTransactionScope struct {
	movementRepo ledger.MovementRepository
	paymentRepo  ledger.PaymentRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(movementRepo ledger.MovementRepository, paymentRepo ledger.PaymentRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{movementRepo: movementRepo, paymentRepo: paymentRepo}
}

// Execute runs the function against the wrapped repositories
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// MovementRepo returns the ledger movement repository
func (s *NoOpTransactionScope) MovementRepo() ledger.MovementRepository {
	return s.movementRepo
}

// PaymentRepo returns the carrier payment repository
func (s *NoOpTransactionScope) PaymentRepo() ledger.PaymentRepository {
	return s.paymentRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
