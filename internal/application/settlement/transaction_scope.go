package settlement

import (
	"context"

	"github.com/codledger/backend/internal/domain/dispatch"
	"github.com/codledger/backend/internal/domain/ledger"
	"github.com/codledger/backend/internal/domain/order"
	"github.com/codledger/backend/internal/domain/settlement"
)

// TransactionScope runs a function with settlement repositories bound to one
// database transaction. A settlement and its ledger movements are written
// atomically; the session transition rides in the same transaction.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories participating in a
// settlement transaction.
type TransactionalRepositories interface {
	SettlementRepo() settlement.Repository
	SessionRepo() dispatch.Repository
	OrderRepo() order.Repository
	MovementRepo() ledger.MovementRepository
}

// NoOpTransactionScope passes repositories through without a real transaction.
// Used in tests.
type NoOpTransactionScope struct {
	settlementRepo settlement.Repository
	sessionRepo    dispatch.Repository
	orderRepo      order.Repository
	movementRepo   ledger.MovementRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(
	settlementRepo settlement.Repository,
	sessionRepo dispatch.Repository,
	orderRepo order.Repository,
	movementRepo ledger.MovementRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		settlementRepo: settlementRepo,
		sessionRepo:    sessionRepo,
		orderRepo:      orderRepo,
		movementRepo:   movementRepo,
	}
}

// Execute runs the function against the wrapped repositories
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// SettlementRepo returns the settlement repository
func (s *NoOpTransactionScope) SettlementRepo() settlement.Repository {
	return s.settlementRepo
}

// SessionRepo returns the dispatch session repository
func (s *NoOpTransactionScope) SessionRepo() dispatch.Repository {
	return s.sessionRepo
}

// OrderRepo returns the order repository
func (s *NoOpTransactionScope) OrderRepo() order.Repository {
	return s.orderRepo
}

// MovementRepo returns the ledger movement repository
func (s *NoOpTransactionScope) MovementRepo() ledger.MovementRepository {
	return s.movementRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
