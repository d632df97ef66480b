package dispatch

import (
	"context"

	"github.com/codledger/backend/internal/domain/dispatch"
	"github.com/codledger/backend/internal/domain/order"
)

// TransactionScope runs a function with dispatch repositories bound to one
// database transaction. Session creation and the order claim must commit or
// roll back together.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories participating in a
// dispatch transaction.
type TransactionalRepositories interface {
	SessionRepo() dispatch.Repository
	OrderRepo() order.Repository
}

// NoOpTransactionScope passes repositories through without a real transaction.
// Used in tests.
type NoOpTransactionScope struct {
	sessionRepo dispatch.Repository
	orderRepo   order.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(sessionRepo dispatch.Repository, orderRepo order.Repository) *NoOpTransactionScope {
	return &NoOpTransactionScope{sessionRepo: sessionRepo, orderRepo: orderRepo}
}

// Execute runs the function against the wrapped repositories
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// SessionRepo returns the dispatch session repository
func (s *NoOpTransactionScope) SessionRepo() dispatch.Repository {
	return s.sessionRepo
}

// OrderRepo returns the order repository
func (s *NoOpTransactionScope) OrderRepo() order.Repository {
	return s.orderRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
