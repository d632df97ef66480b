package settlement

import (
	"context"
	"time"

	"github.com/codledger/backend/internal/domain/ledger"
	"github.com/google/uuid"
)

// ListFilter narrows settlement listings
type ListFilter struct {
	CarrierID *uuid.UUID
	Status    *Status
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

// Repository defines persistence operations for settlements
type Repository interface {
	// Create persists a settlement with its order lines. A (store, carrier,
	// date) collision must surface as shared.ErrDuplicateSettlement; a
	// settlement code collision as a retryable conflict.
	Create(ctx context.Context, s *Settlement) error
	FindByID(ctx context.Context, storeID, id uuid.UUID) (*Settlement, error)
	FindByCode(ctx context.Context, storeID uuid.UUID, code string) (*Settlement, error)
	FindByCarrierAndDate(ctx context.Context, storeID, carrierID uuid.UUID, date time.Time) (*Settlement, error)
	List(ctx context.Context, storeID uuid.UUID, filter ListFilter) ([]*Settlement, int64, error)
	Save(ctx context.Context, s *Settlement) error

	// ExpectedOrderMovements derives, from settlement history, the per-order
	// movements the ledger should contain. The health check and backfill
	// replay against this.
	ExpectedOrderMovements(ctx context.Context, storeID uuid.UUID, carrierID *uuid.UUID) ([]ledger.ExpectedOrderMovement, error)

	// SettledOrderIDs returns the ids of orders already covered by any
	// settlement line, used to exclude them from pending reconciliation.
	SettledOrderIDs(ctx context.Context, storeID uuid.UUID) (map[uuid.UUID]struct{}, error)
}
