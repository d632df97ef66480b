package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementFilter narrows movement queries
type MovementFilter struct {
	Type     *MovementType
	DateFrom *time.Time
	DateTo   *time.Time
}

// CarrierBalance is a per-carrier replayed balance row
type CarrierBalance struct {
	CarrierID     uuid.UUID       `json:"carrier_id"`
	Balance       decimal.Decimal `json:"balance"`
	MovementCount int64           `json:"movement_count"`
}

// MovementRepository persists the append-only movement log
type MovementRepository interface {
	Create(ctx context.Context, m *Movement) error
	CreateBatch(ctx context.Context, movements []*Movement) error
	FindByID(ctx context.Context, storeID, id uuid.UUID) (*Movement, error)
	FindByIDs(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) ([]*Movement, error)
	// FindByCarrier returns a carrier's movements oldest first
	FindByCarrier(ctx context.Context, storeID, carrierID uuid.UUID, filter MovementFilter) ([]*Movement, error)
	// FindUnsettled returns receivable movements with outstanding amounts, oldest first
	FindUnsettled(ctx context.Context, storeID, carrierID uuid.UUID) ([]*Movement, error)
	FindBySettlement(ctx context.Context, storeID, settlementID uuid.UUID) ([]*Movement, error)
	// SumByCarrier replays the signed amount sum in SQL
	SumByCarrier(ctx context.Context, storeID, carrierID uuid.UUID, from, to *time.Time) (decimal.Decimal, error)
	// BalancesByStore returns the replayed balance per carrier for a store
	BalancesByStore(ctx context.Context, storeID uuid.UUID) ([]CarrierBalance, error)
	// ApplySettlement adds amount to a receivable movement's settled amount.
	// The outstanding check and the increment are one atomic write, so two
	// payments racing on the same movement cannot settle more than its amount.
	ApplySettlement(ctx context.Context, storeID, id uuid.UUID, amount decimal.Decimal) error
	// Delete removes a movement; only the audited backfill repair uses this
	Delete(ctx context.Context, storeID, id uuid.UUID) error
}

// PaymentRepository persists carrier payments
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	FindByID(ctx context.Context, storeID, id uuid.UUID) (*Payment, error)
	FindByCode(ctx context.Context, storeID uuid.UUID, code string) (*Payment, error)
	List(ctx context.Context, storeID uuid.UUID, carrierID *uuid.UUID, page, pageSize int) ([]*Payment, int64, error)
}
