package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/codledger/backend/internal/domain/ledger"
	"github.com/codledger/backend/internal/domain/shared"
	"github.com/codledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormMovementRepository implements ledger.MovementRepository using GORM
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Create appends one movement to the ledger
func (r *GormMovementRepository) Create(ctx context.Context, m *ledger.Movement) error {
	return r.db.WithContext(ctx).Create(models.MovementModelFromDomain(m)).Error
}

// CreateBatch appends movements in one insert
func (r *GormMovementRepository) CreateBatch(ctx context.Context, movements []*ledger.Movement) error {
	if len(movements) == 0 {
		return nil
	}
	ms := make([]*models.MovementModel, 0, len(movements))
	for _, m := range movements {
		ms = append(ms, models.MovementModelFromDomain(m))
	}
	return r.db.WithContext(ctx).Create(&ms).Error
}

// FindByID finds a movement by ID within a store
func (r *GormMovementRepository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*ledger.Movement, error) {
	var m models.MovementModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND id = ?", storeID, id).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByIDs returns the movements for the given ids that belong to the store
func (r *GormMovementRepository) FindByIDs(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) ([]*ledger.Movement, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var ms []models.MovementModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND id IN ?", storeID, ids).
		Order("created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainMovements(ms), nil
}

// FindByCarrier returns a carrier's movements oldest first
func (r *GormMovementRepository) FindByCarrier(ctx context.Context, storeID, carrierID uuid.UUID, filter ledger.MovementFilter) ([]*ledger.Movement, error) {
	query := r.db.WithContext(ctx).
		Where("store_id = ? AND carrier_id = ?", storeID, carrierID)
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.DateFrom != nil {
		query = query.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("created_at <= ?", *filter.DateTo)
	}
	var ms []models.MovementModel
	if err := query.Order("created_at ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainMovements(ms), nil
}

// FindUnsettled returns receivable movements with outstanding amounts, oldest
// first. Payment application walks this list front to back.
func (r *GormMovementRepository) FindUnsettled(ctx context.Context, storeID, carrierID uuid.UUID) ([]*ledger.Movement, error) {
	receivableTypes := []ledger.MovementType{
		ledger.MovementTypeDeliveryCollected,
		ledger.MovementTypeSettlementPayable,
		ledger.MovementTypeAdjustmentCredit,
	}
	var ms []models.MovementModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND carrier_id = ? AND type IN ? AND is_settled = ?", storeID, carrierID, receivableTypes, false).
		Order("created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainMovements(ms), nil
}

// FindBySettlement returns the movements produced by one settlement
func (r *GormMovementRepository) FindBySettlement(ctx context.Context, storeID, settlementID uuid.UUID) ([]*ledger.Movement, error) {
	var ms []models.MovementModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND settlement_id = ?", storeID, settlementID).
		Order("created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainMovements(ms), nil
}

// SumByCarrier replays the signed amount sum in SQL
func (r *GormMovementRepository) SumByCarrier(ctx context.Context, storeID, carrierID uuid.UUID, from, to *time.Time) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Model(&models.MovementModel{}).
		Where("store_id = ? AND carrier_id = ?", storeID, carrierID)
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at <= ?", *to)
	}
	var sum decimal.NullDecimal
	if err := query.Select("SUM(amount)").Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// BalancesByStore returns the replayed balance per carrier for a store
func (r *GormMovementRepository) BalancesByStore(ctx context.Context, storeID uuid.UUID) ([]ledger.CarrierBalance, error) {
	var rows []struct {
		CarrierID     uuid.UUID
		Balance       decimal.Decimal
		MovementCount int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.MovementModel{}).
		Select("carrier_id, SUM(amount) AS balance, COUNT(*) AS movement_count").
		Where("store_id = ?", storeID).
		Group("carrier_id").
		Order("carrier_id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	balances := make([]ledger.CarrierBalance, 0, len(rows))
	for _, row := range rows {
		balances = append(balances, ledger.CarrierBalance{
			CarrierID:     row.CarrierID,
			Balance:       row.Balance,
			MovementCount: row.MovementCount,
		})
	}
	return balances, nil
}

// ApplySettlement increments a movement's settled amount by a conditional
// in-place update. The WHERE clause only matches while the outstanding amount
// still covers the increment, so a concurrent payment that got there first
// makes this one miss and roll back instead of silently over-applying.
func (r *GormMovementRepository) ApplySettlement(ctx context.Context, storeID, id uuid.UUID, amount decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&models.MovementModel{}).
		Where("store_id = ? AND id = ? AND amount - settled_amount >= CAST(? AS NUMERIC)", storeID, id, amount).
		Updates(map[string]any{
			"settled_amount": gorm.Expr("settled_amount + ?", amount),
			"is_settled":     gorm.Expr("settled_amount + ? >= amount", amount),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrPaymentOverApplied
	}
	return nil
}

// Delete removes a movement; only the audited backfill repair uses this
func (r *GormMovementRepository) Delete(ctx context.Context, storeID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("store_id = ? AND id = ?", storeID, id).
		Delete(&models.MovementModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toDomainMovements(ms []models.MovementModel) []*ledger.Movement {
	movements := make([]*ledger.Movement, 0, len(ms))
	for i := range ms {
		movements = append(movements, ms[i].ToDomain())
	}
	return movements
}

// Ensure GormMovementRepository implements ledger.MovementRepository
var _ ledger.MovementRepository = (*GormMovementRepository)(nil)
