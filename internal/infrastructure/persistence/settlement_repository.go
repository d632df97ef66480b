package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/codledger/backend/internal/domain/ledger"
	"github.com/codledger/backend/internal/domain/settlement"
	"github.com/codledger/backend/internal/domain/shared"
	"github.com/codledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSettlementRepository implements settlement.Repository using GORM
type GormSettlementRepository struct {
	db *gorm.DB
}

// NewGormSettlementRepository creates a new GormSettlementRepository
func NewGormSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db}
}

// Create persists a settlement with its order lines. The (store, carrier,
// date) unique index turns concurrent duplicates into
// shared.ErrDuplicateSettlement; a code collision becomes the retryable
// DUPLICATE_CODE conflict.
func (r *GormSettlementRepository) Create(ctx context.Context, s *settlement.Settlement) error {
	m := models.SettlementModelFromDomain(s)
	err := r.db.WithContext(ctx).Create(m).Error
	return translateUniqueViolation(err, map[string]error{
		"idx_settlements_store_carrier_date": shared.ErrDuplicateSettlement,
		"settlement_date":                    shared.ErrDuplicateSettlement,
		"idx_settlements_code":               errDuplicateCode,
		"settlements.code":                   errDuplicateCode,
	})
}

// FindByID finds a settlement by ID within a store
func (r *GormSettlementRepository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*settlement.Settlement, error) {
	var m models.SettlementModel
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

// FindByCode finds a settlement by its document code within a store
func (r *GormSettlementRepository) FindByCode(ctx context.Context, storeID uuid.UUID, code string) (*settlement.Settlement, error) {
	var m models.SettlementModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND code = ?", storeID, code).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByCarrierAndDate finds the settlement for one carrier on one date
func (r *GormSettlementRepository) FindByCarrierAndDate(ctx context.Context, storeID, carrierID uuid.UUID, date time.Time) (*settlement.Settlement, error) {
	var m models.SettlementModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND carrier_id = ? AND settlement_date = ?", storeID, carrierID, date).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// List lists settlements with filtering and pagination
func (r *GormSettlementRepository) List(ctx context.Context, storeID uuid.UUID, filter settlement.ListFilter) ([]*settlement.Settlement, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.SettlementModel{}).
		Where("store_id = ?", storeID)
	if filter.CarrierID != nil {
		query = query.Where("carrier_id = ?", *filter.CarrierID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.DateFrom != nil {
		query = query.Where("settlement_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("settlement_date <= ?", *filter.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.SettlementModel
	offset := (filter.Page - 1) * filter.PageSize
	if err := query.
		Order("settlement_date DESC, created_at DESC").
		Offset(offset).Limit(filter.PageSize).
		Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	settlements := make([]*settlement.Settlement, 0, len(ms))
	for i := range ms {
		settlements = append(settlements, ms[i].ToDomain())
	}
	return settlements, total, nil
}

// Save updates an existing settlement
func (r *GormSettlementRepository) Save(ctx context.Context, s *settlement.Settlement) error {
	m := models.SettlementModelFromDomain(s)
	return r.db.WithContext(ctx).Save(m).Error
}

// ExpectedOrderMovements derives, from settlement history, the delivery
// movements the ledger should contain: one per delivered line, at the
// snapshotted amount. Lines live in jsonb, so the rows are loaded and the
// lines unpacked in memory; settlement volume is per-carrier-per-day and
// stays small.
func (r *GormSettlementRepository) ExpectedOrderMovements(ctx context.Context, storeID uuid.UUID, carrierID *uuid.UUID) ([]ledger.ExpectedOrderMovement, error) {
	query := r.db.WithContext(ctx).
		Model(&models.SettlementModel{}).
		Where("store_id = ?", storeID)
	if carrierID != nil {
		query = query.Where("carrier_id = ?", *carrierID)
	}
	var ms []models.SettlementModel
	if err := query.Order("settlement_date ASC, created_at ASC").Find(&ms).Error; err != nil {
		return nil, err
	}

	var expected []ledger.ExpectedOrderMovement
	for i := range ms {
		for _, line := range ms[i].Lines {
			if !line.Delivered {
				continue
			}
			expected = append(expected, ledger.ExpectedOrderMovement{
				OrderID:      line.OrderID,
				CarrierID:    ms[i].CarrierID,
				SettlementID: ms[i].ID,
				Amount:       line.Amount,
			})
		}
	}
	return expected, nil
}

// SettledOrderIDs returns the ids of orders covered by a delivered settlement
// line. A failed-attempt line settles nothing; its order goes out again and
// must stay eligible for a later reconciliation.
func (r *GormSettlementRepository) SettledOrderIDs(ctx context.Context, storeID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	var ms []models.SettlementModel
	if err := r.db.WithContext(ctx).
		Select("id", "lines").
		Where("store_id = ?", storeID).
		Find(&ms).Error; err != nil {
		return nil, err
	}
	ids := make(map[uuid.UUID]struct{})
	for i := range ms {
		for _, line := range ms[i].Lines {
			if !line.Delivered {
				continue
			}
			ids[line.OrderID] = struct{}{}
		}
	}
	return ids, nil
}

// Ensure GormSettlementRepository implements settlement.Repository
var _ settlement.Repository = (*GormSettlementRepository)(nil)
