package persistence

import (
	"context"
	"errors"

	"github.com/codledger/backend/internal/domain/carrier"
	"github.com/codledger/backend/internal/domain/shared"
	"github.com/codledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCarrierRepository implements carrier.Repository using GORM
type GormCarrierRepository struct {
	db *gorm.DB
}

// NewGormCarrierRepository creates a new GormCarrierRepository
func NewGormCarrierRepository(db *gorm.DB) *GormCarrierRepository {
	return &GormCarrierRepository{db: db}
}

// FindByID finds a carrier by ID within a store
func (r *GormCarrierRepository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*carrier.Carrier, error) {
	var m models.CarrierModel
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

// FindAll finds all carriers for a store, optionally only active ones
func (r *GormCarrierRepository) FindAll(ctx context.Context, storeID uuid.UUID, activeOnly bool) ([]*carrier.Carrier, error) {
	var ms []models.CarrierModel
	query := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}
	carriers := make([]*carrier.Carrier, 0, len(ms))
	for i := range ms {
		carriers = append(carriers, ms[i].ToDomain())
	}
	return carriers, nil
}

// Save creates or updates a carrier
func (r *GormCarrierRepository) Save(ctx context.Context, c *carrier.Carrier) error {
	m := models.CarrierModelFromDomain(c)
	return r.db.WithContext(ctx).Save(m).Error
}

// Ensure GormCarrierRepository implements carrier.Repository
var _ carrier.Repository = (*GormCarrierRepository)(nil)
