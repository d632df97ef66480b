package persistence

import (
	"context"
	"errors"

	"github.com/codledger/backend/internal/domain/ledger"
	"github.com/codledger/backend/internal/domain/shared"
	"github.com/codledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentRepository implements ledger.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create persists a new payment. A code collision surfaces as the retryable
// DUPLICATE_CODE conflict.
func (r *GormPaymentRepository) Create(ctx context.Context, p *ledger.Payment) error {
	m := models.PaymentModelFromDomain(p)
	err := r.db.WithContext(ctx).Create(m).Error
	return translateUniqueViolation(err, map[string]error{
		"idx_payments_code":     errDuplicateCode,
		"carrier_payments.code": errDuplicateCode,
	})
}

// FindByID finds a payment by ID within a store
func (r *GormPaymentRepository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*ledger.Payment, error) {
	var m models.PaymentModel
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

// FindByCode finds a payment by its document code within a store
func (r *GormPaymentRepository) FindByCode(ctx context.Context, storeID uuid.UUID, code string) (*ledger.Payment, error) {
	var m models.PaymentModel
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

// List lists payments, optionally narrowed to one carrier
func (r *GormPaymentRepository) List(ctx context.Context, storeID uuid.UUID, carrierID *uuid.UUID, page, pageSize int) ([]*ledger.Payment, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("store_id = ?", storeID)
	if carrierID != nil {
		query = query.Where("carrier_id = ?", *carrierID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.PaymentModel
	offset := (page - 1) * pageSize
	if err := query.
		Order("created_at DESC").
		Offset(offset).Limit(pageSize).
		Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	payments := make([]*ledger.Payment, 0, len(ms))
	for i := range ms {
		payments = append(payments, ms[i].ToDomain())
	}
	return payments, total, nil
}

// Ensure GormPaymentRepository implements ledger.PaymentRepository
var _ ledger.PaymentRepository = (*GormPaymentRepository)(nil)
