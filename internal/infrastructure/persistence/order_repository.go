package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/codledger/backend/internal/domain/order"
	"github.com/codledger/backend/internal/domain/shared"
	"github.com/codledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by ID within a store
func (r *GormOrderRepository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*order.Order, error) {
	var m models.OrderModel
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

// FindByIDs returns the orders for the given ids that belong to the store.
// Missing or foreign ids are absent from the result.
func (r *GormOrderRepository) FindByIDs(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) ([]*order.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var ms []models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND id IN ?", storeID, ids).
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(ms), nil
}

// FindDispatchEligible returns confirmed, unclaimed orders, optionally filtered by carrier
func (r *GormOrderRepository) FindDispatchEligible(ctx context.Context, storeID uuid.UUID, carrierID *uuid.UUID) ([]*order.Order, error) {
	var ms []models.OrderModel
	query := r.db.WithContext(ctx).
		Where("store_id = ? AND status = ? AND dispatch_session_id IS NULL", storeID, order.StatusConfirmed).
		Order("created_at ASC")
	if carrierID != nil {
		query = query.Where("carrier_id = ?", *carrierID)
	}
	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(ms), nil
}

// FindPendingReconciliation returns shipped or delivered orders not yet covered
// by any settlement line
func (r *GormOrderRepository) FindPendingReconciliation(ctx context.Context, storeID uuid.UUID) ([]*order.Order, error) {
	var ms []models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND status IN ?", storeID, []order.Status{order.StatusShipped, order.StatusDelivered}).
		Where("id NOT IN (?)", r.settledOrderIDsSubquery(storeID)).
		Order("delivered_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(ms), nil
}

// settledOrderIDsSubquery selects order ids referenced by a delivered
// settlement line. Failed-attempt lines settle nothing, so their orders stay
// pending. Lines live in jsonb; the subquery unpacks each element.
func (r *GormOrderRepository) settledOrderIDsSubquery(storeID uuid.UUID) *gorm.DB {
	if r.db.Dialector.Name() == "sqlite" {
		return r.db.
			Table("settlements, json_each(settlements.lines)").
			Select("json_extract(json_each.value, '$.order_id')").
			Where("settlements.store_id = ? AND json_extract(json_each.value, '$.delivered')", storeID)
	}
	return r.db.
		Table("settlements, jsonb_array_elements(settlements.lines) AS line").
		Select("(line->>'order_id')::uuid").
		Where("settlements.store_id = ? AND (line->>'delivered')::boolean", storeID)
}

// FindBySessionID returns the orders claimed by a dispatch session
func (r *GormOrderRepository) FindBySessionID(ctx context.Context, storeID, sessionID uuid.UUID) ([]*order.Order, error) {
	var ms []models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND dispatch_session_id = ?", storeID, sessionID).
		Order("created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(ms), nil
}

// ClaimForSession atomically stamps sessionID on every order in ids whose claim
// is still empty. Callers compare the returned count against len(ids) and roll
// back on a shortfall.
func (r *GormOrderRepository) ClaimForSession(ctx context.Context, storeID, sessionID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("store_id = ? AND id IN ? AND dispatch_session_id IS NULL", storeID, ids).
		Updates(map[string]any{
			"dispatch_session_id": sessionID,
			"updated_at":          time.Now(),
		})
	return result.RowsAffected, result.Error
}

// ReleaseSession clears the session claim from all orders of a session
func (r *GormOrderRepository) ReleaseSession(ctx context.Context, storeID, sessionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("store_id = ? AND dispatch_session_id = ?", storeID, sessionID).
		Updates(map[string]any{
			"dispatch_session_id": nil,
			"updated_at":          time.Now(),
		}).Error
}

// MarkOutcome records the carrier-reported delivery outcome for an order.
// Delivered orders move to delivered, failed attempts return to confirmed.
// The session claim stays until the session reaches a terminal state; the
// settlement still needs to see every claimed order.
func (r *GormOrderRepository) MarkOutcome(ctx context.Context, storeID, id uuid.UUID, delivered bool) error {
	now := time.Now()
	updates := map[string]any{"updated_at": now}
	if delivered {
		updates["status"] = order.StatusDelivered
		updates["delivered_at"] = now
	} else {
		updates["status"] = order.StatusConfirmed
	}
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("store_id = ? AND id = ?", storeID, id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toDomainOrders(ms []models.OrderModel) []*order.Order {
	orders := make([]*order.Order, 0, len(ms))
	for i := range ms {
		orders = append(orders, ms[i].ToDomain())
	}
	return orders
}

// Ensure GormOrderRepository implements order.Repository
var _ order.Repository = (*GormOrderRepository)(nil)
