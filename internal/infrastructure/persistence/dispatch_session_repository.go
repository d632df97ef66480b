package persistence

import (
	"context"
	"errors"

	"github.com/codledger/backend/internal/domain/dispatch"
	"github.com/codledger/backend/internal/domain/shared"
	"github.com/codledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDispatchSessionRepository implements dispatch.Repository using GORM
type GormDispatchSessionRepository struct {
	db *gorm.DB
}

// NewGormDispatchSessionRepository creates a new GormDispatchSessionRepository
func NewGormDispatchSessionRepository(db *gorm.DB) *GormDispatchSessionRepository {
	return &GormDispatchSessionRepository{db: db}
}

// FindByID finds a session by ID within a store
func (r *GormDispatchSessionRepository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*dispatch.Session, error) {
	var m models.DispatchSessionModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND id = ?", storeID, id).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrSessionNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByCode finds a session by its document code within a store
func (r *GormDispatchSessionRepository) FindByCode(ctx context.Context, storeID uuid.UUID, code string) (*dispatch.Session, error) {
	var m models.DispatchSessionModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND code = ?", storeID, code).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrSessionNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindOpenByCarrier returns a carrier's non-terminal sessions
func (r *GormDispatchSessionRepository) FindOpenByCarrier(ctx context.Context, storeID, carrierID uuid.UUID) ([]*dispatch.Session, error) {
	var ms []models.DispatchSessionModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND carrier_id = ? AND status IN ?", storeID, carrierID,
			[]dispatch.SessionStatus{dispatch.SessionStatusOpen, dispatch.SessionStatusResultsImported}).
		Order("created_at DESC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainSessions(ms), nil
}

// List lists sessions with optional status filtering and pagination
func (r *GormDispatchSessionRepository) List(ctx context.Context, storeID uuid.UUID, status *dispatch.SessionStatus, page, pageSize int) ([]*dispatch.Session, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.DispatchSessionModel{}).
		Where("store_id = ?", storeID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.DispatchSessionModel
	offset := (page - 1) * pageSize
	if err := query.
		Order("created_at DESC").
		Offset(offset).Limit(pageSize).
		Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	return toDomainSessions(ms), total, nil
}

// Create persists a new session. A code collision surfaces as the retryable
// DUPLICATE_CODE conflict.
func (r *GormDispatchSessionRepository) Create(ctx context.Context, s *dispatch.Session) error {
	m := models.DispatchSessionModelFromDomain(s)
	err := r.db.WithContext(ctx).Create(m).Error
	return translateUniqueViolation(err, map[string]error{
		"idx_dispatch_sessions_code": errDuplicateCode,
		"dispatch_sessions.code":     errDuplicateCode,
	})
}

// Save updates an existing session
func (r *GormDispatchSessionRepository) Save(ctx context.Context, s *dispatch.Session) error {
	m := models.DispatchSessionModelFromDomain(s)
	return r.db.WithContext(ctx).Save(m).Error
}

func toDomainSessions(ms []models.DispatchSessionModel) []*dispatch.Session {
	sessions := make([]*dispatch.Session, 0, len(ms))
	for i := range ms {
		sessions = append(sessions, ms[i].ToDomain())
	}
	return sessions
}

// Ensure GormDispatchSessionRepository implements dispatch.Repository
var _ dispatch.Repository = (*GormDispatchSessionRepository)(nil)
