package models

import (
	"database/sql/driver"

	"github.com/codledger/backend/internal/domain/dispatch"
	"github.com/google/uuid"
)

// SessionResultsJSON stores per-order delivery outcomes as jsonb
type SessionResultsJSON []dispatch.Result

// Value implements driver.Valuer
func (r SessionResultsJSON) Value() (driver.Value, error) {
	if r == nil {
		return jsonValue([]dispatch.Result{})
	}
	return jsonValue([]dispatch.Result(r))
}

// Scan implements sql.Scanner
func (r *SessionResultsJSON) Scan(src any) error {
	return jsonScan(src, (*[]dispatch.Result)(r))
}

// DispatchSessionModel is the persistence model for the dispatch Session aggregate
type DispatchSessionModel struct {
	StoreAggregateModel
	Code       string                 `gorm:"type:varchar(50);not null;uniqueIndex:idx_dispatch_sessions_code"`
	CarrierID  uuid.UUID              `gorm:"type:uuid;not null;index"`
	Status     dispatch.SessionStatus `gorm:"type:varchar(20);not null;index"`
	OrderCount int                    `gorm:"not null"`
	Results    SessionResultsJSON     `gorm:"type:jsonb;default:'[]'"`
}

// TableName returns the table name for GORM
func (DispatchSessionModel) TableName() string {
	return "dispatch_sessions"
}

// ToDomain converts the persistence model to a domain Session
func (m *DispatchSessionModel) ToDomain() *dispatch.Session {
	return &dispatch.Session{
		StoreAggregateRoot: m.ToDomainStoreAggregateRoot(),
		Code:               m.Code,
		CarrierID:          m.CarrierID,
		Status:             m.Status,
		OrderCount:         m.OrderCount,
		Results:            []dispatch.Result(m.Results),
	}
}

// FromDomain populates the persistence model from a domain Session
func (m *DispatchSessionModel) FromDomain(s *dispatch.Session) {
	m.FromDomainStoreAggregateRoot(s.StoreAggregateRoot)
	m.Code = s.Code
	m.CarrierID = s.CarrierID
	m.Status = s.Status
	m.OrderCount = s.OrderCount
	m.Results = SessionResultsJSON(s.Results)
}

// DispatchSessionModelFromDomain creates a persistence model from a domain Session
func DispatchSessionModelFromDomain(s *dispatch.Session) *DispatchSessionModel {
	m := &DispatchSessionModel{}
	m.FromDomain(s)
	return m
}
