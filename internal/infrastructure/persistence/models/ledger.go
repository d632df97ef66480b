package models

import (
	"database/sql/driver"

	"github.com/codledger/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementModel is the persistence model for one append-only ledger movement
type MovementModel struct {
	BaseModel
	StoreID       uuid.UUID           `gorm:"type:uuid;not null;index:idx_movements_store_carrier,priority:1"`
	CarrierID     uuid.UUID           `gorm:"type:uuid;not null;index:idx_movements_store_carrier,priority:2"`
	Type          ledger.MovementType `gorm:"type:varchar(30);not null;index"`
	Amount        decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Description   string              `gorm:"type:text"`
	OrderID       *uuid.UUID          `gorm:"type:uuid;index"`
	SettlementID  *uuid.UUID          `gorm:"type:uuid;index"`
	PaymentID     *uuid.UUID          `gorm:"type:uuid;index"`
	IsSettled     bool                `gorm:"not null;default:false;index"`
	SettledAmount decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	CreatedBy     *uuid.UUID          `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (MovementModel) TableName() string {
	return "ledger_movements"
}

// ToDomain converts the persistence model to a domain Movement
func (m *MovementModel) ToDomain() *ledger.Movement {
	return &ledger.Movement{
		BaseEntity:    m.BaseModel.ToDomain(),
		StoreID:       m.StoreID,
		CarrierID:     m.CarrierID,
		Type:          m.Type,
		Amount:        m.Amount,
		Description:   m.Description,
		OrderID:       m.OrderID,
		SettlementID:  m.SettlementID,
		PaymentID:     m.PaymentID,
		IsSettled:     m.IsSettled,
		SettledAmount: m.SettledAmount,
		CreatedBy:     m.CreatedBy,
	}
}

// FromDomain populates the persistence model from a domain Movement
func (m *MovementModel) FromDomain(mv *ledger.Movement) {
	m.FromDomainBaseEntity(mv.BaseEntity)
	m.StoreID = mv.StoreID
	m.CarrierID = mv.CarrierID
	m.Type = mv.Type
	m.Amount = mv.Amount
	m.Description = mv.Description
	m.OrderID = mv.OrderID
	m.SettlementID = mv.SettlementID
	m.PaymentID = mv.PaymentID
	m.IsSettled = mv.IsSettled
	m.SettledAmount = mv.SettledAmount
	m.CreatedBy = mv.CreatedBy
}

// MovementModelFromDomain creates a persistence model from a domain Movement
func MovementModelFromDomain(mv *ledger.Movement) *MovementModel {
	m := &MovementModel{}
	m.FromDomain(mv)
	return m
}

// ApplicationsJSON stores payment-to-movement applications as jsonb
type ApplicationsJSON []ledger.Application

// Value implements driver.Valuer
func (a ApplicationsJSON) Value() (driver.Value, error) {
	if a == nil {
		return jsonValue([]ledger.Application{})
	}
	return jsonValue([]ledger.Application(a))
}

// Scan implements sql.Scanner
func (a *ApplicationsJSON) Scan(src any) error {
	return jsonScan(src, (*[]ledger.Application)(a))
}

// PaymentModel is the persistence model for the Payment aggregate
type PaymentModel struct {
	StoreAggregateModel
	Code         string                  `gorm:"type:varchar(50);not null;uniqueIndex:idx_payments_code"`
	CarrierID    uuid.UUID               `gorm:"type:uuid;not null;index"`
	Amount       decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	Direction    ledger.PaymentDirection `gorm:"type:varchar(20);not null"`
	Method       ledger.PaymentMethod    `gorm:"type:varchar(20);not null"`
	Reference    string                  `gorm:"type:varchar(100)"`
	Notes        string                  `gorm:"type:text"`
	Applications ApplicationsJSON        `gorm:"type:jsonb;default:'[]'"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "carrier_payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *ledger.Payment {
	return &ledger.Payment{
		StoreAggregateRoot: m.ToDomainStoreAggregateRoot(),
		Code:               m.Code,
		CarrierID:          m.CarrierID,
		Amount:             m.Amount,
		Direction:          m.Direction,
		Method:             m.Method,
		Reference:          m.Reference,
		Notes:              m.Notes,
		Applications:       []ledger.Application(m.Applications),
	}
}

// FromDomain populates the persistence model from a domain Payment
func (m *PaymentModel) FromDomain(p *ledger.Payment) {
	m.FromDomainStoreAggregateRoot(p.StoreAggregateRoot)
	m.Code = p.Code
	m.CarrierID = p.CarrierID
	m.Amount = p.Amount
	m.Direction = p.Direction
	m.Method = p.Method
	m.Reference = p.Reference
	m.Notes = p.Notes
	m.Applications = ApplicationsJSON(p.Applications)
}

// PaymentModelFromDomain creates a persistence model from a domain Payment
func PaymentModelFromDomain(p *ledger.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}
