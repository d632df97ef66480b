package models

import (
	"database/sql/driver"
	"time"

	"github.com/codledger/backend/internal/domain/settlement"
	"github.com/codledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLinesJSON stores snapshotted settlement order lines as jsonb
type OrderLinesJSON []settlement.OrderLine

// Value implements driver.Valuer
func (l OrderLinesJSON) Value() (driver.Value, error) {
	if l == nil {
		return jsonValue([]settlement.OrderLine{})
	}
	return jsonValue([]settlement.OrderLine(l))
}

// Scan implements sql.Scanner
func (l *OrderLinesJSON) Scan(src any) error {
	return jsonScan(src, (*[]settlement.OrderLine)(l))
}

// SettlementModel is the persistence model for the Settlement aggregate.
// The unique index on (store_id, carrier_id, settlement_date) enforces at
// most one settlement per store per carrier per date. StoreID and CreatedBy
// are declared inline rather than through StoreAggregateModel so store_id
// can join the composite index.
type SettlementModel struct {
	AggregateModel
	StoreID          uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_settlements_store_carrier_date,priority:1"`
	CreatedBy        *uuid.UUID        `gorm:"type:uuid;index"`
	Code             string            `gorm:"type:varchar(50);not null;uniqueIndex:idx_settlements_code"`
	CarrierID        uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_settlements_store_carrier_date,priority:2"`
	SessionID        *uuid.UUID        `gorm:"type:uuid;index"`
	SettlementDate   time.Time         `gorm:"not null;uniqueIndex:idx_settlements_store_carrier_date,priority:3"`
	Source           settlement.Source `gorm:"type:varchar(30);not null"`
	ExpectedCash     decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	CollectedCash    decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	NetReceivable    decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Status           settlement.Status `gorm:"type:varchar(20);not null;index"`
	DiscrepancyNotes string            `gorm:"type:text"`
	PaymentMethod    string            `gorm:"type:varchar(30)"`
	PaymentReference string            `gorm:"type:varchar(100)"`
	Lines            OrderLinesJSON    `gorm:"type:jsonb;default:'[]'"`
}

// TableName returns the table name for GORM
func (SettlementModel) TableName() string {
	return "settlements"
}

// ToDomain converts the persistence model to a domain Settlement
func (m *SettlementModel) ToDomain() *settlement.Settlement {
	return &settlement.Settlement{
		StoreAggregateRoot: shared.StoreAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: m.BaseModel.ToDomain(),
				Version:    m.Version,
			},
			StoreID:   m.StoreID,
			CreatedBy: m.CreatedBy,
		},
		Code:               m.Code,
		CarrierID:          m.CarrierID,
		SessionID:          m.SessionID,
		SettlementDate:     m.SettlementDate,
		Source:             m.Source,
		ExpectedCash:       m.ExpectedCash,
		CollectedCash:      m.CollectedCash,
		NetReceivable:      m.NetReceivable,
		Status:             m.Status,
		DiscrepancyNotes:   m.DiscrepancyNotes,
		PaymentMethod:      m.PaymentMethod,
		PaymentReference:   m.PaymentReference,
		Lines:              []settlement.OrderLine(m.Lines),
	}
}

// FromDomain populates the persistence model from a domain Settlement
func (m *SettlementModel) FromDomain(s *settlement.Settlement) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.StoreID = s.StoreID
	m.CreatedBy = s.CreatedBy
	m.Code = s.Code
	m.CarrierID = s.CarrierID
	m.SessionID = s.SessionID
	m.SettlementDate = s.SettlementDate
	m.Source = s.Source
	m.ExpectedCash = s.ExpectedCash
	m.CollectedCash = s.CollectedCash
	m.NetReceivable = s.NetReceivable
	m.Status = s.Status
	m.DiscrepancyNotes = s.DiscrepancyNotes
	m.PaymentMethod = s.PaymentMethod
	m.PaymentReference = s.PaymentReference
	m.Lines = OrderLinesJSON(s.Lines)
}

// SettlementModelFromDomain creates a persistence model from a domain Settlement
func SettlementModelFromDomain(s *settlement.Settlement) *SettlementModel {
	m := &SettlementModel{}
	m.FromDomain(s)
	return m
}
