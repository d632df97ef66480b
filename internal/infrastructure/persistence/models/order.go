package models

import (
	"time"

	"github.com/codledger/backend/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the order read model. Orders are
// written upstream; the ledger claims them for dispatch and stamps outcomes.
type OrderModel struct {
	BaseModel
	StoreID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_orders_store_code,priority:1"`
	Code              string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_orders_store_code,priority:2"`
	CarrierID         *uuid.UUID      `gorm:"type:uuid;index"`
	Total             decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Status            order.Status    `gorm:"type:varchar(20);not null;index"`
	DeliveredAt       *time.Time      `gorm:"index"`
	DispatchSessionID *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	return &order.Order{
		BaseEntity:        m.BaseModel.ToDomain(),
		StoreID:           m.StoreID,
		Code:              m.Code,
		CarrierID:         m.CarrierID,
		Total:             m.Total,
		Status:            m.Status,
		DeliveredAt:       m.DeliveredAt,
		DispatchSessionID: m.DispatchSessionID,
	}
}

// FromDomain populates the persistence model from a domain Order
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.StoreID = o.StoreID
	m.Code = o.Code
	m.CarrierID = o.CarrierID
	m.Total = o.Total
	m.Status = o.Status
	m.DeliveredAt = o.DeliveredAt
	m.DispatchSessionID = o.DispatchSessionID
}

// OrderModelFromDomain creates a persistence model from a domain Order
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}
