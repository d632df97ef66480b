package models

import (
	"database/sql/driver"

	"github.com/codledger/backend/internal/domain/carrier"
)

// CarrierConfigJSON stores the per-carrier settlement policy as jsonb
type CarrierConfigJSON carrier.Config

// Value implements driver.Valuer
func (c CarrierConfigJSON) Value() (driver.Value, error) {
	return jsonValue(carrier.Config(c))
}

// Scan implements sql.Scanner
func (c *CarrierConfigJSON) Scan(src any) error {
	return jsonScan(src, (*carrier.Config)(c))
}

// CarrierModel is the persistence model for the Carrier aggregate root
type CarrierModel struct {
	StoreAggregateModel
	Name     string            `gorm:"type:varchar(200);not null"`
	Phone    string            `gorm:"type:varchar(50)"`
	IsActive bool              `gorm:"not null;default:true;index"`
	Config   CarrierConfigJSON `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (CarrierModel) TableName() string {
	return "carriers"
}

// ToDomain converts the persistence model to a domain Carrier
func (m *CarrierModel) ToDomain() *carrier.Carrier {
	return &carrier.Carrier{
		StoreAggregateRoot: m.ToDomainStoreAggregateRoot(),
		Name:               m.Name,
		Phone:              m.Phone,
		IsActive:           m.IsActive,
		Config:             carrier.Config(m.Config),
	}
}

// FromDomain populates the persistence model from a domain Carrier
func (m *CarrierModel) FromDomain(c *carrier.Carrier) {
	m.FromDomainStoreAggregateRoot(c.StoreAggregateRoot)
	m.Name = c.Name
	m.Phone = c.Phone
	m.IsActive = c.IsActive
	m.Config = CarrierConfigJSON(c.Config)
}

// CarrierModelFromDomain creates a persistence model from a domain Carrier
func CarrierModelFromDomain(c *carrier.Carrier) *CarrierModel {
	m := &CarrierModel{}
	m.FromDomain(c)
	return m
}
