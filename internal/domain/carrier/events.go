package carrier

import (
	"github.com/codledger/backend/internal/domain/shared"
)

// Event types for the carrier aggregate
const (
	EventTypeConfigUpdated = "carrier.config_updated"
)

// ConfigUpdatedEvent is raised when a carrier's settlement policy changes
type ConfigUpdatedEvent struct {
	shared.BaseDomainEvent
	CarrierName string `json:"carrier_name"`
	Config      Config `json:"config"`
}

// NewConfigUpdatedEvent creates a ConfigUpdatedEvent
func NewConfigUpdatedEvent(c *Carrier) *ConfigUpdatedEvent {
	return &ConfigUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeConfigUpdated, c.ID, "Carrier", c.StoreID),
		CarrierName:     c.Name,
		Config:          c.Config,
	}
}
