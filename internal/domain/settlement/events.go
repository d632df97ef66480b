package settlement

import (
	"github.com/codledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types for the settlement aggregate
const (
	EventTypeSettlementCreated    = "settlement.created"
	EventTypeDiscrepancyConfirmed = "settlement.discrepancy_confirmed"
)

// SettlementCreatedEvent is raised when a settlement is produced by either workflow
type SettlementCreatedEvent struct {
	shared.BaseDomainEvent
	SettlementCode string          `json:"settlement_code"`
	CarrierID      uuid.UUID       `json:"carrier_id"`
	Source         Source          `json:"source"`
	ExpectedCash   decimal.Decimal `json:"expected_cash"`
	CollectedCash  decimal.Decimal `json:"collected_cash"`
	Status         Status          `json:"status"`
}

// NewSettlementCreatedEvent creates a SettlementCreatedEvent
func NewSettlementCreatedEvent(s *Settlement) *SettlementCreatedEvent {
	return &SettlementCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSettlementCreated, s.ID, "Settlement", s.StoreID),
		SettlementCode:  s.Code,
		CarrierID:       s.CarrierID,
		Source:          s.Source,
		ExpectedCash:    s.ExpectedCash,
		CollectedCash:   s.CollectedCash,
		Status:          s.Status,
	}
}

// DiscrepancyConfirmedEvent is raised when an operator confirms a cash mismatch
type DiscrepancyConfirmedEvent struct {
	shared.BaseDomainEvent
	SettlementCode string          `json:"settlement_code"`
	Difference     decimal.Decimal `json:"difference"`
}

// NewDiscrepancyConfirmedEvent creates a DiscrepancyConfirmedEvent
func NewDiscrepancyConfirmedEvent(s *Settlement) *DiscrepancyConfirmedEvent {
	return &DiscrepancyConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDiscrepancyConfirmed, s.ID, "Settlement", s.StoreID),
		SettlementCode:  s.Code,
		Difference:      s.Difference(),
	}
}
