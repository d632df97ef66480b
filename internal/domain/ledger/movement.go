package ledger

import (
	"github.com/codledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType classifies a carrier account movement.
//
// Sign convention, applied everywhere: a positive amount increases what the
// carrier owes the store (cash collected on the store's behalf), a negative
// amount decreases it (fees the store owes the carrier, payments received).
type MovementType string

const (
	// MovementTypeDeliveryCollected is the COD amount of one delivered order (positive)
	MovementTypeDeliveryCollected MovementType = "delivery_collected"
	// MovementTypeSettlementPayable is an aggregate per-settlement receivable (positive)
	MovementTypeSettlementPayable MovementType = "settlement_payable"
	// MovementTypeAdjustmentCredit is a manual correction increasing the carrier's payable (positive)
	MovementTypeAdjustmentCredit MovementType = "adjustment_credit"
	// MovementTypeAdjustmentDebit is a manual correction decreasing the carrier's payable (negative)
	MovementTypeAdjustmentDebit MovementType = "adjustment_debit"
	// MovementTypeFailedAttemptFee is a per-order fee for a failed delivery attempt (negative)
	MovementTypeFailedAttemptFee MovementType = "failed_attempt_fee"
	// MovementTypeCarrierFee is the carrier's percentage commission on a settlement (negative)
	MovementTypeCarrierFee MovementType = "carrier_fee"
	// MovementTypePaymentApplied records money actually transferred (negative for
	// payments from the carrier, positive for payouts to the carrier)
	MovementTypePaymentApplied MovementType = "payment_applied"
)

// IsValid returns true if the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeDeliveryCollected, MovementTypeSettlementPayable,
		MovementTypeAdjustmentCredit, MovementTypeAdjustmentDebit,
		MovementTypeFailedAttemptFee, MovementTypeCarrierFee, MovementTypePaymentApplied:
		return true
	}
	return false
}

// IsReceivable reports whether movements of this type carry an outstanding
// amount a payment can settle.
func (t MovementType) IsReceivable() bool {
	switch t {
	case MovementTypeDeliveryCollected, MovementTypeSettlementPayable, MovementTypeAdjustmentCredit:
		return true
	}
	return false
}

// Movement is one append-only signed ledger entry altering a carrier's balance.
// Movements are never mutated retroactively except by the audited backfill
// operation; payments mark them settled instead of deleting them.
type Movement struct {
	shared.BaseEntity
	StoreID       uuid.UUID
	CarrierID     uuid.UUID
	Type          MovementType
	Amount        decimal.Decimal // signed
	Description   string
	OrderID       *uuid.UUID
	SettlementID  *uuid.UUID
	PaymentID     *uuid.UUID
	IsSettled     bool
	SettledAmount decimal.Decimal // how much of a receivable has been cleared by payments
	CreatedBy     *uuid.UUID
}

// NewMovement creates a validated ledger movement
func NewMovement(storeID, carrierID uuid.UUID, movementType MovementType, amount decimal.Decimal) (*Movement, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_STORE", "Store ID cannot be empty")
	}
	if carrierID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CARRIER", "Carrier ID cannot be empty")
	}
	if !movementType.IsValid() {
		return nil, shared.NewValidationError("INVALID_MOVEMENT_TYPE", "Unknown movement type")
	}
	if amount.IsZero() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Movement amount cannot be zero")
	}
	if err := shared.ValidateAmount(amount.Abs()); err != nil {
		return nil, err
	}
	return &Movement{
		BaseEntity:    shared.NewBaseEntity(),
		StoreID:       storeID,
		CarrierID:     carrierID,
		Type:          movementType,
		Amount:        amount,
		SettledAmount: decimal.Zero,
	}, nil
}

// NewDeliveryCollected creates the positive movement for one delivered order
func NewDeliveryCollected(storeID, carrierID, orderID uuid.UUID, amount decimal.Decimal) (*Movement, error) {
	if err := shared.ValidatePositiveAmount(amount); err != nil {
		return nil, err
	}
	m, err := NewMovement(storeID, carrierID, MovementTypeDeliveryCollected, amount)
	if err != nil {
		return nil, err
	}
	m.OrderID = &orderID
	return m, nil
}

// NewFailedAttemptFee creates the negative movement for a failed delivery attempt fee
func NewFailedAttemptFee(storeID, carrierID, orderID uuid.UUID, fee decimal.Decimal) (*Movement, error) {
	if err := shared.ValidatePositiveAmount(fee); err != nil {
		return nil, err
	}
	m, err := NewMovement(storeID, carrierID, MovementTypeFailedAttemptFee, fee.Neg())
	if err != nil {
		return nil, err
	}
	m.OrderID = &orderID
	return m, nil
}

// NewCarrierFee creates the negative movement for a carrier's percentage commission
func NewCarrierFee(storeID, carrierID, settlementID uuid.UUID, fee decimal.Decimal) (*Movement, error) {
	if err := shared.ValidatePositiveAmount(fee); err != nil {
		return nil, err
	}
	m, err := NewMovement(storeID, carrierID, MovementTypeCarrierFee, fee.Neg())
	if err != nil {
		return nil, err
	}
	m.SettlementID = &settlementID
	return m, nil
}

// NewAdjustment creates a manual correction movement. Credit increases the
// carrier's payable to the store, debit decreases it. A non-empty description
// is required; adjustments must always be auditable.
func NewAdjustment(storeID, carrierID uuid.UUID, amount decimal.Decimal, credit bool, description string, createdBy uuid.UUID) (*Movement, error) {
	if description == "" {
		return nil, shared.NewValidationError("DESCRIPTION_REQUIRED", "Adjustments require a description")
	}
	if err := shared.ValidatePositiveAmount(amount); err != nil {
		return nil, err
	}
	movementType := MovementTypeAdjustmentCredit
	signed := amount
	if !credit {
		movementType = MovementTypeAdjustmentDebit
		signed = amount.Neg()
	}
	m, err := NewMovement(storeID, carrierID, movementType, signed)
	if err != nil {
		return nil, err
	}
	m.Description = description
	m.CreatedBy = &createdBy
	return m, nil
}

// Outstanding returns the unsettled part of a receivable movement
func (m *Movement) Outstanding() decimal.Decimal {
	if !m.Type.IsReceivable() {
		return decimal.Zero
	}
	return m.Amount.Sub(m.SettledAmount)
}

// ApplySettlement records that amount of this receivable has been cleared by a
// payment. The settled amount can never go negative or exceed the movement amount.
func (m *Movement) ApplySettlement(amount decimal.Decimal) error {
	if !m.Type.IsReceivable() {
		return shared.NewConflictError("NOT_RECEIVABLE", "Movement cannot be settled by a payment")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("INVALID_AMOUNT", "Settlement amount must be positive")
	}
	next := m.SettledAmount.Add(amount)
	if next.GreaterThan(m.Amount) {
		return shared.ErrPaymentOverApplied
	}
	m.SettledAmount = next
	m.IsSettled = next.Equal(m.Amount)
	return nil
}
