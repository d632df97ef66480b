package ledger

import (
	"time"

	"github.com/codledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentCodePrefix prefixes every carrier payment code
const PaymentCodePrefix = "PAY"

// PaymentDirection states which way the money moved
type PaymentDirection string

const (
	// DirectionFromCarrier means the carrier remitted collected cash to the store
	DirectionFromCarrier PaymentDirection = "from_carrier"
	// DirectionToCarrier means the store paid the carrier (fees, prepaid top-up)
	DirectionToCarrier PaymentDirection = "to_carrier"
)

// IsValid returns true if the direction is known
func (d PaymentDirection) IsValid() bool {
	return d == DirectionFromCarrier || d == DirectionToCarrier
}

// PaymentMethod is how the money was transferred
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCheque       PaymentMethod = "cheque"
	PaymentMethodMobileWallet PaymentMethod = "mobile_wallet"
)

// IsValid returns true if the payment method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCheque, PaymentMethodMobileWallet:
		return true
	}
	return false
}

// Application links a payment to a movement it (partially) cleared
type Application struct {
	MovementID uuid.UUID       `json:"movement_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// Payment records an actual money transfer between store and carrier and the
// movements it cleared.
type Payment struct {
	shared.StoreAggregateRoot
	Code         string
	CarrierID    uuid.UUID
	Amount       decimal.Decimal // always positive; Direction carries the sign
	Direction    PaymentDirection
	Method       PaymentMethod
	Reference    string
	Notes        string
	Applications []Application
}

// NewPayment creates a validated carrier payment
func NewPayment(storeID, carrierID uuid.UUID, amount decimal.Decimal, direction PaymentDirection, method PaymentMethod, createdBy uuid.UUID) (*Payment, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_STORE", "Store ID cannot be empty")
	}
	if carrierID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CARRIER", "Carrier ID cannot be empty")
	}
	if err := shared.ValidatePositiveAmount(amount); err != nil {
		return nil, err
	}
	if !direction.IsValid() {
		return nil, shared.NewValidationError("INVALID_DIRECTION", "Payment direction must be from_carrier or to_carrier")
	}
	if !method.IsValid() {
		return nil, shared.NewValidationError("INVALID_METHOD", "Unknown payment method")
	}
	return &Payment{
		StoreAggregateRoot: shared.NewStoreAggregateRootWithCreator(storeID, createdBy),
		Code:               shared.NewDocumentCode(PaymentCodePrefix, time.Now()),
		CarrierID:          carrierID,
		Amount:             amount,
		Direction:          direction,
		Method:             method,
	}, nil
}

// RegenerateCode assigns a fresh payment code after a uniqueness collision
func (p *Payment) RegenerateCode() {
	p.Code = shared.NewDocumentCode(PaymentCodePrefix, time.Now())
}

// SignedAmount returns the ledger effect of this payment: negative when the
// carrier pays the store (its debt shrinks), positive when the store pays the carrier.
func (p *Payment) SignedAmount() decimal.Decimal {
	if p.Direction == DirectionFromCarrier {
		return p.Amount.Neg()
	}
	return p.Amount
}

// Movement builds the payment_applied ledger movement for this payment
func (p *Payment) Movement() (*Movement, error) {
	m, err := NewMovement(p.StoreID, p.CarrierID, MovementTypePaymentApplied, p.SignedAmount())
	if err != nil {
		return nil, err
	}
	id := p.ID
	m.PaymentID = &id
	m.CreatedBy = p.CreatedBy
	m.Description = string(p.Direction)
	return m, nil
}
