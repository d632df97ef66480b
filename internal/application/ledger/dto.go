package ledger

import (
	"time"

	"github.com/codledger/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CarrierBalanceResponse is one carrier's replayed balance. A positive balance
// means the carrier owes the store.
type CarrierBalanceResponse struct {
	CarrierID     uuid.UUID       `json:"carrier_id"`
	CarrierName   string          `json:"carrier_name,omitempty"`
	Balance       decimal.Decimal `json:"balance"`
	MovementCount int64           `json:"movement_count"`
}

// MovementResponse is the API shape of one ledger movement
type MovementResponse struct {
	ID            uuid.UUID       `json:"id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description,omitempty"`
	OrderID       *uuid.UUID      `json:"order_id,omitempty"`
	SettlementID  *uuid.UUID      `json:"settlement_id,omitempty"`
	PaymentID     *uuid.UUID      `json:"payment_id,omitempty"`
	IsSettled     bool            `json:"is_settled"`
	SettledAmount decimal.Decimal `json:"settled_amount"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToMovementResponse converts a movement to its API shape
func ToMovementResponse(m *ledger.Movement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		Type:          string(m.Type),
		Amount:        m.Amount,
		Description:   m.Description,
		OrderID:       m.OrderID,
		SettlementID:  m.SettlementID,
		PaymentID:     m.PaymentID,
		IsSettled:     m.IsSettled,
		SettledAmount: m.SettledAmount,
		Outstanding:   m.Outstanding(),
		CreatedAt:     m.CreatedAt,
	}
}

// StatementResponse is a carrier's movement history with its running balance
type StatementResponse struct {
	CarrierID uuid.UUID          `json:"carrier_id"`
	Balance   decimal.Decimal    `json:"balance"`
	Movements []MovementResponse `json:"movements"`
}

// MovementListFilter narrows a carrier statement
type MovementListFilter struct {
	Type     *string    `form:"type"`
	DateFrom *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo   *time.Time `form:"date_to" time_format:"2006-01-02"`
}

// AdjustmentRequest creates a manual ledger correction
type AdjustmentRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Credit      bool            `json:"credit"`
	Description string          `json:"description" binding:"required"`
}

// UnsettledResponse lists a carrier's open receivable movements
type UnsettledResponse struct {
	CarrierID   uuid.UUID          `json:"carrier_id"`
	Outstanding decimal.Decimal    `json:"outstanding"`
	Movements   []MovementResponse `json:"movements"`
}

// HealthReport is the store-wide ledger health verdict
type HealthReport struct {
	Status   string                    `json:"status"`
	Carriers []ledger.CarrierDiagnosis `json:"carriers"`
}

// BackfillRequest runs a ledger repair, dry-run by default
type BackfillRequest struct {
	CarrierID *uuid.UUID `json:"carrier_id"`
	DryRun    bool       `json:"dry_run"`
}

// BackfillCarrierReport is the repair plan or outcome for one carrier
type BackfillCarrierReport struct {
	CarrierID      uuid.UUID       `json:"carrier_id"`
	MissingCount   int             `json:"missing_count"`
	DuplicateCount int             `json:"duplicate_count"`
	BalanceDelta   decimal.Decimal `json:"balance_delta"`
}

// BackfillReport summarizes a backfill run across carriers
type BackfillReport struct {
	DryRun   bool                    `json:"dry_run"`
	Applied  bool                    `json:"applied"`
	Carriers []BackfillCarrierReport `json:"carriers"`
}

// RegisterPaymentRequest records a money transfer between store and carrier.
// SettlementIDs and MovementIDs optionally restrict a from_carrier payment to
// the named receivables; left empty the payment runs against the carrier's
// whole unsettled set.
type RegisterPaymentRequest struct {
	CarrierID      uuid.UUID       `json:"carrier_id" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Direction      string          `json:"direction" binding:"required"`
	Method         string          `json:"method" binding:"required"`
	Reference      string          `json:"reference"`
	Notes          string          `json:"notes"`
	SettlementIDs  []uuid.UUID     `json:"settlement_ids"`
	MovementIDs    []uuid.UUID     `json:"movement_ids"`
	IdempotencyKey string          `json:"-"`
}

// PaymentApplicationResponse is one movement a payment cleared
type PaymentApplicationResponse struct {
	MovementID uuid.UUID       `json:"movement_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// PaymentResponse is the API shape of a carrier payment
type PaymentResponse struct {
	ID           uuid.UUID                    `json:"id"`
	Code         string                       `json:"code"`
	CarrierID    uuid.UUID                    `json:"carrier_id"`
	Amount       decimal.Decimal              `json:"amount"`
	Direction    string                       `json:"direction"`
	Method       string                       `json:"method"`
	Reference    string                       `json:"reference,omitempty"`
	Notes        string                       `json:"notes,omitempty"`
	Applications []PaymentApplicationResponse `json:"applications,omitempty"`
	CreatedAt    time.Time                    `json:"created_at"`
}

// ToPaymentResponse converts a payment to its API shape
func ToPaymentResponse(p *ledger.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:        p.ID,
		Code:      p.Code,
		CarrierID: p.CarrierID,
		Amount:    p.Amount,
		Direction: string(p.Direction),
		Method:    string(p.Method),
		Reference: p.Reference,
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
	}
	for _, a := range p.Applications {
		resp.Applications = append(resp.Applications, PaymentApplicationResponse{MovementID: a.MovementID, Amount: a.Amount})
	}
	return resp
}
