package settlement

import (
	"time"

	"github.com/codledger/backend/internal/domain/settlement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProcessSessionRequest turns an imported dispatch session into a settlement
type ProcessSessionRequest struct {
	SettlementDate     *time.Time `json:"settlement_date"`
	DiscrepancyNotes   string     `json:"discrepancy_notes"`
	ConfirmDiscrepancy bool       `json:"confirm_discrepancy"`
}

// ReconcileLine is one order in a delivery-based reconciliation
type ReconcileLine struct {
	OrderID   uuid.UUID `json:"order_id" binding:"required"`
	Delivered bool      `json:"delivered"`
}

// ReconcileRequest settles a set of orders directly from delivery data,
// without a dispatch session.
type ReconcileRequest struct {
	CarrierID          uuid.UUID       `json:"carrier_id" binding:"required"`
	SettlementDate     time.Time       `json:"settlement_date" binding:"required"`
	CollectedCash      decimal.Decimal `json:"collected_cash"`
	Lines              []ReconcileLine `json:"lines" binding:"required,min=1"`
	DiscrepancyNotes   string          `json:"discrepancy_notes"`
	ConfirmDiscrepancy bool            `json:"confirm_discrepancy"`
}

// ConfirmDiscrepancyRequest acknowledges a cash mismatch on a settlement
type ConfirmDiscrepancyRequest struct {
	Notes string `json:"notes" binding:"required"`
}

// RecordPaymentRequest attaches payment metadata to a completed settlement
type RecordPaymentRequest struct {
	PaymentMethod    string `json:"payment_method" binding:"required"`
	PaymentReference string `json:"payment_reference"`
}

// OrderLineResponse is one settled order line
type OrderLineResponse struct {
	OrderID   uuid.UUID       `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	Delivered bool            `json:"delivered"`
}

// SettlementResponse is the API shape of a settlement
type SettlementResponse struct {
	ID               uuid.UUID           `json:"id"`
	Code             string              `json:"code"`
	CarrierID        uuid.UUID           `json:"carrier_id"`
	SessionID        *uuid.UUID          `json:"session_id,omitempty"`
	SettlementDate   time.Time           `json:"settlement_date"`
	Source           string              `json:"source"`
	ExpectedCash     decimal.Decimal     `json:"expected_cash"`
	CollectedCash    decimal.Decimal     `json:"collected_cash"`
	Difference       decimal.Decimal     `json:"difference"`
	NetReceivable    decimal.Decimal     `json:"net_receivable"`
	Status           string              `json:"status"`
	DiscrepancyNotes string              `json:"discrepancy_notes,omitempty"`
	PaymentMethod    string              `json:"payment_method,omitempty"`
	PaymentReference string              `json:"payment_reference,omitempty"`
	Lines            []OrderLineResponse `json:"lines,omitempty"`
	Warnings         []string            `json:"warnings,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}

// ToSettlementResponse converts a settlement aggregate to its API shape
func ToSettlementResponse(s *settlement.Settlement) SettlementResponse {
	resp := SettlementResponse{
		ID:               s.ID,
		Code:             s.Code,
		CarrierID:        s.CarrierID,
		SessionID:        s.SessionID,
		SettlementDate:   s.SettlementDate,
		Source:           string(s.Source),
		ExpectedCash:     s.ExpectedCash,
		CollectedCash:    s.CollectedCash,
		Difference:       s.Difference(),
		NetReceivable:    s.NetReceivable,
		Status:           string(s.Status),
		DiscrepancyNotes: s.DiscrepancyNotes,
		PaymentMethod:    s.PaymentMethod,
		PaymentReference: s.PaymentReference,
		CreatedAt:        s.CreatedAt,
	}
	for _, l := range s.Lines {
		resp.Lines = append(resp.Lines, OrderLineResponse{OrderID: l.OrderID, Amount: l.Amount, Delivered: l.Delivered})
	}
	return resp
}

// ListFilter narrows settlement listings
type ListFilter struct {
	CarrierID *uuid.UUID `form:"carrier_id"`
	Status    *string    `form:"status"`
	DateFrom  *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo    *time.Time `form:"date_to" time_format:"2006-01-02"`
	Page      int        `form:"page"`
	PageSize  int        `form:"page_size"`
}
