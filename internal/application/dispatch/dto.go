package dispatch

import (
	"time"

	"github.com/codledger/backend/internal/domain/dispatch"
	"github.com/codledger/backend/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EligibleOrderResponse is one order that can be handed to a carrier
type EligibleOrderResponse struct {
	ID        uuid.UUID       `json:"id"`
	Code      string          `json:"code"`
	CarrierID *uuid.UUID      `json:"carrier_id,omitempty"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
}

// ToEligibleOrderResponse converts an order to its dispatch listing shape
func ToEligibleOrderResponse(o *order.Order) EligibleOrderResponse {
	return EligibleOrderResponse{
		ID:        o.ID,
		Code:      o.Code,
		CarrierID: o.CarrierID,
		Total:     o.Total,
		Status:    string(o.Status),
	}
}

// ReconciliationGroup is one (carrier, delivery date) bucket of orders awaiting
// settlement, the unit a delivery-based reconciliation acts on. Orders shipped
// but not yet reported delivered have no delivery date; they surface as one
// awaiting-delivery group per carrier.
type ReconciliationGroup struct {
	CarrierID        uuid.UUID               `json:"carrier_id"`
	DeliveryDate     string                  `json:"delivery_date,omitempty"`
	AwaitingDelivery bool                    `json:"awaiting_delivery,omitempty"`
	OrderCount       int                     `json:"order_count"`
	ExpectedCash     decimal.Decimal         `json:"expected_cash"`
	Orders           []EligibleOrderResponse `json:"orders"`
}

// CreateSessionRequest opens a dispatch session over a set of orders
type CreateSessionRequest struct {
	CarrierID uuid.UUID   `json:"carrier_id" binding:"required"`
	OrderIDs  []uuid.UUID `json:"order_ids" binding:"required,min=1"`
}

// ResultRow is one delivery outcome submitted for an order in a session
type ResultRow struct {
	OrderID         uuid.UUID       `json:"order_id"`
	OrderCode       string          `json:"order_code"`
	Delivered       bool            `json:"delivered"`
	CollectedAmount decimal.Decimal `json:"collected_amount"`
}

// ImportResultsRequest records delivery outcomes for a session
type ImportResultsRequest struct {
	Results []ResultRow `json:"results" binding:"required,min=1"`
}

// RowError reports why one submitted row was skipped
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportReport summarizes a results import: valid rows are applied even when
// others fail, so callers can fix and resubmit only the rejected rows.
type ImportReport struct {
	Session  SessionResponse `json:"session"`
	Imported int             `json:"imported"`
	Skipped  []RowError      `json:"skipped,omitempty"`
}

// SessionResultResponse is one recorded outcome in a session response
type SessionResultResponse struct {
	OrderID         uuid.UUID       `json:"order_id"`
	Delivered       bool            `json:"delivered"`
	CollectedAmount decimal.Decimal `json:"collected_amount"`
	RecordedAt      time.Time       `json:"recorded_at"`
}

// SessionResponse is the API shape of a dispatch session
type SessionResponse struct {
	ID             uuid.UUID               `json:"id"`
	Code           string                  `json:"code"`
	CarrierID      uuid.UUID               `json:"carrier_id"`
	Status         string                  `json:"status"`
	OrderCount     int                     `json:"order_count"`
	DeliveredCount int                     `json:"delivered_count"`
	CollectedTotal decimal.Decimal         `json:"collected_total"`
	Results        []SessionResultResponse `json:"results,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

// ToSessionResponse converts a session aggregate to its API shape
func ToSessionResponse(s *dispatch.Session) SessionResponse {
	resp := SessionResponse{
		ID:             s.ID,
		Code:           s.Code,
		CarrierID:      s.CarrierID,
		Status:         string(s.Status),
		OrderCount:     s.OrderCount,
		DeliveredCount: s.DeliveredCount(),
		CollectedTotal: s.CollectedTotal(),
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
	for _, r := range s.Results {
		resp.Results = append(resp.Results, SessionResultResponse{
			OrderID:         r.OrderID,
			Delivered:       r.Delivered,
			CollectedAmount: r.CollectedAmount,
			RecordedAt:      r.RecordedAt,
		})
	}
	return resp
}

// SessionListFilter narrows session listings
type SessionListFilter struct {
	Status   *string `form:"status"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}

// ExportFile is a generated session export ready to stream or archive
type ExportFile struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"-"`
	ArchiveURL  string `json:"archive_url,omitempty"`
}
