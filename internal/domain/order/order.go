package order

import (
	"time"

	"github.com/codledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the delivery/confirmation status of an order. Orders are created
// and mutated upstream (webhook ingestion, admin edits); the ledger only reads
// them and claims/releases them for dispatch.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusReturned  Status = "returned"
	StatusCancelled Status = "cancelled"
)

// IsValid returns true if the status is a known order status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusReturned, StatusCancelled:
		return true
	}
	return false
}

// IsDispatchEligible reports whether an order in this status can be handed to a carrier
func (s Status) IsDispatchEligible() bool {
	return s == StatusConfirmed
}

// IsReconciliationEligible reports whether an order in this status can appear
// in a delivery-based reconciliation
func (s Status) IsReconciliationEligible() bool {
	switch s {
	case StatusConfirmed, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

// Order is the ledger's read model of an upstream order
type Order struct {
	shared.BaseEntity
	StoreID           uuid.UUID
	Code              string
	CarrierID         *uuid.UUID
	Total             decimal.Decimal
	Status            Status
	DeliveredAt       *time.Time
	DispatchSessionID *uuid.UUID // set while the order belongs to an open dispatch session
}

// IsClaimed reports whether the order belongs to an open dispatch session
func (o *Order) IsClaimed() bool {
	return o.DispatchSessionID != nil
}

// DeliveryDate returns the order's delivery timestamp truncated to a calendar
// date in the given location. Grouping by store-local date keeps one business
// day from splitting across two groups around midnight UTC.
func (o *Order) DeliveryDate(loc *time.Location) (string, bool) {
	if o.DeliveredAt == nil {
		return "", false
	}
	return o.DeliveredAt.In(loc).Format("2006-01-02"), true
}
