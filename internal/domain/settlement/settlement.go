package settlement

import (
	"time"

	"github.com/codledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CodePrefix prefixes every settlement code
const CodePrefix = "ST"

// Status is the lifecycle state of a settlement
type Status string

const (
	// StatusPending means expected cash is computed but collected cash not yet recorded
	StatusPending Status = "pending"
	// StatusCompleted means collected cash is recorded and matches, or the
	// discrepancy was explicitly confirmed
	StatusCompleted Status = "completed"
	// StatusWithIssues means a discrepancy was detected and not confirmed.
	// The settlement still exists; reconciliation records truth, it is not a veto.
	StatusWithIssues Status = "with_issues"
)

// IsValid returns true if the status is a known settlement status
func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusCompleted || s == StatusWithIssues
}

// Source records which input adapter produced a settlement
type Source string

const (
	// SourceDispatchSession means the settlement came from a CSV/session workflow
	SourceDispatchSession Source = "dispatch_session"
	// SourceDeliveryReport means the settlement came from direct delivery-based reconciliation
	SourceDeliveryReport Source = "delivery_report"
)

// OrderLine links a settlement to one order it covers. The amount is
// snapshotted at settlement time; later order edits never change it.
type OrderLine struct {
	OrderID   uuid.UUID       `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	Delivered bool            `json:"delivered"`
}

// Settlement is the financial summary for one carrier over one date: expected
// versus collected cash and the resulting discrepancy. At most one settlement
// exists per (store, carrier, date); the database unique index enforces it.
type Settlement struct {
	shared.StoreAggregateRoot
	Code             string
	CarrierID        uuid.UUID
	SessionID        *uuid.UUID
	SettlementDate   time.Time // store-local calendar date, truncated
	Source           Source
	ExpectedCash     decimal.Decimal
	CollectedCash    decimal.Decimal
	NetReceivable    decimal.Decimal
	Status           Status
	DiscrepancyNotes string
	PaymentMethod    string
	PaymentReference string
	Lines            []OrderLine
}

// Difference returns collected minus expected cash
func (s *Settlement) Difference() decimal.Decimal {
	return s.CollectedCash.Sub(s.ExpectedCash)
}

// HasDiscrepancy reports whether collected and expected cash differ
func (s *Settlement) HasDiscrepancy() bool {
	return !s.Difference().IsZero()
}

// DeliveredCount returns how many lines were delivered
func (s *Settlement) DeliveredCount() int {
	n := 0
	for _, l := range s.Lines {
		if l.Delivered {
			n++
		}
	}
	return n
}

// RegenerateCode assigns a fresh settlement code after a uniqueness collision
func (s *Settlement) RegenerateCode() {
	s.Code = shared.NewDocumentCode(CodePrefix, time.Now())
}

// ConfirmDiscrepancy acknowledges a cash mismatch, completing the settlement.
// Requires a non-empty note so the confirmation is auditable.
func (s *Settlement) ConfirmDiscrepancy(notes string) error {
	if s.Status != StatusWithIssues {
		return shared.NewConflictError("NO_OPEN_DISCREPANCY", "Settlement has no unconfirmed discrepancy")
	}
	if notes == "" {
		return shared.NewValidationError("NOTES_REQUIRED", "Confirming a discrepancy requires a note")
	}
	s.Status = StatusCompleted
	s.DiscrepancyNotes = notes
	s.IncrementVersion()
	s.AddDomainEvent(NewDiscrepancyConfirmedEvent(s))
	return nil
}

// RecordPayment attaches payment metadata once the carrier has remitted
func (s *Settlement) RecordPayment(method, reference string) error {
	if s.Status == StatusPending {
		return shared.NewConflictError("NOT_COMPLETED", "Settlement must be completed before recording payment details")
	}
	s.PaymentMethod = method
	s.PaymentReference = reference
	s.IncrementVersion()
	return nil
}

// TruncateToDate normalizes a timestamp to midnight of its calendar date in
// the given location. All settlement uniqueness works on this value.
func TruncateToDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
