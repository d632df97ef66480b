package settlement

import (
	"fmt"
	"time"

	"github.com/codledger/backend/internal/domain/carrier"
	"github.com/codledger/backend/internal/domain/ledger"
	"github.com/codledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DraftLine is one order in a settlement draft, with its amount snapshotted
type DraftLine struct {
	OrderID   uuid.UUID
	Amount    decimal.Decimal
	Delivered bool
}

// Draft is the single internal value both input adapters produce: the
// CSV/session workflow and the delivery-based reconciliation both reduce to a
// Draft, and one computation turns a Draft into a settlement plus its ledger
// movements. This keeps the ledger-writing logic in exactly one place.
type Draft struct {
	StoreID            uuid.UUID
	CarrierID          uuid.UUID
	CreatedBy          uuid.UUID
	SessionID          *uuid.UUID
	SettlementDate     time.Time
	Source             Source
	Lines              []DraftLine
	CollectedCash      decimal.Decimal
	DiscrepancyNotes   string
	ConfirmDiscrepancy bool
}

// ComputationResult bundles everything settlement processing must persist in
// one transaction: the settlement, its movements, and non-fatal warnings.
type ComputationResult struct {
	Settlement *Settlement
	Movements  []*ledger.Movement
	Warnings   []string
}

// Validate checks the draft before any computation
func (d *Draft) Validate() error {
	if d.StoreID == uuid.Nil {
		return shared.NewValidationError("INVALID_STORE", "Store ID cannot be empty")
	}
	if d.CarrierID == uuid.Nil {
		return shared.NewValidationError("INVALID_CARRIER", "Carrier ID cannot be empty")
	}
	if len(d.Lines) == 0 {
		return shared.NewValidationError("EMPTY_SETTLEMENT", "A settlement needs at least one order line")
	}
	if d.SettlementDate.IsZero() {
		return shared.NewValidationError("INVALID_DATE", "Settlement date is required")
	}
	if err := shared.ValidateAmount(d.CollectedCash); err != nil {
		return err
	}
	if len(d.DiscrepancyNotes) > 1000 {
		return shared.NewValidationError("NOTES_TOO_LONG", "Discrepancy notes cannot exceed 1000 characters")
	}
	seen := make(map[uuid.UUID]struct{}, len(d.Lines))
	for _, l := range d.Lines {
		if l.OrderID == uuid.Nil {
			return shared.NewValidationError("INVALID_ORDER", "Order ID cannot be empty")
		}
		if _, dup := seen[l.OrderID]; dup {
			return shared.NewValidationError("DUPLICATE_ORDER", fmt.Sprintf("Order %s appears twice in the settlement", l.OrderID))
		}
		seen[l.OrderID] = struct{}{}
		if err := shared.ValidateAmount(l.Amount); err != nil {
			return err
		}
	}
	return nil
}

// Compute turns the draft into a settlement record and its ledger movements
// under the carrier's settlement policy. Nothing is persisted here; the caller
// writes the result in a single transaction.
func Compute(d Draft, cfg carrier.Config) (*ComputationResult, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var warnings []string

	expected := decimal.Zero
	failedCount := 0
	for _, l := range d.Lines {
		if l.Delivered {
			expected = expected.Add(l.Amount)
		} else {
			failedCount++
		}
	}
	if expected.IsZero() && d.CollectedCash.IsPositive() {
		warnings = append(warnings, "cash collected but no delivered orders in settlement")
	}

	fees := decimal.Zero
	if cfg.ChargesFailedAttempts && failedCount > 0 && cfg.FailedAttemptFee.IsPositive() {
		fees = fees.Add(cfg.FailedAttemptFee.Mul(decimal.NewFromInt(int64(failedCount))))
	}
	carrierFee := decimal.Zero
	if cfg.FeePercent.IsPositive() {
		carrierFee = d.CollectedCash.Mul(cfg.FeePercent).Div(decimal.NewFromInt(100)).Round(2)
		fees = fees.Add(carrierFee)
	}

	difference := d.CollectedCash.Sub(expected)
	status := StatusCompleted
	if !difference.IsZero() && !d.ConfirmDiscrepancy {
		status = StatusWithIssues
		warnings = append(warnings, fmt.Sprintf("collected cash differs from expected by %s", difference))
	}

	s := &Settlement{
		StoreAggregateRoot: shared.NewStoreAggregateRootWithCreator(d.StoreID, d.CreatedBy),
		Code:               shared.NewDocumentCode(CodePrefix, time.Now()),
		CarrierID:          d.CarrierID,
		SessionID:          d.SessionID,
		SettlementDate:     d.SettlementDate,
		Source:             d.Source,
		ExpectedCash:       expected,
		CollectedCash:      d.CollectedCash,
		NetReceivable:      d.CollectedCash.Sub(fees),
		Status:             status,
		DiscrepancyNotes:   d.DiscrepancyNotes,
	}
	for _, l := range d.Lines {
		s.Lines = append(s.Lines, OrderLine{OrderID: l.OrderID, Amount: l.Amount, Delivered: l.Delivered})
	}
	s.AddDomainEvent(NewSettlementCreatedEvent(s))

	var movements []*ledger.Movement
	settlementID := s.ID
	for _, l := range d.Lines {
		if l.Delivered {
			if l.Amount.IsZero() {
				warnings = append(warnings, fmt.Sprintf("delivered order %s has zero amount, no movement created", l.OrderID))
				continue
			}
			m, err := ledger.NewDeliveryCollected(d.StoreID, d.CarrierID, l.OrderID, l.Amount)
			if err != nil {
				return nil, err
			}
			m.SettlementID = &settlementID
			if d.CreatedBy != uuid.Nil {
				createdBy := d.CreatedBy
				m.CreatedBy = &createdBy
			}
			movements = append(movements, m)
			continue
		}
		if cfg.ChargesFailedAttempts && cfg.FailedAttemptFee.IsPositive() {
			m, err := ledger.NewFailedAttemptFee(d.StoreID, d.CarrierID, l.OrderID, cfg.FailedAttemptFee)
			if err != nil {
				return nil, err
			}
			m.SettlementID = &settlementID
			movements = append(movements, m)
		}
	}
	if carrierFee.IsPositive() {
		m, err := ledger.NewCarrierFee(d.StoreID, d.CarrierID, settlementID, carrierFee)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}

	return &ComputationResult{Settlement: s, Movements: movements, Warnings: warnings}, nil
}
