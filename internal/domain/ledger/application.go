package ledger

import (
	"github.com/codledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ApplicationResult is the outcome of applying a payment against receivable movements
type ApplicationResult struct {
	Applications []Application
	// Settled holds the movements whose settled amount changed, in application order
	Settled []*Movement
	// Remaining is the part of the payment amount left after all movements were
	// exhausted; zero unless the payment exactly drains the outstanding balance.
	Remaining decimal.Decimal
}

// ApplyPaymentOldestFirst walks the given unsettled receivable movements in
// creation order and clears them with the payment amount until it is
// exhausted. Partial application is allowed: the last touched movement may end
// up partially settled. A payment larger than the total outstanding of the
// movements it references is over-application and rejected outright; no
// movement is modified in that case.
func ApplyPaymentOldestFirst(p *Payment, movements []*Movement) (*ApplicationResult, error) {
	if p.Direction != DirectionFromCarrier {
		return nil, shared.NewValidationError("INVALID_DIRECTION", "Only from_carrier payments settle receivable movements")
	}
	if len(movements) == 0 {
		return nil, shared.NewValidationError("NO_MOVEMENTS", "A payment must reference at least one balance-bearing movement")
	}

	outstanding := decimal.Zero
	for _, m := range movements {
		if m.StoreID != p.StoreID || m.CarrierID != p.CarrierID {
			return nil, shared.NewValidationError("FOREIGN_MOVEMENT", "Movement belongs to a different store or carrier")
		}
		outstanding = outstanding.Add(m.Outstanding())
	}
	if p.Amount.GreaterThan(outstanding) {
		return nil, shared.ErrPaymentOverApplied
	}

	result := &ApplicationResult{Remaining: p.Amount}
	for _, m := range movements {
		if result.Remaining.IsZero() {
			break
		}
		open := m.Outstanding()
		if open.LessThanOrEqual(decimal.Zero) {
			continue
		}
		applied := decimal.Min(open, result.Remaining)
		if err := m.ApplySettlement(applied); err != nil {
			return nil, err
		}
		result.Applications = append(result.Applications, Application{MovementID: m.ID, Amount: applied})
		result.Settled = append(result.Settled, m)
		result.Remaining = result.Remaining.Sub(applied)
	}

	p.Applications = append(p.Applications, result.Applications...)
	return result, nil
}

// ReplayBalance computes a carrier's balance purely from its movements.
// This is the authoritative balance; any cached figure must agree with it.
func ReplayBalance(movements []*Movement) decimal.Decimal {
	balance := decimal.Zero
	for _, m := range movements {
		balance = balance.Add(m.Amount)
	}
	return balance
}
