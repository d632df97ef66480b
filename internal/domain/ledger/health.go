package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HealthStatus is the overall verdict of a ledger health check
type HealthStatus string

const (
	HealthStatusHealthy  HealthStatus = "HEALTHY"
	HealthStatusProblems HealthStatus = "PROBLEMS_DETECTED"
)

// Problem describes one detected ledger inconsistency for a carrier
type Problem struct {
	Code    string     `json:"code"`
	Detail  string     `json:"detail"`
	OrderID *uuid.UUID `json:"order_id,omitempty"`
}

// ExpectedOrderMovement is what the settlement history says the ledger should
// contain: one delivery_collected movement per delivered settlement line, at
// the snapshotted amount.
type ExpectedOrderMovement struct {
	OrderID      uuid.UUID
	CarrierID    uuid.UUID
	SettlementID uuid.UUID
	Amount       decimal.Decimal
}

// CarrierDiagnosis is the health-check result for one carrier
type CarrierDiagnosis struct {
	CarrierID       uuid.UUID       `json:"carrier_id"`
	ReplayedBalance decimal.Decimal `json:"replayed_balance"`
	MovementCount   int             `json:"movement_count"`
	Problems        []Problem       `json:"problems,omitempty"`
}

// Healthy reports whether the carrier's ledger has no detected problems
func (d CarrierDiagnosis) Healthy() bool {
	return len(d.Problems) == 0
}

// DiagnoseCarrier replays a carrier's movements and cross-checks them against
// the expected per-order movements derived from settlement history. It never
// mutates anything; repairs go through the backfill operation.
func DiagnoseCarrier(carrierID uuid.UUID, movements []*Movement, expected []ExpectedOrderMovement) CarrierDiagnosis {
	d := CarrierDiagnosis{
		CarrierID:       carrierID,
		ReplayedBalance: ReplayBalance(movements),
		MovementCount:   len(movements),
	}

	seen := make(map[uuid.UUID]int)
	for _, m := range movements {
		if m.Type == MovementTypeDeliveryCollected && m.OrderID != nil {
			seen[*m.OrderID]++
		}
		if m.SettledAmount.IsNegative() {
			id := m.ID
			d.Problems = append(d.Problems, Problem{
				Code:   "NEGATIVE_SETTLED_AMOUNT",
				Detail: fmt.Sprintf("movement %s has negative settled amount %s", id, m.SettledAmount),
			})
		}
		if m.Type.IsReceivable() && m.SettledAmount.GreaterThan(m.Amount) {
			d.Problems = append(d.Problems, Problem{
				Code:   "OVER_SETTLED_MOVEMENT",
				Detail: fmt.Sprintf("movement %s settled %s of %s", m.ID, m.SettledAmount, m.Amount),
			})
		}
	}

	for orderID, n := range seen {
		if n > 1 {
			id := orderID
			d.Problems = append(d.Problems, Problem{
				Code:    "DUPLICATE_ORDER_MOVEMENT",
				Detail:  fmt.Sprintf("order has %d delivery_collected movements", n),
				OrderID: &id,
			})
		}
	}

	for _, exp := range expected {
		if seen[exp.OrderID] == 0 {
			id := exp.OrderID
			d.Problems = append(d.Problems, Problem{
				Code:    "MISSING_ORDER_MOVEMENT",
				Detail:  fmt.Sprintf("settlement %s expects a delivery_collected movement of %s", exp.SettlementID, exp.Amount),
				OrderID: &id,
			})
		}
	}

	return d
}

// BackfillDiff is the repair plan a backfill run computes before writing
type BackfillDiff struct {
	CarrierID uuid.UUID               `json:"carrier_id"`
	Missing   []ExpectedOrderMovement `json:"-"`
	// Duplicates holds the movement IDs to remove, keeping the oldest per order
	Duplicates   []uuid.UUID `json:"duplicates,omitempty"`
	MissingCount int         `json:"missing_count"`
	// BalanceDelta is the net balance change applying this diff would cause
	BalanceDelta decimal.Decimal `json:"balance_delta"`
}

// Empty reports whether applying the diff would be a no-op. A second backfill
// run over an unchanged ledger must produce an empty diff.
func (d BackfillDiff) Empty() bool {
	return len(d.Missing) == 0 && len(d.Duplicates) == 0
}

// ComputeBackfillDiff compares expected per-order movements against the
// existing delivery_collected movements of one carrier and plans the minimal
// repair: create what is missing, drop duplicates beyond the oldest.
func ComputeBackfillDiff(carrierID uuid.UUID, movements []*Movement, expected []ExpectedOrderMovement) BackfillDiff {
	diff := BackfillDiff{CarrierID: carrierID, BalanceDelta: decimal.Zero}

	byOrder := make(map[uuid.UUID][]*Movement)
	for _, m := range movements {
		if m.Type == MovementTypeDeliveryCollected && m.OrderID != nil {
			byOrder[*m.OrderID] = append(byOrder[*m.OrderID], m)
		}
	}

	for _, exp := range expected {
		if len(byOrder[exp.OrderID]) == 0 {
			diff.Missing = append(diff.Missing, exp)
			diff.BalanceDelta = diff.BalanceDelta.Add(exp.Amount)
		}
	}

	for _, ms := range byOrder {
		// movements arrive ordered by creation time; keep the first
		for _, dup := range ms[1:] {
			diff.Duplicates = append(diff.Duplicates, dup.ID)
			diff.BalanceDelta = diff.BalanceDelta.Sub(dup.Amount)
		}
	}

	diff.MissingCount = len(diff.Missing)
	return diff
}
