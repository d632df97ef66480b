package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnoseCarrier(t *testing.T) {
	storeID := uuid.New()
	carrierID := uuid.New()
	settlementID := uuid.New()

	collected := func(orderID uuid.UUID, amount int64) *Movement {
		m, err := NewDeliveryCollected(storeID, carrierID, orderID, decimal.NewFromInt(amount))
		require.NoError(t, err)
		m.SettlementID = &settlementID
		return m
	}

	t.Run("clean ledger is healthy", func(t *testing.T) {
		o1 := uuid.New()
		ms := []*Movement{collected(o1, 100000)}
		expected := []ExpectedOrderMovement{{OrderID: o1, CarrierID: carrierID, SettlementID: settlementID, Amount: decimal.NewFromInt(100000)}}

		d := DiagnoseCarrier(carrierID, ms, expected)
		assert.True(t, d.Healthy())
		assert.Equal(t, 1, d.MovementCount)
		assert.True(t, d.ReplayedBalance.Equal(decimal.NewFromInt(100000)))
	})

	t.Run("duplicate order movements are reported", func(t *testing.T) {
		o1 := uuid.New()
		ms := []*Movement{collected(o1, 100000), collected(o1, 100000)}

		d := DiagnoseCarrier(carrierID, ms, nil)
		require.Len(t, d.Problems, 1)
		assert.Equal(t, "DUPLICATE_ORDER_MOVEMENT", d.Problems[0].Code)
		require.NotNil(t, d.Problems[0].OrderID)
		assert.Equal(t, o1, *d.Problems[0].OrderID)
	})

	t.Run("missing expected movements are reported", func(t *testing.T) {
		o1 := uuid.New()
		expected := []ExpectedOrderMovement{{OrderID: o1, CarrierID: carrierID, SettlementID: settlementID, Amount: decimal.NewFromInt(50000)}}

		d := DiagnoseCarrier(carrierID, nil, expected)
		require.Len(t, d.Problems, 1)
		assert.Equal(t, "MISSING_ORDER_MOVEMENT", d.Problems[0].Code)
	})

	t.Run("over-settled movements are reported", func(t *testing.T) {
		m := collected(uuid.New(), 1000)
		m.SettledAmount = decimal.NewFromInt(1500)

		d := DiagnoseCarrier(carrierID, []*Movement{m}, nil)
		require.Len(t, d.Problems, 1)
		assert.Equal(t, "OVER_SETTLED_MOVEMENT", d.Problems[0].Code)
	})

	t.Run("negative settled amounts are reported", func(t *testing.T) {
		m := collected(uuid.New(), 1000)
		m.SettledAmount = decimal.NewFromInt(-10)

		d := DiagnoseCarrier(carrierID, []*Movement{m}, nil)
		require.Len(t, d.Problems, 1)
		assert.Equal(t, "NEGATIVE_SETTLED_AMOUNT", d.Problems[0].Code)
	})
}

func TestComputeBackfillDiff(t *testing.T) {
	storeID := uuid.New()
	carrierID := uuid.New()
	settlementID := uuid.New()

	collected := func(orderID uuid.UUID, amount int64) *Movement {
		m, err := NewDeliveryCollected(storeID, carrierID, orderID, decimal.NewFromInt(amount))
		require.NoError(t, err)
		m.SettlementID = &settlementID
		return m
	}
	expect := func(orderID uuid.UUID, amount int64) ExpectedOrderMovement {
		return ExpectedOrderMovement{OrderID: orderID, CarrierID: carrierID, SettlementID: settlementID, Amount: decimal.NewFromInt(amount)}
	}

	t.Run("plans creation for missing movements", func(t *testing.T) {
		o1 := uuid.New()
		o2 := uuid.New()
		ms := []*Movement{collected(o1, 100000)}
		expected := []ExpectedOrderMovement{expect(o1, 100000), expect(o2, 50000)}

		diff := ComputeBackfillDiff(carrierID, ms, expected)
		assert.False(t, diff.Empty())
		assert.Equal(t, 1, diff.MissingCount)
		assert.Equal(t, o2, diff.Missing[0].OrderID)
		assert.True(t, diff.BalanceDelta.Equal(decimal.NewFromInt(50000)))
	})

	t.Run("plans removal for duplicates keeping the oldest", func(t *testing.T) {
		o1 := uuid.New()
		first := collected(o1, 100000)
		dup := collected(o1, 100000)
		expected := []ExpectedOrderMovement{expect(o1, 100000)}

		diff := ComputeBackfillDiff(carrierID, []*Movement{first, dup}, expected)
		require.Len(t, diff.Duplicates, 1)
		assert.Equal(t, dup.ID, diff.Duplicates[0])
		assert.True(t, diff.BalanceDelta.Equal(decimal.NewFromInt(-100000)))
	})

	t.Run("second run over a repaired ledger is a no-op", func(t *testing.T) {
		o1 := uuid.New()
		o2 := uuid.New()
		ms := []*Movement{collected(o1, 100000), collected(o1, 100000)}
		expected := []ExpectedOrderMovement{expect(o1, 100000), expect(o2, 50000)}

		diff := ComputeBackfillDiff(carrierID, ms, expected)
		require.False(t, diff.Empty())

		// apply the diff: drop duplicates, create missing
		toDrop := make(map[uuid.UUID]struct{}, len(diff.Duplicates))
		for _, id := range diff.Duplicates {
			toDrop[id] = struct{}{}
		}
		var repaired []*Movement
		for _, m := range ms {
			if _, drop := toDrop[m.ID]; !drop {
				repaired = append(repaired, m)
			}
		}
		for _, exp := range diff.Missing {
			m, err := NewDeliveryCollected(storeID, exp.CarrierID, exp.OrderID, exp.Amount)
			require.NoError(t, err)
			sid := exp.SettlementID
			m.SettlementID = &sid
			repaired = append(repaired, m)
		}

		again := ComputeBackfillDiff(carrierID, repaired, expected)
		assert.True(t, again.Empty())
		assert.True(t, again.BalanceDelta.IsZero())
		assert.True(t, DiagnoseCarrier(carrierID, repaired, expected).Healthy())
	})
}
