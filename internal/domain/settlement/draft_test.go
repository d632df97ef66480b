package settlement

import (
	"testing"
	"time"

	"github.com/codledger/backend/internal/domain/carrier"
	"github.com/codledger/backend/internal/domain/ledger"
	"github.com/codledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDraft(lines []DraftLine, collected decimal.Decimal) Draft {
	return Draft{
		StoreID:        uuid.New(),
		CarrierID:      uuid.New(),
		CreatedBy:      uuid.New(),
		SettlementDate: time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC),
		Source:         SourceDeliveryReport,
		Lines:          lines,
		CollectedCash:  collected,
	}
}

func TestCompute(t *testing.T) {
	o1 := uuid.New()
	o2 := uuid.New()
	lines := []DraftLine{
		{OrderID: o1, Amount: decimal.NewFromInt(100000), Delivered: true},
		{OrderID: o2, Amount: decimal.NewFromInt(50000), Delivered: false},
	}

	t.Run("collected matches expected", func(t *testing.T) {
		d := testDraft(lines, decimal.NewFromInt(100000))

		result, err := Compute(d, carrier.DefaultConfig())
		require.NoError(t, err)

		s := result.Settlement
		assert.True(t, s.ExpectedCash.Equal(decimal.NewFromInt(100000)))
		assert.True(t, s.CollectedCash.Equal(decimal.NewFromInt(100000)))
		assert.True(t, s.Difference().IsZero())
		assert.Equal(t, StatusCompleted, s.Status)
		assert.Len(t, s.Lines, 2)

		// exactly one movement, for the delivered order
		require.Len(t, result.Movements, 1)
		m := result.Movements[0]
		assert.Equal(t, ledger.MovementTypeDeliveryCollected, m.Type)
		require.NotNil(t, m.OrderID)
		assert.Equal(t, o1, *m.OrderID)
		assert.True(t, m.Amount.Equal(decimal.NewFromInt(100000)))
		require.NotNil(t, m.SettlementID)
		assert.Equal(t, s.ID, *m.SettlementID)
	})

	t.Run("shortfall without confirmation is flagged", func(t *testing.T) {
		d := testDraft(lines, decimal.NewFromInt(90000))

		result, err := Compute(d, carrier.DefaultConfig())
		require.NoError(t, err)

		s := result.Settlement
		assert.True(t, s.Difference().Equal(decimal.NewFromInt(-10000)))
		assert.Equal(t, StatusWithIssues, s.Status)
		assert.NotEmpty(t, result.Warnings)
	})

	t.Run("shortfall with confirmation completes", func(t *testing.T) {
		d := testDraft(lines, decimal.NewFromInt(90000))
		d.ConfirmDiscrepancy = true
		d.DiscrepancyNotes = "carrier reported damaged parcel refund"

		result, err := Compute(d, carrier.DefaultConfig())
		require.NoError(t, err)

		s := result.Settlement
		assert.Equal(t, StatusCompleted, s.Status)
		assert.Equal(t, "carrier reported damaged parcel refund", s.DiscrepancyNotes)
	})

	t.Run("failed attempt fees create debit movements", func(t *testing.T) {
		cfg := carrier.DefaultConfig()
		cfg.ChargesFailedAttempts = true
		cfg.FailedAttemptFee = decimal.NewFromInt(1500)

		d := testDraft(lines, decimal.NewFromInt(100000))

		result, err := Compute(d, cfg)
		require.NoError(t, err)

		require.Len(t, result.Movements, 2)
		fee := result.Movements[1]
		assert.Equal(t, ledger.MovementTypeFailedAttemptFee, fee.Type)
		assert.True(t, fee.Amount.Equal(decimal.NewFromInt(-1500)))
		require.NotNil(t, fee.OrderID)
		assert.Equal(t, o2, *fee.OrderID)

		// net receivable = collected - fees
		assert.True(t, result.Settlement.NetReceivable.Equal(decimal.NewFromInt(98500)))
	})

	t.Run("percentage fee creates a carrier fee movement", func(t *testing.T) {
		cfg := carrier.DefaultConfig()
		cfg.FeePercent = decimal.NewFromInt(2)

		d := testDraft(lines, decimal.NewFromInt(100000))

		result, err := Compute(d, cfg)
		require.NoError(t, err)

		require.Len(t, result.Movements, 2)
		fee := result.Movements[1]
		assert.Equal(t, ledger.MovementTypeCarrierFee, fee.Type)
		assert.True(t, fee.Amount.Equal(decimal.NewFromInt(-2000)))
		assert.True(t, result.Settlement.NetReceivable.Equal(decimal.NewFromInt(98000)))
	})

	t.Run("ledger replay equals net movement effect", func(t *testing.T) {
		cfg := carrier.DefaultConfig()
		cfg.ChargesFailedAttempts = true
		cfg.FailedAttemptFee = decimal.NewFromInt(1500)

		d := testDraft(lines, decimal.NewFromInt(100000))

		result, err := Compute(d, cfg)
		require.NoError(t, err)

		assert.True(t, ledger.ReplayBalance(result.Movements).Equal(decimal.NewFromInt(98500)))
	})
}

func TestDraftValidate(t *testing.T) {
	valid := func() Draft {
		return testDraft([]DraftLine{
			{OrderID: uuid.New(), Amount: decimal.NewFromInt(100), Delivered: true},
		}, decimal.NewFromInt(100))
	}

	t.Run("accepts a valid draft", func(t *testing.T) {
		d := valid()
		assert.NoError(t, d.Validate())
	})

	t.Run("rejects empty lines", func(t *testing.T) {
		d := valid()
		d.Lines = nil
		err := d.Validate()
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})

	t.Run("rejects duplicate order ids", func(t *testing.T) {
		d := valid()
		d.Lines = append(d.Lines, d.Lines[0])
		err := d.Validate()
		assert.True(t, shared.IsCode(err, "DUPLICATE_ORDER"))
	})

	t.Run("rejects negative collected cash", func(t *testing.T) {
		d := valid()
		d.CollectedCash = decimal.NewFromInt(-1)
		assert.Error(t, d.Validate())
	})

	t.Run("rejects amounts beyond the cap", func(t *testing.T) {
		d := valid()
		d.Lines[0].Amount = decimal.NewFromInt(1_000_000_000)
		assert.Error(t, d.Validate())
	})

	t.Run("rejects oversized discrepancy notes", func(t *testing.T) {
		d := valid()
		d.DiscrepancyNotes = string(make([]byte, 1001))
		err := d.Validate()
		assert.True(t, shared.IsCode(err, "NOTES_TOO_LONG"))
	})
}
