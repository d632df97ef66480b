package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/codledger/backend/internal/domain/ledger"
	"github.com/codledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeEntry struct {
	result string
}

type fakeIdempotencyStore struct {
	entries map[string]fakeEntry
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{entries: make(map[string]fakeEntry)}
}

func (s *fakeIdempotencyStore) Reserve(_ context.Context, key string, _ time.Duration) (bool, string, error) {
	if e, ok := s.entries[key]; ok {
		return false, e.result, nil
	}
	s.entries[key] = fakeEntry{}
	return true, "", nil
}

func (s *fakeIdempotencyStore) Complete(_ context.Context, key, result string, _ time.Duration) error {
	s.entries[key] = fakeEntry{result: result}
	return nil
}

func (s *fakeIdempotencyStore) Release(_ context.Context, key string) error {
	delete(s.entries, key)
	return nil
}

func (s *fakeIdempotencyStore) Close() error { return nil }

func newPaymentService() (*PaymentService, ledgerMocks) {
	m := ledgerMocks{
		movementRepo:   new(MockMovementRepository),
		paymentRepo:    new(MockPaymentRepository),
		carrierRepo:    new(MockCarrierRepository),
		settlementRepo: new(MockSettlementRepository),
	}
	scope := NewNoOpTransactionScope(m.movementRepo, m.paymentRepo)
	return NewPaymentService(m.paymentRepo, m.movementRepo, m.carrierRepo, scope), m
}

func settledAmount(expected int64) any {
	return mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromInt(expected))
	})
}

func TestRegisterPayment(t *testing.T) {
	storeID := uuid.New()
	userID := uuid.New()

	t.Run("applies a from_carrier payment oldest first", func(t *testing.T) {
		svc, m := newPaymentService()
		c := testCarrier(t, storeID)

		m1, err := ledger.NewDeliveryCollected(storeID, c.ID, uuid.New(), decimal.NewFromInt(30000))
		require.NoError(t, err)
		m2, err := ledger.NewDeliveryCollected(storeID, c.ID, uuid.New(), decimal.NewFromInt(70000))
		require.NoError(t, err)

		m.carrierRepo.On("FindByID", mock.Anything, storeID, c.ID).Return(c, nil)
		m.movementRepo.On("FindUnsettled", mock.Anything, storeID, c.ID).Return([]*ledger.Movement{m1, m2}, nil)
		m.paymentRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Payment")).Return(nil)
		m.movementRepo.On("Create", mock.Anything, mock.MatchedBy(func(mv *ledger.Movement) bool {
			return mv.Type == ledger.MovementTypePaymentApplied && mv.Amount.Equal(decimal.NewFromInt(-60000))
		})).Return(nil)
		m.movementRepo.On("ApplySettlement", mock.Anything, storeID, m1.ID, settledAmount(30000)).Return(nil)
		m.movementRepo.On("ApplySettlement", mock.Anything, storeID, m2.ID, settledAmount(30000)).Return(nil)

		resp, err := svc.RegisterPayment(context.Background(), storeID, userID, RegisterPaymentRequest{
			CarrierID: c.ID,
			Amount:    decimal.NewFromInt(60000),
			Direction: string(ledger.DirectionFromCarrier),
			Method:    string(ledger.PaymentMethodBankTransfer),
			Reference: "TRX-1001",
		})
		require.NoError(t, err)

		require.Len(t, resp.Applications, 2)
		assert.Equal(t, "TRX-1001", resp.Reference)
		m.movementRepo.AssertExpectations(t)
	})

	t.Run("rejects over-application before any write", func(t *testing.T) {
		svc, m := newPaymentService()
		c := testCarrier(t, storeID)

		m1, err := ledger.NewDeliveryCollected(storeID, c.ID, uuid.New(), decimal.NewFromInt(50000))
		require.NoError(t, err)

		m.carrierRepo.On("FindByID", mock.Anything, storeID, c.ID).Return(c, nil)
		m.movementRepo.On("FindUnsettled", mock.Anything, storeID, c.ID).Return([]*ledger.Movement{m1}, nil)

		_, err = svc.RegisterPayment(context.Background(), storeID, userID, RegisterPaymentRequest{
			CarrierID: c.ID,
			Amount:    decimal.NewFromInt(60000),
			Direction: string(ledger.DirectionFromCarrier),
			Method:    string(ledger.PaymentMethodCash),
		})
		assert.ErrorIs(t, err, shared.ErrPaymentOverApplied)
		m.paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("a concurrent settle on the same movement fails the payment", func(t *testing.T) {
		// the in-memory read said 100000 was open, but another payment
		// committed first; the conditional write reports the shortfall
		svc, m := newPaymentService()
		c := testCarrier(t, storeID)

		stale, err := ledger.NewDeliveryCollected(storeID, c.ID, uuid.New(), decimal.NewFromInt(100000))
		require.NoError(t, err)

		m.carrierRepo.On("FindByID", mock.Anything, storeID, c.ID).Return(c, nil)
		m.movementRepo.On("FindUnsettled", mock.Anything, storeID, c.ID).Return([]*ledger.Movement{stale}, nil)
		m.paymentRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Payment")).Return(nil)
		m.movementRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Movement")).Return(nil)
		m.movementRepo.On("ApplySettlement", mock.Anything, storeID, stale.ID, settledAmount(60000)).
			Return(shared.ErrPaymentOverApplied)

		_, err = svc.RegisterPayment(context.Background(), storeID, userID, RegisterPaymentRequest{
			CarrierID: c.ID,
			Amount:    decimal.NewFromInt(60000),
			Direction: string(ledger.DirectionFromCarrier),
			Method:    string(ledger.PaymentMethodBankTransfer),
		})
		assert.ErrorIs(t, err, shared.ErrPaymentOverApplied)
	})

	t.Run("to_carrier payments skip application", func(t *testing.T) {
		svc, m := newPaymentService()
		c := testCarrier(t, storeID)

		m.carrierRepo.On("FindByID", mock.Anything, storeID, c.ID).Return(c, nil)
		m.paymentRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Payment")).Return(nil)
		m.movementRepo.On("Create", mock.Anything, mock.MatchedBy(func(mv *ledger.Movement) bool {
			return mv.Amount.Equal(decimal.NewFromInt(5000))
		})).Return(nil)

		resp, err := svc.RegisterPayment(context.Background(), storeID, userID, RegisterPaymentRequest{
			CarrierID: c.ID,
			Amount:    decimal.NewFromInt(5000),
			Direction: string(ledger.DirectionToCarrier),
			Method:    string(ledger.PaymentMethodBankTransfer),
		})
		require.NoError(t, err)
		assert.Empty(t, resp.Applications)
		m.movementRepo.AssertNotCalled(t, "FindUnsettled", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown directions", func(t *testing.T) {
		svc, m := newPaymentService()
		c := testCarrier(t, storeID)
		m.carrierRepo.On("FindByID", mock.Anything, storeID, c.ID).Return(c, nil)

		_, err := svc.RegisterPayment(context.Background(), storeID, userID, RegisterPaymentRequest{
			CarrierID: c.ID,
			Amount:    decimal.NewFromInt(5000),
			Direction: "sideways",
			Method:    string(ledger.PaymentMethodCash),
		})
		assert.True(t, shared.IsCode(err, "INVALID_DIRECTION"))
	})
}

func TestRegisterPaymentTargets(t *testing.T) {
	storeID := uuid.New()
	userID := uuid.New()

	t.Run("movement_ids restrict the application set", func(t *testing.T) {
		svc, m := newPaymentService()
		c := testCarrier(t, storeID)

		older, err := ledger.NewDeliveryCollected(storeID, c.ID, uuid.New(), decimal.NewFromInt(30000))
		require.NoError(t, err)
		targeted, err := ledger.NewDeliveryCollected(storeID, c.ID, uuid.New(), decimal.NewFromInt(70000))
		require.NoError(t, err)

		m.carrierRepo.On("FindByID", mock.Anything, storeID, c.ID).Return(c, nil)
		m.movementRepo.On("FindByIDs", mock.Anything, storeID, []uuid.UUID{targeted.ID}).Return([]*ledger.Movement{targeted}, nil)
		m.paymentRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Payment")).Return(nil)
		m.movementRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Movement")).Return(nil)
		m.movementRepo.On("ApplySettlement", mock.Anything, storeID, targeted.ID, settledAmount(50000)).Return(nil)

		resp, err := svc.RegisterPayment(context.Background(), storeID, userID, RegisterPaymentRequest{
			CarrierID:   c.ID,
			Amount:      decimal.NewFromInt(50000),
			Direction:   string(ledger.DirectionFromCarrier),
			Method:      string(ledger.PaymentMethodBankTransfer),
			MovementIDs: []uuid.UUID{targeted.ID},
		})
		require.NoError(t, err)

		require.Len(t, resp.Applications, 1)
		assert.Equal(t, targeted.ID, resp.Applications[0].MovementID)
		assert.True(t, older.SettledAmount.IsZero(), "untargeted movement must stay untouched")
		m.movementRepo.AssertNotCalled(t, "FindUnsettled", mock.Anything, mock.Anything, mock.Anything)
		m.movementRepo.AssertExpectations(t)
	})

	t.Run("settlement_ids resolve to the settlement's receivables", func(t *testing.T) {
		svc, m := newPaymentService()
		c := testCarrier(t, storeID)
		settlementID := uuid.New()

		receivable, err := ledger.NewMovement(storeID, c.ID, ledger.MovementTypeSettlementPayable, decimal.NewFromInt(40000))
		require.NoError(t, err)
		receivable.SettlementID = &settlementID
		fee, err := ledger.NewCarrierFee(storeID, c.ID, settlementID, decimal.NewFromInt(2000))
		require.NoError(t, err)

		m.carrierRepo.On("FindByID", mock.Anything, storeID, c.ID).Return(c, nil)
		m.movementRepo.On("FindBySettlement", mock.Anything, storeID, settlementID).Return([]*ledger.Movement{receivable, fee}, nil)
		m.paymentRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Payment")).Return(nil)
		m.movementRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Movement")).Return(nil)
		m.movementRepo.On("ApplySettlement", mock.Anything, storeID, receivable.ID, settledAmount(40000)).Return(nil)

		resp, err := svc.RegisterPayment(context.Background(), storeID, userID, RegisterPaymentRequest{
			CarrierID:     c.ID,
			Amount:        decimal.NewFromInt(40000),
			Direction:     string(ledger.DirectionFromCarrier),
			Method:        string(ledger.PaymentMethodCash),
			SettlementIDs: []uuid.UUID{settlementID},
		})
		require.NoError(t, err)

		require.Len(t, resp.Applications, 1)
		assert.Equal(t, receivable.ID, resp.Applications[0].MovementID)
		m.movementRepo.AssertExpectations(t)
	})

	t.Run("rejects unknown movement ids", func(t *testing.T) {
		svc, m := newPaymentService()
		c := testCarrier(t, storeID)
		foreign := uuid.New()

		m.carrierRepo.On("FindByID", mock.Anything, storeID, c.ID).Return(c, nil)
		m.movementRepo.On("FindByIDs", mock.Anything, storeID, []uuid.UUID{foreign}).Return([]*ledger.Movement{}, nil)

		_, err := svc.RegisterPayment(context.Background(), storeID, userID, RegisterPaymentRequest{
			CarrierID:   c.ID,
			Amount:      decimal.NewFromInt(1000),
			Direction:   string(ledger.DirectionFromCarrier),
			Method:      string(ledger.PaymentMethodCash),
			MovementIDs: []uuid.UUID{foreign},
		})
		assert.True(t, shared.IsCode(err, "MOVEMENTS_NOT_FOUND"), "got %v", err)
		m.paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects non-receivable movement targets", func(t *testing.T) {
		svc, m := newPaymentService()
		c := testCarrier(t, storeID)

		fee, err := ledger.NewCarrierFee(storeID, c.ID, uuid.New(), decimal.NewFromInt(2000))
		require.NoError(t, err)

		m.carrierRepo.On("FindByID", mock.Anything, storeID, c.ID).Return(c, nil)
		m.movementRepo.On("FindByIDs", mock.Anything, storeID, []uuid.UUID{fee.ID}).Return([]*ledger.Movement{fee}, nil)

		_, err = svc.RegisterPayment(context.Background(), storeID, userID, RegisterPaymentRequest{
			CarrierID:   c.ID,
			Amount:      decimal.NewFromInt(1000),
			Direction:   string(ledger.DirectionFromCarrier),
			Method:      string(ledger.PaymentMethodCash),
			MovementIDs: []uuid.UUID{fee.ID},
		})
		assert.True(t, shared.IsCode(err, "MOVEMENT_NOT_RECEIVABLE"), "got %v", err)
	})
}

func TestRegisterPaymentIdempotency(t *testing.T) {
	storeID := uuid.New()
	userID := uuid.New()

	request := func(c uuid.UUID) RegisterPaymentRequest {
		return RegisterPaymentRequest{
			CarrierID:      c,
			Amount:         decimal.NewFromInt(5000),
			Direction:      string(ledger.DirectionToCarrier),
			Method:         string(ledger.PaymentMethodCash),
			IdempotencyKey: "req-abc",
		}
	}

	t.Run("replays return the original payment without re-applying", func(t *testing.T) {
		svc, m := newPaymentService()
		svc.SetIdempotencyStore(newFakeIdempotencyStore(), shared.DefaultIdempotencyConfig())
		c := testCarrier(t, storeID)

		m.carrierRepo.On("FindByID", mock.Anything, storeID, c.ID).Return(c, nil)
		m.paymentRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Payment")).Return(nil)
		m.movementRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Movement")).Return(nil)

		first, err := svc.RegisterPayment(context.Background(), storeID, userID, request(c.ID))
		require.NoError(t, err)

		original, err := ledger.NewPayment(storeID, c.ID, decimal.NewFromInt(5000), ledger.DirectionToCarrier, ledger.PaymentMethodCash, userID)
		require.NoError(t, err)
		original.Code = first.Code
		m.paymentRepo.On("FindByCode", mock.Anything, storeID, first.Code).Return(original, nil)

		replay, err := svc.RegisterPayment(context.Background(), storeID, userID, request(c.ID))
		require.NoError(t, err)
		assert.Equal(t, first.Code, replay.Code)
		m.paymentRepo.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("a failed attempt frees the key for a corrected retry", func(t *testing.T) {
		svc, m := newPaymentService()
		svc.SetIdempotencyStore(newFakeIdempotencyStore(), shared.DefaultIdempotencyConfig())
		c := testCarrier(t, storeID)

		m.carrierRepo.On("FindByID", mock.Anything, storeID, c.ID).Return(nil, shared.ErrNotFound).Once()
		m.carrierRepo.On("FindByID", mock.Anything, storeID, c.ID).Return(c, nil)
		m.paymentRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Payment")).Return(nil)
		m.movementRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Movement")).Return(nil)

		_, err := svc.RegisterPayment(context.Background(), storeID, userID, request(c.ID))
		require.ErrorIs(t, err, shared.ErrNotFound)

		resp, err := svc.RegisterPayment(context.Background(), storeID, userID, request(c.ID))
		require.NoError(t, err, "retry after a failure must not hit the duplicate check")
		assert.NotEmpty(t, resp.Code)
	})

	t.Run("duplicates of an in-flight request are rejected", func(t *testing.T) {
		svc, m := newPaymentService()
		store := newFakeIdempotencyStore()
		svc.SetIdempotencyStore(store, shared.DefaultIdempotencyConfig())
		c := testCarrier(t, storeID)

		// key reserved, no result yet: the first request has not committed
		_, _, err := store.Reserve(context.Background(), "payment:"+storeID.String()+":req-abc", time.Hour)
		require.NoError(t, err)

		_, err = svc.RegisterPayment(context.Background(), storeID, userID, request(c.ID))
		assert.ErrorIs(t, err, shared.ErrDuplicateIdempotency)
		m.paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
