package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/codledger/backend/internal/domain/carrier"
	"github.com/codledger/backend/internal/domain/ledger"
	"github.com/codledger/backend/internal/domain/settlement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMovementRepository is a mock implementation of ledger.MovementRepository
type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) Create(ctx context.Context, mv *ledger.Movement) error {
	args := m.Called(ctx, mv)
	return args.Error(0)
}

func (m *MockMovementRepository) CreateBatch(ctx context.Context, movements []*ledger.Movement) error {
	args := m.Called(ctx, movements)
	return args.Error(0)
}

func (m *MockMovementRepository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*ledger.Movement, error) {
	args := m.Called(ctx, storeID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Movement), args.Error(1)
}

func (m *MockMovementRepository) FindByIDs(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) ([]*ledger.Movement, error) {
	args := m.Called(ctx, storeID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Movement), args.Error(1)
}

func (m *MockMovementRepository) FindByCarrier(ctx context.Context, storeID, carrierID uuid.UUID, filter ledger.MovementFilter) ([]*ledger.Movement, error) {
	args := m.Called(ctx, storeID, carrierID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Movement), args.Error(1)
}

func (m *MockMovementRepository) FindUnsettled(ctx context.Context, storeID, carrierID uuid.UUID) ([]*ledger.Movement, error) {
	args := m.Called(ctx, storeID, carrierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Movement), args.Error(1)
}

func (m *MockMovementRepository) FindBySettlement(ctx context.Context, storeID, settlementID uuid.UUID) ([]*ledger.Movement, error) {
	args := m.Called(ctx, storeID, settlementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Movement), args.Error(1)
}

func (m *MockMovementRepository) SumByCarrier(ctx context.Context, storeID, carrierID uuid.UUID, from, to *time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, storeID, carrierID, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockMovementRepository) BalancesByStore(ctx context.Context, storeID uuid.UUID) ([]ledger.CarrierBalance, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.CarrierBalance), args.Error(1)
}

func (m *MockMovementRepository) ApplySettlement(ctx context.Context, storeID, id uuid.UUID, amount decimal.Decimal) error {
	args := m.Called(ctx, storeID, id, amount)
	return args.Error(0)
}

func (m *MockMovementRepository) Delete(ctx context.Context, storeID, id uuid.UUID) error {
	args := m.Called(ctx, storeID, id)
	return args.Error(0)
}

// MockPaymentRepository is a mock implementation of ledger.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *ledger.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*ledger.Payment, error) {
	args := m.Called(ctx, storeID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByCode(ctx context.Context, storeID uuid.UUID, code string) (*ledger.Payment, error) {
	args := m.Called(ctx, storeID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Payment), args.Error(1)
}

func (m *MockPaymentRepository) List(ctx context.Context, storeID uuid.UUID, carrierID *uuid.UUID, page, pageSize int) ([]*ledger.Payment, int64, error) {
	args := m.Called(ctx, storeID, carrierID, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*ledger.Payment), args.Get(1).(int64), args.Error(2)
}

// MockCarrierRepository is a mock implementation of carrier.Repository
type MockCarrierRepository struct {
	mock.Mock
}

func (m *MockCarrierRepository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*carrier.Carrier, error) {
	args := m.Called(ctx, storeID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*carrier.Carrier), args.Error(1)
}

func (m *MockCarrierRepository) FindAll(ctx context.Context, storeID uuid.UUID, activeOnly bool) ([]*carrier.Carrier, error) {
	args := m.Called(ctx, storeID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*carrier.Carrier), args.Error(1)
}

func (m *MockCarrierRepository) Save(ctx context.Context, c *carrier.Carrier) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

// MockSettlementRepository mocks the settlement lookups the ledger service uses
type MockSettlementRepository struct {
	mock.Mock
}

func (m *MockSettlementRepository) Create(ctx context.Context, s *settlement.Settlement) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSettlementRepository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*settlement.Settlement, error) {
	args := m.Called(ctx, storeID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) FindByCode(ctx context.Context, storeID uuid.UUID, code string) (*settlement.Settlement, error) {
	args := m.Called(ctx, storeID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) FindByCarrierAndDate(ctx context.Context, storeID, carrierID uuid.UUID, date time.Time) (*settlement.Settlement, error) {
	args := m.Called(ctx, storeID, carrierID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) List(ctx context.Context, storeID uuid.UUID, filter settlement.ListFilter) ([]*settlement.Settlement, int64, error) {
	args := m.Called(ctx, storeID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*settlement.Settlement), args.Get(1).(int64), args.Error(2)
}

func (m *MockSettlementRepository) Save(ctx context.Context, s *settlement.Settlement) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSettlementRepository) ExpectedOrderMovements(ctx context.Context, storeID uuid.UUID, carrierID *uuid.UUID) ([]ledger.ExpectedOrderMovement, error) {
	args := m.Called(ctx, storeID, carrierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.ExpectedOrderMovement), args.Error(1)
}

func (m *MockSettlementRepository) SettledOrderIDs(ctx context.Context, storeID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]struct{}), args.Error(1)
}

type ledgerMocks struct {
	movementRepo   *MockMovementRepository
	paymentRepo    *MockPaymentRepository
	carrierRepo    *MockCarrierRepository
	settlementRepo *MockSettlementRepository
}

func newLedgerService() (*Service, ledgerMocks) {
	m := ledgerMocks{
		movementRepo:   new(MockMovementRepository),
		paymentRepo:    new(MockPaymentRepository),
		carrierRepo:    new(MockCarrierRepository),
		settlementRepo: new(MockSettlementRepository),
	}
	scope := NewNoOpTransactionScope(m.movementRepo, m.paymentRepo)
	return NewService(m.movementRepo, m.settlementRepo, m.carrierRepo, scope), m
}

func testCarrier(t *testing.T, storeID uuid.UUID) *carrier.Carrier {
	t.Helper()
	c, err := carrier.NewCarrier(storeID, "Royal Express")
	require.NoError(t, err)
	return c
}

func TestBalances(t *testing.T) {
	storeID := uuid.New()
	svc, m := newLedgerService()

	c := testCarrier(t, storeID)
	m.movementRepo.On("BalancesByStore", mock.Anything, storeID).Return([]ledger.CarrierBalance{
		{CarrierID: c.ID, Balance: decimal.NewFromInt(38500), MovementCount: 3},
	}, nil)
	m.carrierRepo.On("FindAll", mock.Anything, storeID, false).Return([]*carrier.Carrier{c}, nil)

	balances, err := svc.Balances(context.Background(), storeID)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "Royal Express", balances[0].CarrierName)
	assert.True(t, balances[0].Balance.Equal(decimal.NewFromInt(38500)))
}

func TestCreateAdjustment(t *testing.T) {
	storeID := uuid.New()
	userID := uuid.New()
	svc, m := newLedgerService()
	c := testCarrier(t, storeID)

	m.carrierRepo.On("FindByID", mock.Anything, storeID, c.ID).Return(c, nil)
	m.movementRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Movement")).Return(nil)

	resp, err := svc.CreateAdjustment(context.Background(), storeID, userID, c.ID, AdjustmentRequest{
		Amount:      decimal.NewFromInt(5000),
		Credit:      false,
		Description: "fuel surcharge",
	})
	require.NoError(t, err)
	assert.Equal(t, string(ledger.MovementTypeAdjustmentDebit), resp.Type)
	assert.True(t, resp.Amount.Equal(decimal.NewFromInt(-5000)))
}

func TestHealth(t *testing.T) {
	storeID := uuid.New()

	t.Run("healthy ledger", func(t *testing.T) {
		svc, m := newLedgerService()
		c := testCarrier(t, storeID)
		orderID := uuid.New()
		settlementID := uuid.New()

		mv, err := ledger.NewDeliveryCollected(storeID, c.ID, orderID, decimal.NewFromInt(100000))
		require.NoError(t, err)

		m.carrierRepo.On("FindAll", mock.Anything, storeID, false).Return([]*carrier.Carrier{c}, nil)
		m.movementRepo.On("FindByCarrier", mock.Anything, storeID, c.ID, ledger.MovementFilter{}).Return([]*ledger.Movement{mv}, nil)
		m.settlementRepo.On("ExpectedOrderMovements", mock.Anything, storeID, mock.AnythingOfType("*uuid.UUID")).Return([]ledger.ExpectedOrderMovement{
			{OrderID: orderID, CarrierID: c.ID, SettlementID: settlementID, Amount: decimal.NewFromInt(100000)},
		}, nil)

		report, err := svc.Health(context.Background(), storeID, nil)
		require.NoError(t, err)
		assert.Equal(t, string(ledger.HealthStatusHealthy), report.Status)
		require.Len(t, report.Carriers, 1)
		assert.True(t, report.Carriers[0].Healthy())
	})

	t.Run("missing movement flags problems", func(t *testing.T) {
		svc, m := newLedgerService()
		c := testCarrier(t, storeID)

		m.carrierRepo.On("FindAll", mock.Anything, storeID, false).Return([]*carrier.Carrier{c}, nil)
		m.movementRepo.On("FindByCarrier", mock.Anything, storeID, c.ID, ledger.MovementFilter{}).Return([]*ledger.Movement{}, nil)
		m.settlementRepo.On("ExpectedOrderMovements", mock.Anything, storeID, mock.AnythingOfType("*uuid.UUID")).Return([]ledger.ExpectedOrderMovement{
			{OrderID: uuid.New(), CarrierID: c.ID, SettlementID: uuid.New(), Amount: decimal.NewFromInt(50000)},
		}, nil)

		report, err := svc.Health(context.Background(), storeID, nil)
		require.NoError(t, err)
		assert.Equal(t, string(ledger.HealthStatusProblems), report.Status)
	})
}

func TestBackfill(t *testing.T) {
	storeID := uuid.New()
	userID := uuid.New()

	t.Run("dry run plans without writing", func(t *testing.T) {
		svc, m := newLedgerService()
		c := testCarrier(t, storeID)

		m.carrierRepo.On("FindByID", mock.Anything, storeID, c.ID).Return(c, nil)
		m.movementRepo.On("FindByCarrier", mock.Anything, storeID, c.ID, ledger.MovementFilter{}).Return([]*ledger.Movement{}, nil)
		m.settlementRepo.On("ExpectedOrderMovements", mock.Anything, storeID, mock.AnythingOfType("*uuid.UUID")).Return([]ledger.ExpectedOrderMovement{
			{OrderID: uuid.New(), CarrierID: c.ID, SettlementID: uuid.New(), Amount: decimal.NewFromInt(50000)},
		}, nil)

		cid := c.ID
		report, err := svc.Backfill(context.Background(), storeID, userID, BackfillRequest{CarrierID: &cid, DryRun: true})
		require.NoError(t, err)
		assert.True(t, report.DryRun)
		assert.False(t, report.Applied)
		require.Len(t, report.Carriers, 1)
		assert.Equal(t, 1, report.Carriers[0].MissingCount)
		assert.True(t, report.Carriers[0].BalanceDelta.Equal(decimal.NewFromInt(50000)))
		m.movementRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	})

	t.Run("applies missing movements and removes duplicates", func(t *testing.T) {
		svc, m := newLedgerService()
		c := testCarrier(t, storeID)
		orderID := uuid.New()
		settlementID := uuid.New()

		first, err := ledger.NewDeliveryCollected(storeID, c.ID, orderID, decimal.NewFromInt(100000))
		require.NoError(t, err)
		dup, err := ledger.NewDeliveryCollected(storeID, c.ID, orderID, decimal.NewFromInt(100000))
		require.NoError(t, err)
		missingOrder := uuid.New()

		m.carrierRepo.On("FindByID", mock.Anything, storeID, c.ID).Return(c, nil)
		m.movementRepo.On("FindByCarrier", mock.Anything, storeID, c.ID, ledger.MovementFilter{}).Return([]*ledger.Movement{first, dup}, nil)
		m.settlementRepo.On("ExpectedOrderMovements", mock.Anything, storeID, mock.AnythingOfType("*uuid.UUID")).Return([]ledger.ExpectedOrderMovement{
			{OrderID: orderID, CarrierID: c.ID, SettlementID: settlementID, Amount: decimal.NewFromInt(100000)},
			{OrderID: missingOrder, CarrierID: c.ID, SettlementID: settlementID, Amount: decimal.NewFromInt(50000)},
		}, nil)
		m.movementRepo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(ms []*ledger.Movement) bool {
			return len(ms) == 1 && ms[0].OrderID != nil && *ms[0].OrderID == missingOrder
		})).Return(nil)
		m.movementRepo.On("Delete", mock.Anything, storeID, dup.ID).Return(nil)

		cid := c.ID
		report, err := svc.Backfill(context.Background(), storeID, userID, BackfillRequest{CarrierID: &cid})
		require.NoError(t, err)
		assert.True(t, report.Applied)
		require.Len(t, report.Carriers, 1)
		assert.Equal(t, 1, report.Carriers[0].MissingCount)
		assert.Equal(t, 1, report.Carriers[0].DuplicateCount)
		m.movementRepo.AssertExpectations(t)
	})

	t.Run("clean ledger applies nothing", func(t *testing.T) {
		svc, m := newLedgerService()
		c := testCarrier(t, storeID)
		orderID := uuid.New()

		mv, err := ledger.NewDeliveryCollected(storeID, c.ID, orderID, decimal.NewFromInt(100000))
		require.NoError(t, err)

		m.carrierRepo.On("FindByID", mock.Anything, storeID, c.ID).Return(c, nil)
		m.movementRepo.On("FindByCarrier", mock.Anything, storeID, c.ID, ledger.MovementFilter{}).Return([]*ledger.Movement{mv}, nil)
		m.settlementRepo.On("ExpectedOrderMovements", mock.Anything, storeID, mock.AnythingOfType("*uuid.UUID")).Return([]ledger.ExpectedOrderMovement{
			{OrderID: orderID, CarrierID: c.ID, SettlementID: uuid.New(), Amount: decimal.NewFromInt(100000)},
		}, nil)

		cid := c.ID
		report, err := svc.Backfill(context.Background(), storeID, userID, BackfillRequest{CarrierID: &cid})
		require.NoError(t, err)
		assert.False(t, report.Applied)
		assert.Empty(t, report.Carriers)
	})
}
