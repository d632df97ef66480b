package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/codledger/backend/internal/domain/carrier"
	"github.com/codledger/backend/internal/domain/dispatch"
	"github.com/codledger/backend/internal/domain/order"
	"github.com/codledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSessionRepository is a mock implementation of dispatch.Repository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*dispatch.Session, error) {
	args := m.Called(ctx, storeID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dispatch.Session), args.Error(1)
}

func (m *MockSessionRepository) FindByCode(ctx context.Context, storeID uuid.UUID, code string) (*dispatch.Session, error) {
	args := m.Called(ctx, storeID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dispatch.Session), args.Error(1)
}

func (m *MockSessionRepository) FindOpenByCarrier(ctx context.Context, storeID, carrierID uuid.UUID) ([]*dispatch.Session, error) {
	args := m.Called(ctx, storeID, carrierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dispatch.Session), args.Error(1)
}

func (m *MockSessionRepository) List(ctx context.Context, storeID uuid.UUID, status *dispatch.SessionStatus, page, pageSize int) ([]*dispatch.Session, int64, error) {
	args := m.Called(ctx, storeID, status, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*dispatch.Session), args.Get(1).(int64), args.Error(2)
}

func (m *MockSessionRepository) Create(ctx context.Context, s *dispatch.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSessionRepository) Save(ctx context.Context, s *dispatch.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// MockOrderRepository is a mock implementation of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, storeID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByIDs(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) ([]*order.Order, error) {
	args := m.Called(ctx, storeID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindDispatchEligible(ctx context.Context, storeID uuid.UUID, carrierID *uuid.UUID) ([]*order.Order, error) {
	args := m.Called(ctx, storeID, carrierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindPendingReconciliation(ctx context.Context, storeID uuid.UUID) ([]*order.Order, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindBySessionID(ctx context.Context, storeID, sessionID uuid.UUID) ([]*order.Order, error) {
	args := m.Called(ctx, storeID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) ClaimForSession(ctx context.Context, storeID, sessionID uuid.UUID, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, storeID, sessionID, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) ReleaseSession(ctx context.Context, storeID, sessionID uuid.UUID) error {
	args := m.Called(ctx, storeID, sessionID)
	return args.Error(0)
}

func (m *MockOrderRepository) MarkOutcome(ctx context.Context, storeID, id uuid.UUID, delivered bool) error {
	args := m.Called(ctx, storeID, id, delivered)
	return args.Error(0)
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

func newTestService(sessionRepo *MockSessionRepository, orderRepo *MockOrderRepository, carrierRepo *MockCarrierRepository) *Service {
	return NewService(sessionRepo, orderRepo, carrierRepo, NewNoOpTransactionScope(sessionRepo, orderRepo))
}

func activeCarrier(t *testing.T, storeID uuid.UUID) *carrier.Carrier {
	t.Helper()
	c, err := carrier.NewCarrier(storeID, "Royal Express")
	require.NoError(t, err)
	return c
}

func confirmedOrder(storeID uuid.UUID, total int64) *order.Order {
	return &order.Order{
		BaseEntity: shared.NewBaseEntity(),
		StoreID:    storeID,
		Code:       "SO-" + uuid.NewString()[:8],
		Total:      decimal.NewFromInt(total),
		Status:     order.StatusConfirmed,
	}
}

func TestCreateSession(t *testing.T) {
	storeID := uuid.New()
	userID := uuid.New()

	t.Run("creates a session and claims all orders", func(t *testing.T) {
		sessionRepo := new(MockSessionRepository)
		orderRepo := new(MockOrderRepository)
		carrierRepo := new(MockCarrierRepository)
		svc := newTestService(sessionRepo, orderRepo, carrierRepo)

		c := activeCarrier(t, storeID)
		o1 := confirmedOrder(storeID, 100000)
		o2 := confirmedOrder(storeID, 50000)
		ids := []uuid.UUID{o1.ID, o2.ID}

		carrierRepo.On("FindByID", mock.Anything, storeID, c.ID).Return(c, nil)
		orderRepo.On("FindByIDs", mock.Anything, storeID, ids).Return([]*order.Order{o1, o2}, nil)
		sessionRepo.On("Create", mock.Anything, mock.AnythingOfType("*dispatch.Session")).Return(nil)
		orderRepo.On("ClaimForSession", mock.Anything, storeID, mock.AnythingOfType("uuid.UUID"), ids).Return(int64(2), nil)

		resp, err := svc.CreateSession(context.Background(), storeID, userID, CreateSessionRequest{CarrierID: c.ID, OrderIDs: ids})
		require.NoError(t, err)
		assert.Equal(t, string(dispatch.SessionStatusOpen), resp.Status)
		assert.Equal(t, 2, resp.OrderCount)
		sessionRepo.AssertExpectations(t)
		orderRepo.AssertExpectations(t)
	})

	t.Run("fails when the claim covers fewer orders than requested", func(t *testing.T) {
		sessionRepo := new(MockSessionRepository)
		orderRepo := new(MockOrderRepository)
		carrierRepo := new(MockCarrierRepository)
		svc := newTestService(sessionRepo, orderRepo, carrierRepo)

		c := activeCarrier(t, storeID)
		o1 := confirmedOrder(storeID, 100000)
		ids := []uuid.UUID{o1.ID}

		carrierRepo.On("FindByID", mock.Anything, storeID, c.ID).Return(c, nil)
		orderRepo.On("FindByIDs", mock.Anything, storeID, ids).Return([]*order.Order{o1}, nil)
		sessionRepo.On("Create", mock.Anything, mock.AnythingOfType("*dispatch.Session")).Return(nil)
		orderRepo.On("ClaimForSession", mock.Anything, storeID, mock.AnythingOfType("uuid.UUID"), ids).Return(int64(0), nil)

		_, err := svc.CreateSession(context.Background(), storeID, userID, CreateSessionRequest{CarrierID: c.ID, OrderIDs: ids})
		assert.ErrorIs(t, err, shared.ErrOrderAlreadyClaimed)
	})

	t.Run("rejects orders already claimed by another session", func(t *testing.T) {
		sessionRepo := new(MockSessionRepository)
		orderRepo := new(MockOrderRepository)
		carrierRepo := new(MockCarrierRepository)
		svc := newTestService(sessionRepo, orderRepo, carrierRepo)

		c := activeCarrier(t, storeID)
		o1 := confirmedOrder(storeID, 100000)
		other := uuid.New()
		o1.DispatchSessionID = &other
		ids := []uuid.UUID{o1.ID}

		carrierRepo.On("FindByID", mock.Anything, storeID, c.ID).Return(c, nil)
		orderRepo.On("FindByIDs", mock.Anything, storeID, ids).Return([]*order.Order{o1}, nil)

		_, err := svc.CreateSession(context.Background(), storeID, userID, CreateSessionRequest{CarrierID: c.ID, OrderIDs: ids})
		assert.ErrorIs(t, err, shared.ErrOrderAlreadyClaimed)
		sessionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects inactive carriers", func(t *testing.T) {
		sessionRepo := new(MockSessionRepository)
		orderRepo := new(MockOrderRepository)
		carrierRepo := new(MockCarrierRepository)
		svc := newTestService(sessionRepo, orderRepo, carrierRepo)

		c := activeCarrier(t, storeID)
		c.Deactivate()
		carrierRepo.On("FindByID", mock.Anything, storeID, c.ID).Return(c, nil)

		_, err := svc.CreateSession(context.Background(), storeID, userID, CreateSessionRequest{CarrierID: c.ID, OrderIDs: []uuid.UUID{uuid.New()}})
		assert.True(t, shared.IsCode(err, "CARRIER_INACTIVE"))
	})

	t.Run("rejects non-eligible orders", func(t *testing.T) {
		sessionRepo := new(MockSessionRepository)
		orderRepo := new(MockOrderRepository)
		carrierRepo := new(MockCarrierRepository)
		svc := newTestService(sessionRepo, orderRepo, carrierRepo)

		c := activeCarrier(t, storeID)
		o1 := confirmedOrder(storeID, 100000)
		o1.Status = order.StatusDelivered
		ids := []uuid.UUID{o1.ID}

		carrierRepo.On("FindByID", mock.Anything, storeID, c.ID).Return(c, nil)
		orderRepo.On("FindByIDs", mock.Anything, storeID, ids).Return([]*order.Order{o1}, nil)

		_, err := svc.CreateSession(context.Background(), storeID, userID, CreateSessionRequest{CarrierID: c.ID, OrderIDs: ids})
		assert.True(t, shared.IsCode(err, "ORDER_NOT_ELIGIBLE"))
	})
}

func TestImportResults(t *testing.T) {
	storeID := uuid.New()

	setup := func(t *testing.T) (*Service, *MockSessionRepository, *MockOrderRepository, *dispatch.Session, []*order.Order) {
		t.Helper()
		sessionRepo := new(MockSessionRepository)
		orderRepo := new(MockOrderRepository)
		carrierRepo := new(MockCarrierRepository)
		svc := newTestService(sessionRepo, orderRepo, carrierRepo)

		session, err := dispatch.NewSession(storeID, uuid.New(), uuid.New(), 2)
		require.NoError(t, err)
		o1 := confirmedOrder(storeID, 100000)
		o2 := confirmedOrder(storeID, 50000)
		for _, o := range []*order.Order{o1, o2} {
			id := session.ID
			o.DispatchSessionID = &id
			o.Status = order.StatusShipped
		}
		return svc, sessionRepo, orderRepo, session, []*order.Order{o1, o2}
	}

	t.Run("applies valid rows and reports skipped ones", func(t *testing.T) {
		svc, sessionRepo, orderRepo, session, orders := setup(t)

		sessionRepo.On("FindByID", mock.Anything, storeID, session.ID).Return(session, nil)
		orderRepo.On("FindBySessionID", mock.Anything, storeID, session.ID).Return(orders, nil)
		sessionRepo.On("Save", mock.Anything, session).Return(nil)
		orderRepo.On("MarkOutcome", mock.Anything, storeID, orders[0].ID, true).Return(nil)

		report, err := svc.ImportResults(context.Background(), storeID, session.ID, ImportResultsRequest{
			Results: []ResultRow{
				{OrderID: orders[0].ID, Delivered: true, CollectedAmount: decimal.NewFromInt(100000)},
				{OrderID: uuid.New(), Delivered: true, CollectedAmount: decimal.NewFromInt(999)},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Imported)
		require.Len(t, report.Skipped, 1)
		assert.Equal(t, 2, report.Skipped[0].Row)
		assert.Equal(t, string(dispatch.SessionStatusResultsImported), report.Session.Status)
	})

	t.Run("resolves rows by order code", func(t *testing.T) {
		svc, sessionRepo, orderRepo, session, orders := setup(t)

		sessionRepo.On("FindByID", mock.Anything, storeID, session.ID).Return(session, nil)
		orderRepo.On("FindBySessionID", mock.Anything, storeID, session.ID).Return(orders, nil)
		sessionRepo.On("Save", mock.Anything, session).Return(nil)
		orderRepo.On("MarkOutcome", mock.Anything, storeID, orders[1].ID, false).Return(nil)

		report, err := svc.ImportResults(context.Background(), storeID, session.ID, ImportResultsRequest{
			Results: []ResultRow{
				{OrderCode: orders[1].Code, Delivered: false, CollectedAmount: decimal.Zero},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Imported)
		assert.Empty(t, report.Skipped)
	})

	t.Run("rejects submissions with no valid rows", func(t *testing.T) {
		svc, sessionRepo, orderRepo, session, orders := setup(t)

		sessionRepo.On("FindByID", mock.Anything, storeID, session.ID).Return(session, nil)
		orderRepo.On("FindBySessionID", mock.Anything, storeID, session.ID).Return(orders, nil)

		_, err := svc.ImportResults(context.Background(), storeID, session.ID, ImportResultsRequest{
			Results: []ResultRow{
				{OrderID: uuid.New(), Delivered: true, CollectedAmount: decimal.NewFromInt(10)},
			},
		})
		assert.True(t, shared.IsCode(err, "NO_VALID_ROWS"))
	})

	t.Run("rejects collected cash on undelivered rows", func(t *testing.T) {
		svc, sessionRepo, orderRepo, session, orders := setup(t)

		sessionRepo.On("FindByID", mock.Anything, storeID, session.ID).Return(session, nil)
		orderRepo.On("FindBySessionID", mock.Anything, storeID, session.ID).Return(orders, nil)

		_, err := svc.ImportResults(context.Background(), storeID, session.ID, ImportResultsRequest{
			Results: []ResultRow{
				{OrderID: orders[0].ID, Delivered: false, CollectedAmount: decimal.NewFromInt(10)},
			},
		})
		assert.True(t, shared.IsCode(err, "NO_VALID_ROWS"))
	})
}

func TestCancelSession(t *testing.T) {
	storeID := uuid.New()

	sessionRepo := new(MockSessionRepository)
	orderRepo := new(MockOrderRepository)
	carrierRepo := new(MockCarrierRepository)
	svc := newTestService(sessionRepo, orderRepo, carrierRepo)

	session, err := dispatch.NewSession(storeID, uuid.New(), uuid.New(), 1)
	require.NoError(t, err)

	sessionRepo.On("FindByID", mock.Anything, storeID, session.ID).Return(session, nil)
	sessionRepo.On("Save", mock.Anything, session).Return(nil)
	orderRepo.On("ReleaseSession", mock.Anything, storeID, session.ID).Return(nil)

	resp, err := svc.CancelSession(context.Background(), storeID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, string(dispatch.SessionStatusCancelled), resp.Status)
	orderRepo.AssertCalled(t, "ReleaseSession", mock.Anything, storeID, session.ID)
}

func TestPendingReconciliation(t *testing.T) {
	storeID := uuid.New()
	carrierID := uuid.New()

	sessionRepo := new(MockSessionRepository)
	orderRepo := new(MockOrderRepository)
	carrierRepo := new(MockCarrierRepository)
	svc := newTestService(sessionRepo, orderRepo, carrierRepo)

	yangon, err := time.LoadLocation("Asia/Yangon")
	require.NoError(t, err)

	// 17:30 UTC on Nov 20 is already Nov 21 in Yangon
	d1 := time.Date(2024, 11, 20, 10, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 11, 20, 17, 30, 0, 0, time.UTC)

	o1 := confirmedOrder(storeID, 100000)
	o1.CarrierID = &carrierID
	o1.Status = order.StatusDelivered
	o1.DeliveredAt = &d1
	o2 := confirmedOrder(storeID, 50000)
	o2.CarrierID = &carrierID
	o2.Status = order.StatusDelivered
	o2.DeliveredAt = &d2
	inTransit := confirmedOrder(storeID, 30000)
	inTransit.CarrierID = &carrierID
	inTransit.Status = order.StatusShipped

	orderRepo.On("FindPendingReconciliation", mock.Anything, storeID).Return([]*order.Order{o1, o2, inTransit}, nil)

	groups, err := svc.PendingReconciliation(context.Background(), storeID, yangon)
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.True(t, groups[0].AwaitingDelivery, "undated orders go in an awaiting-delivery bucket")
	assert.Empty(t, groups[0].DeliveryDate)
	assert.True(t, groups[0].ExpectedCash.Equal(decimal.NewFromInt(30000)))

	assert.Equal(t, "2024-11-20", groups[1].DeliveryDate)
	assert.False(t, groups[1].AwaitingDelivery)
	assert.True(t, groups[1].ExpectedCash.Equal(decimal.NewFromInt(100000)))
	assert.Equal(t, "2024-11-21", groups[2].DeliveryDate)
	assert.True(t, groups[2].ExpectedCash.Equal(decimal.NewFromInt(50000)))
}
