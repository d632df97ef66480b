package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/codledger/backend/internal/domain/carrier"
	"github.com/codledger/backend/internal/domain/dispatch"
	"github.com/codledger/backend/internal/domain/order"
	"github.com/codledger/backend/internal/domain/settlement"
	"github.com/codledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const codeRetries = 3

// Service turns dispatch sessions and delivery reports into settlements and
// their ledger movements. Both entry points reduce to a settlement draft and
// share one computation, so the ledger is written by exactly one code path.
type Service struct {
	settlementRepo settlement.Repository
	sessionRepo    dispatch.Repository
	orderRepo      order.Repository
	carrierRepo    carrier.Repository
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
	loc            *time.Location
}

// NewService creates a settlement Service. loc is the store-local timezone all
// settlement dates are truncated in.
func NewService(
	settlementRepo settlement.Repository,
	sessionRepo dispatch.Repository,
	orderRepo order.Repository,
	carrierRepo carrier.Repository,
	txScope TransactionScope,
	loc *time.Location,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		settlementRepo: settlementRepo,
		sessionRepo:    sessionRepo,
		orderRepo:      orderRepo,
		carrierRepo:    carrierRepo,
		txScope:        txScope,
		loc:            loc,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// ProcessSession settles a dispatch session whose delivery results have been
// imported. The session transition, the settlement and its movements commit in
// one transaction; a settlement already existing for the (carrier, date) pair
// fails the whole request.
func (s *Service) ProcessSession(ctx context.Context, storeID, userID, sessionID uuid.UUID, req ProcessSessionRequest) (*SettlementResponse, error) {
	session, err := s.sessionRepo.FindByID(ctx, storeID, sessionID)
	if err != nil {
		return nil, err
	}

	c, err := s.carrierRepo.FindByID(ctx, storeID, session.CarrierID)
	if err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.FindBySessionID(ctx, storeID, sessionID)
	if err != nil {
		return nil, err
	}

	date := time.Now()
	if req.SettlementDate != nil {
		date = *req.SettlementDate
	}

	// every claimed order becomes a line; orders without a recorded outcome
	// count as failed attempts
	lines := make([]settlement.DraftLine, 0, len(orders))
	for _, o := range orders {
		line := settlement.DraftLine{OrderID: o.ID, Amount: o.Total}
		if r, ok := session.ResultFor(o.ID); ok {
			line.Delivered = r.Delivered
		}
		lines = append(lines, line)
	}

	draft := settlement.Draft{
		StoreID:            storeID,
		CarrierID:          session.CarrierID,
		CreatedBy:          userID,
		SessionID:          &session.ID,
		SettlementDate:     settlement.TruncateToDate(date, s.loc),
		Source:             settlement.SourceDispatchSession,
		Lines:              lines,
		CollectedCash:      session.CollectedTotal(),
		DiscrepancyNotes:   req.DiscrepancyNotes,
		ConfirmDiscrepancy: req.ConfirmDiscrepancy,
	}

	result, err := settlement.Compute(draft, c.Config)
	if err != nil {
		return nil, err
	}

	if err := session.MarkSettled(); err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.SessionRepo().Save(ctx, session); err != nil {
			return err
		}
		if err := createWithCodeRetry(ctx, repos.SettlementRepo(), result.Settlement); err != nil {
			return err
		}
		// free the orders for future dispatch; failed attempts go out again
		if err := repos.OrderRepo().ReleaseSession(ctx, storeID, session.ID); err != nil {
			return err
		}
		if len(result.Movements) > 0 {
			return repos.MovementRepo().CreateBatch(ctx, result.Movements)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, session.GetDomainEvents())
	session.ClearDomainEvents()
	s.publishEvents(ctx, result.Settlement.GetDomainEvents())
	result.Settlement.ClearDomainEvents()

	resp := ToSettlementResponse(result.Settlement)
	resp.Warnings = result.Warnings
	return &resp, nil
}

// Reconcile settles a set of orders directly from delivery data, the
// session-less workflow for carriers that report via their own portal.
func (s *Service) Reconcile(ctx context.Context, storeID, userID uuid.UUID, req ReconcileRequest) (*SettlementResponse, error) {
	c, err := s.carrierRepo.FindByID(ctx, storeID, req.CarrierID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(req.Lines))
	for _, l := range req.Lines {
		ids = append(ids, l.OrderID)
	}
	orders, err := s.orderRepo.FindByIDs(ctx, storeID, ids)
	if err != nil {
		return nil, err
	}
	if len(orders) != len(ids) {
		return nil, shared.NewNotFoundError("ORDERS_NOT_FOUND", "One or more orders do not exist in this store")
	}

	settled, err := s.settlementRepo.SettledOrderIDs(ctx, storeID)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*order.Order, len(orders))
	for _, o := range orders {
		if o.CarrierID == nil || *o.CarrierID != req.CarrierID {
			return nil, shared.NewValidationError("WRONG_CARRIER", fmt.Sprintf("Order %s is not assigned to this carrier", o.Code))
		}
		if !o.Status.IsReconciliationEligible() {
			return nil, shared.NewValidationError("ORDER_NOT_ELIGIBLE", fmt.Sprintf("Order %s is %s and cannot be reconciled", o.Code, o.Status))
		}
		if _, done := settled[o.ID]; done {
			return nil, shared.NewConflictError("ORDER_ALREADY_SETTLED", fmt.Sprintf("Order %s is already covered by a settlement", o.Code))
		}
		byID[o.ID] = o
	}

	lines := make([]settlement.DraftLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, settlement.DraftLine{
			OrderID:   l.OrderID,
			Amount:    byID[l.OrderID].Total,
			Delivered: l.Delivered,
		})
	}

	draft := settlement.Draft{
		StoreID:            storeID,
		CarrierID:          req.CarrierID,
		CreatedBy:          userID,
		SettlementDate:     settlement.TruncateToDate(req.SettlementDate, s.loc),
		Source:             settlement.SourceDeliveryReport,
		Lines:              lines,
		CollectedCash:      req.CollectedCash,
		DiscrepancyNotes:   req.DiscrepancyNotes,
		ConfirmDiscrepancy: req.ConfirmDiscrepancy,
	}

	result, err := settlement.Compute(draft, c.Config)
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := createWithCodeRetry(ctx, repos.SettlementRepo(), result.Settlement); err != nil {
			return err
		}
		for _, l := range req.Lines {
			if err := repos.OrderRepo().MarkOutcome(ctx, storeID, l.OrderID, l.Delivered); err != nil {
				return err
			}
		}
		if len(result.Movements) > 0 {
			return repos.MovementRepo().CreateBatch(ctx, result.Movements)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, result.Settlement.GetDomainEvents())
	result.Settlement.ClearDomainEvents()

	resp := ToSettlementResponse(result.Settlement)
	resp.Warnings = result.Warnings
	return &resp, nil
}

// Get retrieves a settlement by id
func (s *Service) Get(ctx context.Context, storeID, id uuid.UUID) (*SettlementResponse, error) {
	st, err := s.settlementRepo.FindByID(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	resp := ToSettlementResponse(st)
	return &resp, nil
}

// GetByCode retrieves a settlement by its document code
func (s *Service) GetByCode(ctx context.Context, storeID uuid.UUID, code string) (*SettlementResponse, error) {
	st, err := s.settlementRepo.FindByCode(ctx, storeID, code)
	if err != nil {
		return nil, err
	}
	resp := ToSettlementResponse(st)
	return &resp, nil
}

// List lists settlements with filtering and pagination
func (s *Service) List(ctx context.Context, storeID uuid.UUID, filter ListFilter) ([]SettlementResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	domainFilter := settlement.ListFilter{
		CarrierID: filter.CarrierID,
		DateFrom:  filter.DateFrom,
		DateTo:    filter.DateTo,
		Page:      filter.Page,
		PageSize:  filter.PageSize,
	}
	if filter.Status != nil {
		st := settlement.Status(*filter.Status)
		if !st.IsValid() {
			return nil, 0, shared.NewValidationError("INVALID_STATUS", "Unknown settlement status")
		}
		domainFilter.Status = &st
	}
	settlements, total, err := s.settlementRepo.List(ctx, storeID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	resp := make([]SettlementResponse, 0, len(settlements))
	for _, st := range settlements {
		resp = append(resp, ToSettlementResponse(st))
	}
	return resp, total, nil
}

// ConfirmDiscrepancy acknowledges a cash mismatch, completing the settlement
func (s *Service) ConfirmDiscrepancy(ctx context.Context, storeID, id uuid.UUID, req ConfirmDiscrepancyRequest) (*SettlementResponse, error) {
	st, err := s.settlementRepo.FindByID(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	if err := st.ConfirmDiscrepancy(req.Notes); err != nil {
		return nil, err
	}
	if err := s.settlementRepo.Save(ctx, st); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, st.GetDomainEvents())
	st.ClearDomainEvents()
	resp := ToSettlementResponse(st)
	return &resp, nil
}

// RecordPayment attaches payment metadata to a completed settlement
func (s *Service) RecordPayment(ctx context.Context, storeID, id uuid.UUID, req RecordPaymentRequest) (*SettlementResponse, error) {
	st, err := s.settlementRepo.FindByID(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	if err := st.RecordPayment(req.PaymentMethod, req.PaymentReference); err != nil {
		return nil, err
	}
	if err := s.settlementRepo.Save(ctx, st); err != nil {
		return nil, err
	}
	resp := ToSettlementResponse(st)
	return &resp, nil
}

// createWithCodeRetry persists a settlement, regenerating its code on a code
// collision. A (store, carrier, date) duplicate is not retried; it surfaces as
// shared.ErrDuplicateSettlement.
func createWithCodeRetry(ctx context.Context, repo settlement.Repository, st *settlement.Settlement) error {
	var err error
	for attempt := 0; attempt < codeRetries; attempt++ {
		if err = repo.Create(ctx, st); err == nil {
			return nil
		}
		if !shared.IsCode(err, "DUPLICATE_CODE") {
			return err
		}
		st.RegenerateCode()
	}
	return err
}

func (s *Service) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}
