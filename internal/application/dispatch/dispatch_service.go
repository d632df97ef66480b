package dispatch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/codledger/backend/internal/domain/carrier"
	"github.com/codledger/backend/internal/domain/dispatch"
	"github.com/codledger/backend/internal/domain/order"
	"github.com/codledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// codeRetries bounds how often a document code is regenerated after a
// uniqueness collision before giving up.
const codeRetries = 3

// ExportRow is one line of a session export file
type ExportRow struct {
	OrderCode       string
	Amount          decimal.Decimal
	Delivered       *bool
	CollectedAmount decimal.Decimal
}

// Exporter renders a session and its rows into a downloadable sheet
type Exporter interface {
	SessionWorkbook(sessionCode string, rows []ExportRow) ([]byte, error)
	SessionCSV(sessionCode string, rows []ExportRow) ([]byte, error)
}

// ArchiveStore keeps a copy of generated export files and returns a stable URL
type ArchiveStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// Service handles dispatch session operations: listing eligible orders,
// opening sessions, recording delivery outcomes and exporting session sheets.
type Service struct {
	sessionRepo    dispatch.Repository
	orderRepo      order.Repository
	carrierRepo    carrier.Repository
	txScope        TransactionScope
	exporter       Exporter
	archive        ArchiveStore
	eventPublisher shared.EventPublisher
}

// NewService creates a dispatch Service
func NewService(sessionRepo dispatch.Repository, orderRepo order.Repository, carrierRepo carrier.Repository, txScope TransactionScope) *Service {
	return &Service{
		sessionRepo: sessionRepo,
		orderRepo:   orderRepo,
		carrierRepo: carrierRepo,
		txScope:     txScope,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetExporter wires the export renderer and optional archive store
func (s *Service) SetExporter(exporter Exporter, archive ArchiveStore) {
	s.exporter = exporter
	s.archive = archive
}

// EligibleOrders lists confirmed orders not claimed by any open session,
// optionally narrowed to one carrier.
func (s *Service) EligibleOrders(ctx context.Context, storeID uuid.UUID, carrierID *uuid.UUID) ([]EligibleOrderResponse, error) {
	orders, err := s.orderRepo.FindDispatchEligible(ctx, storeID, carrierID)
	if err != nil {
		return nil, err
	}
	resp := make([]EligibleOrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, ToEligibleOrderResponse(o))
	}
	return resp, nil
}

// PendingReconciliation groups unsettled shipped/delivered orders by carrier
// and store-local delivery date. Each group is one candidate settlement.
// Shipped orders without a recorded delivery carry no date; they land in one
// awaiting-delivery bucket per carrier instead of a date group.
func (s *Service) PendingReconciliation(ctx context.Context, storeID uuid.UUID, loc *time.Location) ([]ReconciliationGroup, error) {
	orders, err := s.orderRepo.FindPendingReconciliation(ctx, storeID)
	if err != nil {
		return nil, err
	}

	type key struct {
		carrierID uuid.UUID
		date      string
	}
	groups := make(map[key]*ReconciliationGroup)
	for _, o := range orders {
		if o.CarrierID == nil {
			continue
		}
		date, delivered := o.DeliveryDate(loc)
		k := key{carrierID: *o.CarrierID, date: date}
		g, ok := groups[k]
		if !ok {
			g = &ReconciliationGroup{
				CarrierID:        k.carrierID,
				DeliveryDate:     date,
				AwaitingDelivery: !delivered,
				ExpectedCash:     decimal.Zero,
			}
			groups[k] = g
		}
		g.Orders = append(g.Orders, ToEligibleOrderResponse(o))
		g.OrderCount++
		g.ExpectedCash = g.ExpectedCash.Add(o.Total)
	}

	result := make([]ReconciliationGroup, 0, len(groups))
	for _, g := range groups {
		result = append(result, *g)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DeliveryDate != result[j].DeliveryDate {
			return result[i].DeliveryDate < result[j].DeliveryDate
		}
		return result[i].CarrierID.String() < result[j].CarrierID.String()
	})
	return result, nil
}

// CreateSession opens a dispatch session and claims its orders atomically.
// Any order already claimed by another open session fails the whole request.
func (s *Service) CreateSession(ctx context.Context, storeID, userID uuid.UUID, req CreateSessionRequest) (*SessionResponse, error) {
	c, err := s.carrierRepo.FindByID(ctx, storeID, req.CarrierID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive {
		return nil, shared.NewConflictError("CARRIER_INACTIVE", "Carrier is deactivated and cannot receive new dispatches")
	}

	orders, err := s.orderRepo.FindByIDs(ctx, storeID, req.OrderIDs)
	if err != nil {
		return nil, err
	}
	if len(orders) != len(req.OrderIDs) {
		return nil, shared.NewNotFoundError("ORDERS_NOT_FOUND", "One or more orders do not exist in this store")
	}
	for _, o := range orders {
		if o.IsClaimed() {
			return nil, shared.ErrOrderAlreadyClaimed
		}
		if !o.Status.IsDispatchEligible() {
			return nil, shared.NewValidationError("ORDER_NOT_ELIGIBLE", fmt.Sprintf("Order %s is %s and cannot be dispatched", o.Code, o.Status))
		}
	}

	session, err := dispatch.NewSession(storeID, req.CarrierID, userID, len(req.OrderIDs))
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := createWithCodeRetry(ctx, repos.SessionRepo(), session); err != nil {
			return err
		}
		updated, err := repos.OrderRepo().ClaimForSession(ctx, storeID, session.ID, req.OrderIDs)
		if err != nil {
			return err
		}
		if updated != int64(len(req.OrderIDs)) {
			return shared.ErrOrderAlreadyClaimed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, session)
	resp := ToSessionResponse(session)
	return &resp, nil
}

// GetSession retrieves a session by id
func (s *Service) GetSession(ctx context.Context, storeID, sessionID uuid.UUID) (*SessionResponse, error) {
	session, err := s.sessionRepo.FindByID(ctx, storeID, sessionID)
	if err != nil {
		return nil, err
	}
	resp := ToSessionResponse(session)
	return &resp, nil
}

// GetSessionByCode retrieves a session by its document code
func (s *Service) GetSessionByCode(ctx context.Context, storeID uuid.UUID, code string) (*SessionResponse, error) {
	session, err := s.sessionRepo.FindByCode(ctx, storeID, code)
	if err != nil {
		return nil, err
	}
	resp := ToSessionResponse(session)
	return &resp, nil
}

// ListSessions lists sessions with optional status filtering
func (s *Service) ListSessions(ctx context.Context, storeID uuid.UUID, filter SessionListFilter) ([]SessionResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	var status *dispatch.SessionStatus
	if filter.Status != nil {
		st := dispatch.SessionStatus(*filter.Status)
		if !st.IsValid() {
			return nil, 0, shared.NewValidationError("INVALID_STATUS", "Unknown session status")
		}
		status = &st
	}
	sessions, total, err := s.sessionRepo.List(ctx, storeID, status, filter.Page, filter.PageSize)
	if err != nil {
		return nil, 0, err
	}
	resp := make([]SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		resp = append(resp, ToSessionResponse(session))
	}
	return resp, total, nil
}

// ImportResults records delivery outcomes for a session. Valid rows are
// applied even when other rows fail; the report names every skipped row so the
// caller can correct and resubmit just those.
func (s *Service) ImportResults(ctx context.Context, storeID, sessionID uuid.UUID, req ImportResultsRequest) (*ImportReport, error) {
	session, err := s.sessionRepo.FindByID(ctx, storeID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.IsTerminal() {
		return nil, shared.ErrAlreadySettled
	}

	orders, err := s.orderRepo.FindBySessionID(ctx, storeID, sessionID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*order.Order, len(orders))
	byCode := make(map[string]*order.Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		byCode[o.Code] = o
	}

	now := time.Now()
	var results []dispatch.Result
	var skipped []RowError
	for i, row := range req.Results {
		o := byID[row.OrderID]
		if o == nil && row.OrderCode != "" {
			o = byCode[row.OrderCode]
		}
		if o == nil {
			skipped = append(skipped, RowError{Row: i + 1, Reason: "order does not belong to this session"})
			continue
		}
		if row.CollectedAmount.IsNegative() {
			skipped = append(skipped, RowError{Row: i + 1, Reason: "collected amount cannot be negative"})
			continue
		}
		if !row.Delivered && row.CollectedAmount.IsPositive() {
			skipped = append(skipped, RowError{Row: i + 1, Reason: "collected amount on an undelivered order"})
			continue
		}
		results = append(results, dispatch.Result{
			OrderID:         o.ID,
			Delivered:       row.Delivered,
			CollectedAmount: row.CollectedAmount,
			RecordedAt:      now,
		})
	}
	if len(results) == 0 {
		return nil, shared.NewValidationError("NO_VALID_ROWS", "No valid delivery results in the submission")
	}

	if err := session.RecordResults(results); err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.SessionRepo().Save(ctx, session); err != nil {
			return err
		}
		for _, r := range results {
			if err := repos.OrderRepo().MarkOutcome(ctx, storeID, r.OrderID, r.Delivered); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, session)
	return &ImportReport{
		Session:  ToSessionResponse(session),
		Imported: len(results),
		Skipped:  skipped,
	}, nil
}

// CancelSession abandons a session and releases its orders for re-dispatch
func (s *Service) CancelSession(ctx context.Context, storeID, sessionID uuid.UUID) (*SessionResponse, error) {
	session, err := s.sessionRepo.FindByID(ctx, storeID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.Cancel(); err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.SessionRepo().Save(ctx, session); err != nil {
			return err
		}
		return repos.OrderRepo().ReleaseSession(ctx, storeID, sessionID)
	})
	if err != nil {
		return nil, err
	}

	resp := ToSessionResponse(session)
	return &resp, nil
}

// ExportSession renders the session's orders and outcomes into a sheet the
// carrier can fill in or the store can file. Format is "xlsx" (default) or
// "csv". When an archive store is wired a copy is uploaded and its URL
// returned.
func (s *Service) ExportSession(ctx context.Context, storeID, sessionID uuid.UUID, format string) (*ExportFile, error) {
	if s.exporter == nil {
		return nil, shared.NewDomainError(shared.KindInternal, "EXPORT_UNAVAILABLE", "No export renderer configured")
	}
	if format == "" {
		format = "xlsx"
	}
	if format != "xlsx" && format != "csv" {
		return nil, shared.NewDomainError(shared.KindValidation, "INVALID_FORMAT", "Export format must be csv or xlsx")
	}
	session, err := s.sessionRepo.FindByID(ctx, storeID, sessionID)
	if err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.FindBySessionID(ctx, storeID, sessionID)
	if err != nil {
		return nil, err
	}

	rows := make([]ExportRow, 0, len(orders))
	for _, o := range orders {
		row := ExportRow{OrderCode: o.Code, Amount: o.Total, CollectedAmount: decimal.Zero}
		if r, ok := session.ResultFor(o.ID); ok {
			delivered := r.Delivered
			row.Delivered = &delivered
			row.CollectedAmount = r.CollectedAmount
		}
		rows = append(rows, row)
	}

	var (
		content     []byte
		contentType string
	)
	if format == "csv" {
		content, err = s.exporter.SessionCSV(session.Code, rows)
		contentType = "text/csv"
	} else {
		content, err = s.exporter.SessionWorkbook(session.Code, rows)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		return nil, err
	}

	file := &ExportFile{
		Filename:    fmt.Sprintf("%s.%s", session.Code, format),
		ContentType: contentType,
		Content:     content,
	}
	if s.archive != nil {
		key := fmt.Sprintf("exports/%s/%s", storeID, file.Filename)
		url, err := s.archive.Put(ctx, key, file.ContentType, content)
		if err == nil {
			file.ArchiveURL = url
		}
	}
	return file, nil
}

// createWithCodeRetry persists a session, regenerating the code on a
// uniqueness collision.
func createWithCodeRetry(ctx context.Context, repo dispatch.Repository, session *dispatch.Session) error {
	var err error
	for attempt := 0; attempt < codeRetries; attempt++ {
		if err = repo.Create(ctx, session); err == nil {
			return nil
		}
		if !shared.IsCode(err, "DUPLICATE_CODE") {
			return err
		}
		session.RegenerateCode()
	}
	return err
}

func (s *Service) publishEvents(ctx context.Context, session *dispatch.Session) {
	if s.eventPublisher == nil {
		return
	}
	events := session.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	session.ClearDomainEvents()
}
