package dispatch

import (
	"time"

	"github.com/codledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionCodePrefix prefixes every dispatch session code
const SessionCodePrefix = "DS"

// SessionStatus is the lifecycle state of a dispatch session
type SessionStatus string

const (
	// SessionStatusOpen means the batch has been handed to the carrier and
	// delivery outcomes are not yet known
	SessionStatusOpen SessionStatus = "open"
	// SessionStatusResultsImported means delivery outcomes have been recorded
	SessionStatusResultsImported SessionStatus = "results_imported"
	// SessionStatusSettled means a settlement was produced from this session (terminal)
	SessionStatusSettled SessionStatus = "settled"
	// SessionStatusCancelled means the session was abandoned before settlement (terminal)
	SessionStatusCancelled SessionStatus = "cancelled"
)

// IsValid returns true if the status is a known session status
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusOpen, SessionStatusResultsImported, SessionStatusSettled, SessionStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusSettled || s == SessionStatusCancelled
}

// Result is one delivery outcome reported by the carrier for an order in the session
type Result struct {
	OrderID         uuid.UUID
	Delivered       bool
	CollectedAmount decimal.Decimal // cash the carrier reports for this order; zero when not delivered
	RecordedAt      time.Time
}

// Session is a batch of orders handed to one carrier for delivery, tracked
// until outcomes are known and a settlement is produced.
type Session struct {
	shared.StoreAggregateRoot
	Code       string
	CarrierID  uuid.UUID
	Status     SessionStatus
	OrderCount int
	Results    []Result
}

// NewSession creates an open dispatch session for a carrier. The order claim
// itself happens in the same transaction through the order repository.
func NewSession(storeID, carrierID, createdBy uuid.UUID, orderCount int) (*Session, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_STORE", "Store ID cannot be empty")
	}
	if carrierID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CARRIER", "Carrier ID cannot be empty")
	}
	if orderCount <= 0 {
		return nil, shared.NewValidationError("EMPTY_SESSION", "A dispatch session needs at least one order")
	}
	s := &Session{
		StoreAggregateRoot: shared.NewStoreAggregateRootWithCreator(storeID, createdBy),
		Code:               shared.NewDocumentCode(SessionCodePrefix, time.Now()),
		CarrierID:          carrierID,
		Status:             SessionStatusOpen,
		OrderCount:         orderCount,
	}
	s.AddDomainEvent(NewSessionCreatedEvent(s))
	return s, nil
}

// RegenerateCode assigns a fresh session code after a uniqueness collision
func (s *Session) RegenerateCode() {
	s.Code = shared.NewDocumentCode(SessionCodePrefix, time.Now())
}

// RecordResults appends delivery outcomes and moves the session to
// results_imported. Importing again before settlement replaces the outcome for
// orders that appear a second time (last write wins per order).
func (s *Session) RecordResults(results []Result) error {
	if s.Status.IsTerminal() {
		return shared.ErrAlreadySettled
	}
	if len(results) == 0 {
		return shared.NewValidationError("EMPTY_RESULTS", "No delivery results to record")
	}
	byOrder := make(map[uuid.UUID]int, len(s.Results))
	for i, r := range s.Results {
		byOrder[r.OrderID] = i
	}
	for _, r := range results {
		if i, ok := byOrder[r.OrderID]; ok {
			s.Results[i] = r
			continue
		}
		byOrder[r.OrderID] = len(s.Results)
		s.Results = append(s.Results, r)
	}
	s.Status = SessionStatusResultsImported
	s.IncrementVersion()
	s.AddDomainEvent(NewResultsImportedEvent(s, len(results)))
	return nil
}

// MarkSettled transitions the session to its terminal settled state.
// Requires imported results; expected-vs-collected cannot be computed from an
// open session.
func (s *Session) MarkSettled() error {
	switch s.Status {
	case SessionStatusResultsImported:
		s.Status = SessionStatusSettled
		s.IncrementVersion()
		s.AddDomainEvent(NewSessionSettledEvent(s))
		return nil
	case SessionStatusSettled:
		return shared.ErrAlreadySettled
	default:
		return shared.NewConflictError("RESULTS_NOT_IMPORTED", "Delivery results must be imported before settlement")
	}
}

// Cancel abandons an open session so its orders can be re-dispatched
func (s *Session) Cancel() error {
	if s.Status == SessionStatusSettled {
		return shared.ErrAlreadySettled
	}
	if s.Status == SessionStatusCancelled {
		return shared.ErrInvalidState
	}
	s.Status = SessionStatusCancelled
	s.IncrementVersion()
	return nil
}

// CollectedTotal sums the collected amounts across recorded results
func (s *Session) CollectedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, r := range s.Results {
		total = total.Add(r.CollectedAmount)
	}
	return total
}

// DeliveredCount returns how many recorded results are deliveries
func (s *Session) DeliveredCount() int {
	n := 0
	for _, r := range s.Results {
		if r.Delivered {
			n++
		}
	}
	return n
}

// ResultFor returns the recorded outcome for an order, if any
func (s *Session) ResultFor(orderID uuid.UUID) (Result, bool) {
	for _, r := range s.Results {
		if r.OrderID == orderID {
			return r, true
		}
	}
	return Result{}, false
}
