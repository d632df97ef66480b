package dispatch

import (
	"github.com/codledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types for the dispatch session aggregate
const (
	EventTypeSessionCreated  = "dispatch.session_created"
	EventTypeResultsImported = "dispatch.results_imported"
	EventTypeSessionSettled  = "dispatch.session_settled"
)

// SessionCreatedEvent is raised when a batch of orders is handed to a carrier
type SessionCreatedEvent struct {
	shared.BaseDomainEvent
	SessionCode string    `json:"session_code"`
	CarrierID   uuid.UUID `json:"carrier_id"`
	OrderCount  int       `json:"order_count"`
}

// NewSessionCreatedEvent creates a SessionCreatedEvent
func NewSessionCreatedEvent(s *Session) *SessionCreatedEvent {
	return &SessionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionCreated, s.ID, "DispatchSession", s.StoreID),
		SessionCode:     s.Code,
		CarrierID:       s.CarrierID,
		OrderCount:      s.OrderCount,
	}
}

// ResultsImportedEvent is raised when delivery outcomes are recorded
type ResultsImportedEvent struct {
	shared.BaseDomainEvent
	SessionCode string `json:"session_code"`
	RowCount    int    `json:"row_count"`
}

// NewResultsImportedEvent creates a ResultsImportedEvent
func NewResultsImportedEvent(s *Session, rows int) *ResultsImportedEvent {
	return &ResultsImportedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeResultsImported, s.ID, "DispatchSession", s.StoreID),
		SessionCode:     s.Code,
		RowCount:        rows,
	}
}

// SessionSettledEvent is raised when a settlement is produced from the session
type SessionSettledEvent struct {
	shared.BaseDomainEvent
	SessionCode string `json:"session_code"`
}

// NewSessionSettledEvent creates a SessionSettledEvent
func NewSessionSettledEvent(s *Session) *SessionSettledEvent {
	return &SessionSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionSettled, s.ID, "DispatchSession", s.StoreID),
		SessionCode:     s.Code,
	}
}
