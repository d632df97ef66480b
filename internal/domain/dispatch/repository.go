package dispatch

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for dispatch sessions
type Repository interface {
	FindByID(ctx context.Context, storeID, id uuid.UUID) (*Session, error)
	FindByCode(ctx context.Context, storeID uuid.UUID, code string) (*Session, error)
	FindOpenByCarrier(ctx context.Context, storeID, carrierID uuid.UUID) ([]*Session, error)
	List(ctx context.Context, storeID uuid.UUID, status *SessionStatus, page, pageSize int) ([]*Session, int64, error)
	// Create persists a new session; a session code collision surfaces as a
	// conflict the caller retries with a regenerated code.
	Create(ctx context.Context, s *Session) error
	Save(ctx context.Context, s *Session) error
}
