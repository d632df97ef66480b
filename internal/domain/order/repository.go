package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines read and claim operations over the order read model.
// Order creation and status changes happen upstream; the ledger only claims
// orders for dispatch and marks delivery outcomes.
type Repository interface {
	FindByID(ctx context.Context, storeID, id uuid.UUID) (*Order, error)
	// FindByIDs returns the orders for the given ids that belong to the store.
	// Missing or foreign ids are simply absent from the result.
	FindByIDs(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) ([]*Order, error)

	// FindDispatchEligible returns confirmed orders not claimed by any open
	// dispatch session, optionally filtered by carrier.
	FindDispatchEligible(ctx context.Context, storeID uuid.UUID, carrierID *uuid.UUID) ([]*Order, error)

	// FindPendingReconciliation returns shipped/delivered orders that are not
	// yet covered by a settlement line.
	FindPendingReconciliation(ctx context.Context, storeID uuid.UUID) ([]*Order, error)

	// FindBySessionID returns the orders claimed by a dispatch session.
	FindBySessionID(ctx context.Context, storeID, sessionID uuid.UUID) ([]*Order, error)

	// ClaimForSession atomically stamps sessionID on every order in ids whose
	// dispatch_session_id is still NULL. It returns the number of rows updated;
	// callers treat updated != len(ids) as a claim conflict and roll back.
	ClaimForSession(ctx context.Context, storeID, sessionID uuid.UUID, ids []uuid.UUID) (int64, error)

	// ReleaseSession clears the session claim from all orders of a session
	// (used when a session is cancelled before processing).
	ReleaseSession(ctx context.Context, storeID, sessionID uuid.UUID) error

	// MarkOutcome records the delivery outcome reported by the carrier for an
	// order: delivered orders move to delivered with the given timestamp,
	// failed attempts move back to confirmed.
	MarkOutcome(ctx context.Context, storeID, id uuid.UUID, delivered bool) error
}
