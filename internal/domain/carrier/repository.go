package carrier

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for carriers
type Repository interface {
	FindByID(ctx context.Context, storeID, id uuid.UUID) (*Carrier, error)
	FindAll(ctx context.Context, storeID uuid.UUID, activeOnly bool) ([]*Carrier, error)
	Save(ctx context.Context, c *Carrier) error
}
