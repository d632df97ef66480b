package carrier

import (
	"context"
	"time"

	"github.com/codledger/backend/internal/domain/carrier"
	"github.com/codledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCarrierRequest registers a new delivery carrier
type CreateCarrierRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

// UpdateConfigRequest replaces a carrier's settlement policy
type UpdateConfigRequest struct {
	SettlementType        string          `json:"settlement_type" binding:"required"`
	ChargesFailedAttempts bool            `json:"charges_failed_attempts"`
	FailedAttemptFee      decimal.Decimal `json:"failed_attempt_fee"`
	FeePercent            decimal.Decimal `json:"fee_percent"`
	PaymentSchedule       string          `json:"payment_schedule" binding:"required"`
}

// CarrierResponse is the API shape of a carrier
type CarrierResponse struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Phone     string         `json:"phone,omitempty"`
	IsActive  bool           `json:"is_active"`
	Config    carrier.Config `json:"config"`
	CreatedAt time.Time      `json:"created_at"`
}

// ToCarrierResponse converts a carrier aggregate to its API shape
func ToCarrierResponse(c *carrier.Carrier) CarrierResponse {
	return CarrierResponse{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		IsActive:  c.IsActive,
		Config:    c.Config,
		CreatedAt: c.CreatedAt,
	}
}

// Service handles carrier administration
type Service struct {
	carrierRepo    carrier.Repository
	eventPublisher shared.EventPublisher
}

// NewService creates a carrier Service
func NewService(carrierRepo carrier.Repository) *Service {
	return &Service{carrierRepo: carrierRepo}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create registers a carrier with the default settlement policy
func (s *Service) Create(ctx context.Context, storeID uuid.UUID, req CreateCarrierRequest) (*CarrierResponse, error) {
	c, err := carrier.NewCarrier(storeID, req.Name)
	if err != nil {
		return nil, err
	}
	c.Phone = req.Phone
	if err := s.carrierRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := ToCarrierResponse(c)
	return &resp, nil
}

// Get retrieves a carrier by id
func (s *Service) Get(ctx context.Context, storeID, id uuid.UUID) (*CarrierResponse, error) {
	c, err := s.carrierRepo.FindByID(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	resp := ToCarrierResponse(c)
	return &resp, nil
}

// List lists carriers, optionally only active ones
func (s *Service) List(ctx context.Context, storeID uuid.UUID, activeOnly bool) ([]CarrierResponse, error) {
	carriers, err := s.carrierRepo.FindAll(ctx, storeID, activeOnly)
	if err != nil {
		return nil, err
	}
	resp := make([]CarrierResponse, 0, len(carriers))
	for _, c := range carriers {
		resp = append(resp, ToCarrierResponse(c))
	}
	return resp, nil
}

// UpdateConfig replaces a carrier's settlement policy
func (s *Service) UpdateConfig(ctx context.Context, storeID, id uuid.UUID, req UpdateConfigRequest) (*CarrierResponse, error) {
	c, err := s.carrierRepo.FindByID(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	cfg := carrier.Config{
		SettlementType:        carrier.SettlementType(req.SettlementType),
		ChargesFailedAttempts: req.ChargesFailedAttempts,
		FailedAttemptFee:      req.FailedAttemptFee,
		FeePercent:            req.FeePercent,
		PaymentSchedule:       carrier.PaymentSchedule(req.PaymentSchedule),
	}
	if err := c.UpdateConfig(cfg); err != nil {
		return nil, err
	}
	if err := s.carrierRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, c.GetDomainEvents()...)
		c.ClearDomainEvents()
	}
	resp := ToCarrierResponse(c)
	return &resp, nil
}

// Deactivate disables a carrier for new dispatch sessions
func (s *Service) Deactivate(ctx context.Context, storeID, id uuid.UUID) (*CarrierResponse, error) {
	c, err := s.carrierRepo.FindByID(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	c.Deactivate()
	if err := s.carrierRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := ToCarrierResponse(c)
	return &resp, nil
}
