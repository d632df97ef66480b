package carrier

import (
	"github.com/codledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementType determines how a carrier settles collected cash with the store
type SettlementType string

const (
	// SettlementTypeCOD means the carrier collects cash on delivery and owes it to the store
	SettlementTypeCOD SettlementType = "cod"
	// SettlementTypePrepaid means the store prepays shipping; the carrier collects nothing
	SettlementTypePrepaid SettlementType = "prepaid"
)

// IsValid returns true if the settlement type is valid
func (t SettlementType) IsValid() bool {
	return t == SettlementTypeCOD || t == SettlementTypePrepaid
}

// PaymentSchedule is how often a carrier remits collected cash
type PaymentSchedule string

const (
	PaymentScheduleDaily    PaymentSchedule = "daily"
	PaymentScheduleWeekly   PaymentSchedule = "weekly"
	PaymentScheduleBiweekly PaymentSchedule = "biweekly"
	PaymentScheduleMonthly  PaymentSchedule = "monthly"
)

// IsValid returns true if the payment schedule is valid
func (s PaymentSchedule) IsValid() bool {
	switch s {
	case PaymentScheduleDaily, PaymentScheduleWeekly, PaymentScheduleBiweekly, PaymentScheduleMonthly:
		return true
	}
	return false
}

// Config is the per-carrier settlement policy. It is a read-only input to
// settlement computation; mutations go through the admin update operation.
type Config struct {
	SettlementType        SettlementType  `json:"settlement_type"`
	ChargesFailedAttempts bool            `json:"charges_failed_attempts"`
	FailedAttemptFee      decimal.Decimal `json:"failed_attempt_fee"`
	FeePercent            decimal.Decimal `json:"fee_percent"`
	PaymentSchedule       PaymentSchedule `json:"payment_schedule"`
}

// DefaultConfig returns the policy applied to carriers with no explicit config
func DefaultConfig() Config {
	return Config{
		SettlementType:        SettlementTypeCOD,
		ChargesFailedAttempts: false,
		FailedAttemptFee:      decimal.Zero,
		FeePercent:            decimal.Zero,
		PaymentSchedule:       PaymentScheduleWeekly,
	}
}

// Validate checks the config against policy bounds
func (c Config) Validate() error {
	if !c.SettlementType.IsValid() {
		return shared.NewValidationError("INVALID_SETTLEMENT_TYPE", "Settlement type must be cod or prepaid")
	}
	if !c.PaymentSchedule.IsValid() {
		return shared.NewValidationError("INVALID_PAYMENT_SCHEDULE", "Unknown payment schedule")
	}
	if c.FailedAttemptFee.IsNegative() {
		return shared.NewValidationError("INVALID_FEE", "Failed attempt fee cannot be negative")
	}
	if c.FeePercent.IsNegative() || c.FeePercent.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewValidationError("INVALID_FEE", "Fee percent must be between 0 and 100")
	}
	return nil
}

// Carrier is a third-party delivery company that collects cash-on-delivery
// payments on the store's behalf. The carrier itself is shared across stores;
// its ledger is always store-scoped.
type Carrier struct {
	shared.StoreAggregateRoot
	Name     string
	Phone    string
	IsActive bool
	Config   Config
}

// NewCarrier creates a carrier with the default settlement policy
func NewCarrier(storeID uuid.UUID, name string) (*Carrier, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_STORE", "Store ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "Carrier name cannot be empty")
	}
	return &Carrier{
		StoreAggregateRoot: shared.NewStoreAggregateRoot(storeID),
		Name:               name,
		IsActive:           true,
		Config:             DefaultConfig(),
	}, nil
}

// UpdateConfig replaces the settlement policy after validation
func (c *Carrier) UpdateConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.Config = cfg
	c.IncrementVersion()
	c.AddDomainEvent(NewConfigUpdatedEvent(c))
	return nil
}

// Deactivate disables the carrier for new dispatch sessions. Existing ledger
// entries are untouched.
func (c *Carrier) Deactivate() {
	c.IsActive = false
	c.IncrementVersion()
}
