package shared

import (
	"github.com/shopspring/decimal"
)

// MaxAmount caps any single monetary value crossing the boundary. Anything
// larger is malformed input, not money.
var MaxAmount = decimal.NewFromInt(999_999_999)

// ValidateAmount checks that an amount is within [0, MaxAmount]
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return NewValidationError("INVALID_AMOUNT", "Amount cannot be negative")
	}
	if amount.GreaterThan(MaxAmount) {
		return NewValidationError("INVALID_AMOUNT", "Amount exceeds the maximum allowed value")
	}
	return nil
}

// ValidatePositiveAmount checks that an amount is within (0, MaxAmount]
func ValidatePositiveAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return NewValidationError("INVALID_AMOUNT", "Amount must be positive")
	}
	if amount.GreaterThan(MaxAmount) {
		return NewValidationError("INVALID_AMOUNT", "Amount exceeds the maximum allowed value")
	}
	return nil
}
