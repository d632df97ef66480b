package shared

import "errors"

// ErrorKind classifies a domain error for transport mapping and caller reaction.
type ErrorKind string

const (
	// KindValidation marks malformed input rejected before any write
	KindValidation ErrorKind = "VALIDATION"
	// KindNotFound marks an absent or foreign-store resource
	KindNotFound ErrorKind = "NOT_FOUND"
	// KindConflict marks duplicate/competing writes (unique constraint, double dispatch, over-application)
	KindConflict ErrorKind = "CONFLICT"
	// KindIntegrity marks ledger inconsistencies that require an operator-run repair
	KindIntegrity ErrorKind = "INTEGRITY"
	// KindInternal marks unexpected infrastructure failures
	KindInternal ErrorKind = "INTERNAL"
)

// DomainError represents a domain-level error with a stable, catchable code
type DomainError struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Kind    ErrorKind `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error of the given kind
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Kind: kind}
}

// NewValidationError creates a validation error
func NewValidationError(code, message string) *DomainError {
	return NewDomainError(KindValidation, code, message)
}

// NewNotFoundError creates a not-found error
func NewNotFoundError(code, message string) *DomainError {
	return NewDomainError(KindNotFound, code, message)
}

// NewConflictError creates a conflict error
func NewConflictError(code, message string) *DomainError {
	return NewDomainError(KindConflict, code, message)
}

// NewIntegrityError creates an integrity error
func NewIntegrityError(code, message string) *DomainError {
	return NewDomainError(KindIntegrity, code, message)
}

// Common domain errors
var (
	ErrNotFound             = NewNotFoundError("NOT_FOUND", "Resource not found")
	ErrInvalidInput         = NewValidationError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState         = NewConflictError("INVALID_STATE", "Operation not allowed in current state")
	ErrDuplicateSettlement  = NewConflictError("DUPLICATE_SETTLEMENT", "A settlement already exists for this store, carrier and date")
	ErrOrderAlreadyClaimed  = NewConflictError("ORDER_ALREADY_DISPATCHED", "Order already belongs to an open dispatch session")
	ErrSessionNotFound      = NewNotFoundError("SESSION_NOT_FOUND", "Dispatch session not found")
	ErrAlreadySettled       = NewConflictError("ALREADY_SETTLED", "Dispatch session has already been settled")
	ErrPaymentOverApplied   = NewConflictError("PAYMENT_OVER_APPLIED", "Payment exceeds the outstanding balance it is applied against")
	ErrLedgerDrift          = NewIntegrityError("LEDGER_DRIFT", "Ledger balance diverges from movement replay")
	ErrDuplicateIdempotency = NewConflictError("DUPLICATE_REQUEST", "Request with this idempotency key was already processed")
)

// IsDomainError returns the DomainError wrapped in err, if any
func IsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsKind reports whether err is a domain error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	if de, ok := IsDomainError(err); ok {
		return de.Kind == kind
	}
	return false
}

// IsCode reports whether err is a domain error with the given code
func IsCode(err error, code string) bool {
	if de, ok := IsDomainError(err); ok {
		return de.Code == code
	}
	return false
}
