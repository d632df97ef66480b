package dto

import (
	"net/http"

	"github.com/codledger/backend/internal/domain/shared"
)

// Transport-level error codes. Domain errors carry their own codes
// (DUPLICATE_SETTLEMENT, ORDER_ALREADY_DISPATCHED, ...); these cover what the
// HTTP layer itself rejects.
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodePayloadSize  = "PAYLOAD_TOO_LARGE"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// kindHTTPStatus maps domain error kinds to HTTP status codes
var kindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindValidation: http.StatusBadRequest,
	shared.KindNotFound:   http.StatusNotFound,
	shared.KindConflict:   http.StatusConflict,
	shared.KindIntegrity:  http.StatusUnprocessableEntity,
	shared.KindInternal:   http.StatusInternalServerError,
}

// codeHTTPStatus overrides the kind mapping for codes whose semantics do not
// follow their kind's default status.
var codeHTTPStatus = map[string]int{
	"DUPLICATE_REQUEST": http.StatusConflict,
	"EXPORT_UNAVAILABLE": http.StatusServiceUnavailable,
}

// HTTPStatusForError returns the status code for a (possibly wrapped) domain
// error. Unknown errors map to 500.
func HTTPStatusForError(err error) int {
	de, ok := shared.IsDomainError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	if status, ok := codeHTTPStatus[de.Code]; ok {
		return status
	}
	if status, ok := kindHTTPStatus[de.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}
