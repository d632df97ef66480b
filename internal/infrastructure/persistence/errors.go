package persistence

import (
	"errors"
	"strings"

	"github.com/codledger/backend/internal/domain/shared"
	"github.com/lib/pq"
)

// pq error code for unique_violation
const uniqueViolationCode = "23505"

// errDuplicateCode is the retryable conflict a document code collision maps to
var errDuplicateCode = shared.NewConflictError("DUPLICATE_CODE", "Document code already exists")

// uniqueViolation reports whether err is a unique-constraint violation and, if
// so, which constraint it hit. Postgres reports the constraint name; sqlite
// (used by in-memory tests) reports the column list.
func uniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if string(pqErr.Code) == uniqueViolationCode {
			return pqErr.Constraint, true
		}
		return "", false
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value") {
		return msg, true
	}
	return "", false
}

// translateUniqueViolation maps a unique violation to the domain conflict the
// hit constraint stands for. Constraint keys are matched as substrings so the
// same table works for postgres index names and sqlite column lists.
func translateUniqueViolation(err error, byConstraint map[string]error) error {
	if err == nil {
		return nil
	}
	hit, ok := uniqueViolation(err)
	if !ok {
		return err
	}
	for key, domainErr := range byConstraint {
		if strings.Contains(hit, key) {
			return domainErr
		}
	}
	return shared.NewConflictError("UNIQUE_VIOLATION", "Write conflicts with an existing row")
}
