package sym

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a construction failure.
type ErrorCode string

const (
	ErrCodeInvalidID   ErrorCode = "INVALID_ID"
	ErrCodeNonFinite   ErrorCode = "NON_FINITE_CONSTANT"
	ErrCodeInvalidName ErrorCode = "INVALID_NAME"
	ErrCodeForeign     ErrorCode = "FOREIGN_EXPRESSION"
	ErrCodeNotVariable ErrorCode = "NOT_VARIABLE"
)

// Error is the panic value raised by a Store on misuse.
type Error struct {
	Code    ErrorCode
	ID      NodeID
	Message string
}

func (e *Error) Error() string {
	if e.ID != InvalidID {
		return fmt.Sprintf("%s: %s (node %d)", e.Code, e.Message, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func fail(code ErrorCode, id NodeID, format string, args ...any) {
	panic(&Error{Code: code, ID: id, Message: fmt.Sprintf(format, args...)})
}

// Recover converts a *Error panic into an error assigned to *errp.
// It must be deferred directly:
//
//	defer sym.Recover(&err)
//
// Panics of any other type are re-raised.
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(*Error); ok {
		*errp = e
		return
	}
	panic(r)
}

// IsCode reports whether err wraps a *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
