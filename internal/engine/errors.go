package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/symgen/internal/sym"
)

// GenerationError represents an error detected while declaring slots or
// generating code for a session.
//
// Generation errors include:
//   - Unset output: an output element was never assigned
//   - Invalid id: a handle referenced a node the store does not hold
//   - Size mismatch: a view or assignment disagrees with a slot size
//   - Duplicate slot: two slots share a name
//   - Construction failed: any other fatal expression construction error
type GenerationError struct {
	// Code identifies the error category.
	Code GenerationErrorCode

	// Message is a human-readable description.
	Message string

	// Slot names the affected slot, if any.
	Slot string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause.
	Err error
}

// GenerationErrorCode categorizes generation errors.
type GenerationErrorCode string

const (
	ErrCodeOutputNotSet       GenerationErrorCode = "OUTPUT_NOT_SET"
	ErrCodeInvalidID          GenerationErrorCode = "INVALID_ID"
	ErrCodeSizeMismatch       GenerationErrorCode = "SIZE_MISMATCH"
	ErrCodeDuplicateSlot      GenerationErrorCode = "DUPLICATE_SLOT"
	ErrCodeConstructionFailed GenerationErrorCode = "CONSTRUCTION_FAILED"
)

// Error implements the error interface.
func (e *GenerationError) Error() string {
	if e.Slot != "" {
		return fmt.Sprintf("%s: %s (slot=%s)", e.Code, e.Message, e.Slot)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func hasCode(err error, code GenerationErrorCode) bool {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Code == code
	}
	return false
}

// IsOutputNotSet returns true if err reports unassigned outputs.
func IsOutputNotSet(err error) bool { return hasCode(err, ErrCodeOutputNotSet) }

// IsInvalidID returns true if err reports an invalid node reference.
func IsInvalidID(err error) bool { return hasCode(err, ErrCodeInvalidID) }

// IsSizeMismatch returns true if err reports a slot size disagreement.
func IsSizeMismatch(err error) bool { return hasCode(err, ErrCodeSizeMismatch) }

// IsDuplicateSlot returns true if err reports a reused slot name.
func IsDuplicateSlot(err error) bool { return hasCode(err, ErrCodeDuplicateSlot) }

// IsConstructionFailed returns true if err reports a fatal construction error.
func IsConstructionFailed(err error) bool { return hasCode(err, ErrCodeConstructionFailed) }

// NewOutputNotSetError lists every unassigned output element.
func NewOutputNotSetError(unset []string) *GenerationError {
	slot := ""
	if len(unset) > 0 {
		slot = unset[0]
	}
	return &GenerationError{
		Code:    ErrCodeOutputNotSet,
		Message: fmt.Sprintf("%d output element(s) not set: %s", len(unset), strings.Join(unset, ", ")),
		Slot:    slot,
		Details: map[string]string{
			"count": fmt.Sprintf("%d", len(unset)),
			"slots": strings.Join(unset, ","),
		},
	}
}

// NewSizeMismatchError reports a size disagreement on slot.
func NewSizeMismatchError(slot string, want, got int) *GenerationError {
	return &GenerationError{
		Code:    ErrCodeSizeMismatch,
		Message: fmt.Sprintf("slot holds %d element(s), got %d", want, got),
		Slot:    slot,
		Details: map[string]string{
			"want": fmt.Sprintf("%d", want),
			"got":  fmt.Sprintf("%d", got),
		},
	}
}

// fromSymError converts a store panic value into a GenerationError.
func fromSymError(se *sym.Error) *GenerationError {
	code := ErrCodeConstructionFailed
	if se.Code == sym.ErrCodeInvalidID {
		code = ErrCodeInvalidID
	}
	return &GenerationError{
		Code:    code,
		Message: se.Message,
		Details: map[string]string{"cause": string(se.Code)},
		Err:     se,
	}
}

// recoverConstruction turns a *sym.Error panic into *errp. Deferred directly
// by every exported method that builds expressions.
func recoverConstruction(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	se, ok := r.(*sym.Error)
	if !ok {
		panic(r)
	}
	*errp = fromSymError(se)
}
