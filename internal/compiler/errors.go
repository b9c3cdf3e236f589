package compiler

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

// Validation error codes (E100-E199)
const (
	// Kernel errors (E101-E104)
	ErrKernelName     = "E101" // kernel name is not an identifier
	ErrKernelNoOutput = "E102" // at least one output required
	ErrInvalidSlot    = "E103" // slot name is not an identifier
	ErrDuplicateSlot  = "E104" // slot name used twice

	// Slot shape errors (E105-E107)
	ErrInvalidSize  = "E105" // size must be positive
	ErrInvalidStage = "E106" // stage must be static or dynamic
	ErrExprCount    = "E107" // exprs length differs from size

	// Expression errors (E108-E112)
	ErrInvalidExpr = "E108" // syntax outside the expression language
	ErrUnknownSlot = "E109" // reference to an undeclared slot
	ErrIndexRange  = "E110" // index outside the slot
	ErrForwardRef  = "E111" // element reads a later element of its own slot
	ErrUnknownFunc = "E112" // unknown function or wrong argument count

	// Dependency errors (E113-E114)
	ErrInvalidJacobian = "E113" // jacobian of/wrt invalid or size mismatch
	ErrSlotCycle       = "E114" // output slots depend on each other
)

// ValidationError represents a kernel validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}
