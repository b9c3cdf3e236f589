package compiler

import (
	"errors"
	"fmt"
	"regexp"

	"cuelang.org/go/cue/ast"

	"github.com/roach88/symgen/internal/graph"
	"github.com/roach88/symgen/internal/ir"
)

// identPattern matches kernel and slot names. Slot names become C++
// parameters and element names like q[0].
var identPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Validate checks a kernel against the definition rules.
// Returns all errors found (does not fail-fast).
func Validate(k ir.Kernel) []ValidationError {
	return analyze(k).errs
}

// analysis is the result of checking a kernel: its parsed expressions, the
// output slot graph and, when there are no errors, a build order.
type analysis struct {
	exprs map[string][]ast.Expr
	graph *slotGraph
	order []string
	errs  []ValidationError

	sizes  map[string]int
	inputs map[string]bool
}

func (a *analysis) add(field, code, format string, args ...any) {
	a.errs = append(a.errs, ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

func analyze(k ir.Kernel) *analysis {
	a := &analysis{
		exprs:  make(map[string][]ast.Expr),
		graph:  newSlotGraph(),
		sizes:  make(map[string]int),
		inputs: make(map[string]bool),
	}

	// E101, E102
	if !identPattern.MatchString(k.Name) {
		a.add("name", ErrKernelName, "kernel name %q is not an identifier", k.Name)
	}
	if len(k.Outputs) == 0 {
		a.add("outputs", ErrKernelNoOutput, "at least one output is required")
	}

	for i, s := range k.Inputs {
		if a.checkSlot(fmt.Sprintf("inputs[%d]", i), s.Name, s.Size, s.Stage) {
			a.inputs[s.Name] = true
		}
	}
	first := make(map[string]int)
	for i, s := range k.Outputs {
		if a.checkSlot(fmt.Sprintf("outputs[%d]", i), s.Name, s.Size, s.Stage) {
			first[s.Name] = i
			a.graph.addNode(s.Name)
		}
	}

	for i, s := range k.Outputs {
		if j, ok := first[s.Name]; !ok || j != i {
			continue
		}
		field := fmt.Sprintf("outputs[%d]", i)
		switch {
		case s.Jacobian != nil && len(s.Exprs) > 0:
			a.add(field, ErrInvalidJacobian, "slot %s sets both exprs and jacobian", s.Name)
		case s.Jacobian != nil:
			a.checkJacobian(field+".jacobian", s)
		default:
			a.checkExprs(field+".exprs", s)
		}
	}

	a.errs = append(a.errs, cycleErrors(a.graph)...)
	if len(a.errs) == 0 {
		a.order = buildOrder(a.graph)
	}
	return a
}

// checkSlot validates a slot declaration and records its size. It returns
// false when the name cannot be used.
func (a *analysis) checkSlot(field, name string, size int, stage string) bool {
	ok := true
	if !identPattern.MatchString(name) {
		a.add(field+".name", ErrInvalidSlot, "slot name %q is not an identifier", name)
		ok = false
	} else if _, dup := a.sizes[name]; dup {
		a.add(field+".name", ErrDuplicateSlot, "duplicate slot name: %q", name)
		ok = false
	}
	if size <= 0 {
		a.add(field+".size", ErrInvalidSize, "size of %s must be positive, got %d", name, size)
	}
	if _, err := graph.ParseStage(stage); err != nil {
		a.add(field+".stage", ErrInvalidStage, "%v", err)
	}
	if ok {
		a.sizes[name] = size
	}
	return ok
}

func (a *analysis) checkJacobian(field string, s ir.OutputSlot) {
	of, wrt := s.Jacobian.Of, s.Jacobian.Wrt
	_, isOutput := a.graph.edges[of]
	switch {
	case of == s.Name:
		a.add(field+".of", ErrInvalidJacobian, "slot %s cannot hold its own jacobian", s.Name)
		return
	case !isOutput:
		a.add(field+".of", ErrInvalidJacobian, "%q is not an output slot", of)
		return
	case !a.inputs[wrt]:
		a.add(field+".wrt", ErrInvalidJacobian, "%q is not an input slot", wrt)
		return
	}
	if want := a.sizes[of] * a.sizes[wrt]; s.Size != want {
		a.add(field, ErrInvalidJacobian, "slot %s has size %d, jacobian of %s wrt %s needs %d", s.Name, s.Size, of, wrt, want)
	}
	a.graph.addEdge(s.Name, of)
}

func (a *analysis) checkExprs(field string, s ir.OutputSlot) {
	if len(s.Exprs) != s.Size {
		a.add(field, ErrExprCount, "slot %s has size %d but %d expression(s)", s.Name, s.Size, len(s.Exprs))
		return
	}
	parsed := make([]ast.Expr, len(s.Exprs))
	for j, src := range s.Exprs {
		elem := fmt.Sprintf("%s[%d]", s.Name, j)
		e, err := ParseExpr(elem, src)
		if err != nil {
			a.add(elem, ErrInvalidExpr, "%s", exprMessage(err))
			continue
		}
		refs, verr := checkExpr(elem, e)
		if verr != nil {
			a.errs = append(a.errs, *verr)
			continue
		}
		for _, r := range refs {
			a.checkRef(elem, s.Name, j, r)
		}
		parsed[j] = e
	}
	a.exprs[s.Name] = parsed
}

func (a *analysis) checkRef(elem, slot string, j int, r ref) {
	size, ok := a.sizes[r.Slot]
	switch {
	case !ok:
		a.add(elem, ErrUnknownSlot, "col %d: unknown slot %q", r.Pos.Column(), r.Slot)
	case r.Index < 0 || r.Index >= size:
		a.add(elem, ErrIndexRange, "col %d: %s[%d] is outside a slot of size %d", r.Pos.Column(), r.Slot, r.Index, size)
	case r.Wrt && !a.inputs[r.Slot]:
		a.add(elem, ErrInvalidExpr, "col %d: diff variable %s[%d] must be an input element", r.Pos.Column(), r.Slot, r.Index)
	case r.Slot == slot && r.Index >= j:
		a.add(elem, ErrForwardRef, "col %d: %s[%d] is not defined before %s", r.Pos.Column(), r.Slot, r.Index, elem)
	case !a.inputs[r.Slot]:
		a.graph.addEdge(slot, r.Slot)
	}
}

// exprMessage drops the synthetic file name from a parse error.
func exprMessage(err error) string {
	var ce *CompileError
	if errors.As(err, &ce) {
		if ce.Pos.IsValid() {
			return fmt.Sprintf("col %d: %s", ce.Pos.Column(), ce.Message)
		}
		return ce.Message
	}
	return err.Error()
}
