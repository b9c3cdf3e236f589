package engine

import (
	"fmt"

	"github.com/roach88/symgen/internal/graph"
	"github.com/roach88/symgen/internal/linalg"
	"github.com/roach88/symgen/internal/sym"
)

// Input is a named array of variables, e.g. q[0..n).
type Input struct {
	Name  string
	Stage graph.Stage
	elems []sym.Expr
}

// Len returns the slot size.
func (in *Input) Len() int { return len(in.elems) }

// At returns element i. Panics if i is out of range.
func (in *Input) At(i int) sym.Expr { return in.elems[i] }

// Elements returns the backing array.
func (in *Input) Elements() []sym.Expr { return in.elems }

// ElementName returns "name[i]".
func (in *Input) ElementName(i int) string { return elementName(in.Name, i) }

// Assign sets evaluation values for every element.
func (in *Input) Assign(values ...float64) error {
	if len(values) != len(in.elems) {
		return NewSizeMismatchError(in.Name, len(in.elems), len(values))
	}
	for i, v := range values {
		in.elems[i].Assign(v)
	}
	return nil
}

// Vector views the slot as a vector.
func (in *Input) Vector() linalg.Vector {
	v, _ := linalg.AsVector(in.elems, len(in.elems))
	return v
}

// Matrix views the slot as a rows×cols matrix.
func (in *Input) Matrix(rows, cols int) (linalg.Matrix, error) {
	m, err := linalg.AsMatrix(in.elems, rows, cols)
	if err != nil {
		return linalg.Matrix{}, &GenerationError{Code: ErrCodeSizeMismatch, Message: err.Error(), Slot: in.Name, Err: err}
	}
	return m, nil
}

// Output is a named array of expressions to compute. Elements start unset.
type Output struct {
	Name  string
	Stage graph.Stage
	elems []sym.Expr
}

// Len returns the slot size.
func (o *Output) Len() int { return len(o.elems) }

// At returns element i, the zero Expr if unset.
func (o *Output) At(i int) sym.Expr { return o.elems[i] }

// Set assigns element i. Panics if i is out of range.
func (o *Output) Set(i int, e sym.Expr) { o.elems[i] = e }

// Elements returns the backing array.
func (o *Output) Elements() []sym.Expr { return o.elems }

// ElementName returns "name[i]".
func (o *Output) ElementName(i int) string { return elementName(o.Name, i) }

// Vector views the slot as a vector.
func (o *Output) Vector() linalg.Vector {
	v, _ := linalg.AsVector(o.elems, len(o.elems))
	return v
}

// Matrix views the slot as a rows×cols matrix; writes land in the slot.
func (o *Output) Matrix(rows, cols int) (linalg.Matrix, error) {
	m, err := linalg.AsMatrix(o.elems, rows, cols)
	if err != nil {
		return linalg.Matrix{}, &GenerationError{Code: ErrCodeSizeMismatch, Message: err.Error(), Slot: o.Name, Err: err}
	}
	return m, nil
}

// Unset lists the names of unassigned elements.
func (o *Output) Unset() []string {
	var out []string
	for i, e := range o.elems {
		if !e.Valid() {
			out = append(out, o.ElementName(i))
		}
	}
	return out
}

func elementName(slot string, i int) string {
	return fmt.Sprintf("%s[%d]", slot, i)
}
