// Package linalg maps fixed-size matrices and vectors onto slot arrays of
// expressions. Views share the backing slice, so writes through a view land
// in the slot.
package linalg

import (
	"errors"
	"fmt"

	"github.com/roach88/symgen/internal/sym"
)

// ErrSizeMismatch reports a view larger than its backing slot.
var ErrSizeMismatch = errors.New("size mismatch")

// Matrix is a row-major view.
type Matrix struct {
	data       []sym.Expr
	Rows, Cols int
}

// Vector is a contiguous view.
type Vector struct {
	data []sym.Expr
}

// AsMatrix views the first rows*cols elements of data as a matrix.
func AsMatrix(data []sym.Expr, rows, cols int) (Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return Matrix{}, fmt.Errorf("matrix %dx%d: %w", rows, cols, ErrSizeMismatch)
	}
	if rows*cols > len(data) {
		return Matrix{}, fmt.Errorf("matrix %dx%d needs %d elements, slot holds %d: %w",
			rows, cols, rows*cols, len(data), ErrSizeMismatch)
	}
	return Matrix{data: data[:rows*cols], Rows: rows, Cols: cols}, nil
}

// AsVector views the first n elements of data.
func AsVector(data []sym.Expr, n int) (Vector, error) {
	if n <= 0 || n > len(data) {
		return Vector{}, fmt.Errorf("vector of %d, slot holds %d: %w", n, len(data), ErrSizeMismatch)
	}
	return Vector{data: data[:n]}, nil
}

func (m Matrix) At(i, j int) sym.Expr { return m.data[i*m.Cols+j] }
func (m Matrix) Set(i, j int, e sym.Expr) { m.data[i*m.Cols+j] = e }

// Row returns row i as a vector view.
func (m Matrix) Row(i int) Vector {
	return Vector{data: m.data[i*m.Cols : (i+1)*m.Cols]}
}

func (v Vector) Len() int { return len(v.data) }
func (v Vector) At(i int) sym.Expr { return v.data[i] }
func (v Vector) Set(i int, e sym.Expr) { v.data[i] = e }
func (v Vector) Elements() []sym.Expr { return v.data }

// Dot returns the sum of elementwise products. Both vectors must have the
// same length and be non-empty.
func Dot(a, b Vector) (sym.Expr, error) {
	if a.Len() != b.Len() || a.Len() == 0 {
		return sym.Expr{}, fmt.Errorf("dot of %d and %d elements: %w", a.Len(), b.Len(), ErrSizeMismatch)
	}
	acc := a.At(0).Mul(b.At(0))
	for i := 1; i < a.Len(); i++ {
		acc = acc.Add(a.At(i).Mul(b.At(i)))
	}
	return acc, nil
}

// MulVec returns m·v.
func MulVec(m Matrix, v Vector) ([]sym.Expr, error) {
	if m.Cols != v.Len() {
		return nil, fmt.Errorf("%dx%d matrix times %d vector: %w", m.Rows, m.Cols, v.Len(), ErrSizeMismatch)
	}
	out := make([]sym.Expr, m.Rows)
	for i := range out {
		e, err := Dot(m.Row(i), v)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// Jacobian writes ∂f[i]/∂x[j] into dst, row-major.
func Jacobian(dst Matrix, f, x Vector) error {
	if dst.Rows != f.Len() || dst.Cols != x.Len() {
		return fmt.Errorf("jacobian of %d by %d into %dx%d: %w",
			f.Len(), x.Len(), dst.Rows, dst.Cols, ErrSizeMismatch)
	}
	for i := 0; i < f.Len(); i++ {
		for j := 0; j < x.Len(); j++ {
			dst.Set(i, j, f.At(i).Diff(x.At(j)))
		}
	}
	return nil
}
