package sym

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimplify_Identities(t *testing.T) {
	s := NewStore()
	x := s.Var("x")
	zero := s.Const(0)
	one := s.Const(1)

	tests := []struct {
		name string
		got  Expr
		want string
	}{
		{"x+0", x.Add(zero), "x"},
		{"0+x", zero.Add(x), "x"},
		{"x-0", x.Sub(zero), "x"},
		{"0-x", zero.Sub(x), "(-x)"},
		{"x*0", x.Mul(zero), "0.0"},
		{"0*x", zero.Mul(x), "0.0"},
		{"1*x", one.Mul(x), "x"},
		{"x*1", x.Mul(one), "x"},
		{"x/1", x.Div(one), "x"},
		{"0/x", zero.Div(x), "0.0"},
		{"neg neg", x.Neg().Neg(), "x"},
		{"constant moves left", x.Scale(3), "(3.0*x)"},
		{"negative constant moves left", x.Scale(-1), "((-1.0)*x)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got.String())
		})
	}
}

func TestSimplify_ConstantFolding(t *testing.T) {
	s := NewStore()

	assert.Equal(t, "5.0", s.Const(2).Add(s.Const(3)).String())
	assert.Equal(t, "(-1.0)", s.Const(2).Sub(s.Const(3)).String())
	assert.Equal(t, "0.0", Sin(s.Const(0)).String())
	assert.Equal(t, "1.0", Exp(s.Const(0)).String())
	assert.Equal(t, "(-4.0)", s.Const(4).Neg().String())
	assert.Equal(t, "0.5", s.Const(1).Div(s.Const(2)).String())
}

func TestSimplify_NonFiniteResultsStaySymbolic(t *testing.T) {
	s := NewStore()
	x := s.Var("x")

	assert.Equal(t, "(1.0/0.0)", s.Const(1).Div(s.Const(0)).String())
	assert.Equal(t, "(0.0/0.0)", s.Const(0).Div(s.Const(0)).String())
	assert.Equal(t, "sqrt((-1.0))", Sqrt(s.Const(-1)).String())
	assert.Equal(t, "log(0.0)", Log(s.Const(0)).String())
	assert.Equal(t, "((2.0*x)/0.0)", x.Scale(2).Div(s.Const(0)).String())
}

func TestSimplify_MultiplicativeFolding(t *testing.T) {
	s := NewStore()
	x := s.Var("x")
	y := s.Var("y")

	assert.True(t, x.Scale(1).Scale(3).Equal(s.Const(3).Mul(x)))
	assert.True(t, s.Const(2).Mul(x).Mul(s.Const(2)).Equal(s.Const(4).Mul(x)))
	assert.Equal(t, "(4.0*x)", s.Const(2).Mul(x).Mul(s.Const(2)).String())
	assert.Equal(t, "1.0", x.Div(x).String())
	assert.Equal(t, "y", x.Mul(y).Div(x).String())
	assert.Equal(t, "(-1.0)", x.Neg().Div(x).String())
	assert.Equal(t, "(3.0*x)", x.Scale(6).Div(s.Const(2)).String())
}

func TestSimplify_AdditiveCancellation(t *testing.T) {
	s := NewStore()
	x := s.Var("x")
	y := s.Var("y")

	assert.Equal(t, "0.0", x.Sub(x).String())
	assert.Equal(t, "y", x.Add(y).Sub(x).String())
	assert.Equal(t, "0.0", x.Add(x.Neg()).String())
	assert.Equal(t, "(5.0+x)", x.Add(s.Const(2)).Add(s.Const(3)).String())
	assert.Equal(t, "(x+x)", x.Add(x).String(), "like terms are not collected")

	assert.Equal(t, s.Const(0), x.Neg().Add(x))

	sx := Sin(x)
	one := s.Const(1)
	assert.Equal(t, one, one.Sub(sx).Add(sx))
	assert.Equal(t, one, one.Mul(one.Sub(sx)).Add(one.Mul(sx)))

	// Zero-coefficient terms vanish through the zero rule before addition.
	f := s.Const(0).Mul(s.Const(1).Sub(sx)).Add(s.Const(0).Mul(sx))
	assert.Equal(t, "0.0", f.String())

	assert.Equal(t, "0.0", x.Mul(y.Sub(y)).String())
}

func TestSimplify_HandlesStayValidAfterAlias(t *testing.T) {
	s := NewStore()
	x := s.Var("x")

	// The unsimplified node is interned first and then redirected.
	sum := s.Binary(OpAdd, x.ID(), s.Constant(0))
	assert.Equal(t, x.ID(), sum)

	raw, ok := s.index["(x+0.0)"]
	assert.True(t, ok)
	assert.True(t, s.IsAliased(raw))
	assert.Equal(t, x.ID(), s.Resolve(raw))
	assert.Equal(t, "x", s.Repr(raw))
}

func TestSimplify_Idempotent(t *testing.T) {
	s := NewStore()
	x := s.Var("x")
	y := s.Var("y")

	exprs := []Expr{
		x.Add(y).Sub(x),
		x.Scale(2).Mul(s.Const(2)),
		x.Mul(y).Div(x.Add(y)),
		Atan2(x, y).Add(s.Const(1)),
		x.Add(s.Const(2)).Add(s.Const(3)),
		Sqrt(s.Const(-1)),
	}
	for _, e := range exprs {
		id := e.ID()
		n := s.Len()
		assert.Equal(t, id, s.Simplify(id), e.String())
		assert.Equal(t, n, s.Len(), "re-simplifying %s must not intern nodes", e)
	}
}
