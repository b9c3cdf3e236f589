package sym

// Expr is a lightweight handle on a node of a Store. The zero value is an
// unset expression; using it in arithmetic panics with ErrCodeInvalidID.
type Expr struct {
	s  *Store
	id NodeID
}

// Expr wraps an existing id.
func (s *Store) Expr(id NodeID) Expr {
	s.check(id)
	return Expr{s: s, id: id}
}

// Const returns a constant expression.
func (s *Store) Const(v float64) Expr { return Expr{s: s, id: s.Constant(v)} }

// Var returns a variable expression.
func (s *Store) Var(name string) Expr { return Expr{s: s, id: s.Variable(name)} }

// Valid reports whether e refers to a node.
func (e Expr) Valid() bool { return e.s != nil && e.id != InvalidID }

func (e Expr) mustValid() {
	if !e.Valid() {
		fail(ErrCodeInvalidID, InvalidID, "use of unset expression")
	}
}

func (e Expr) same(o Expr) {
	e.mustValid()
	o.mustValid()
	if e.s != o.s {
		fail(ErrCodeForeign, o.id, "expressions belong to different stores")
	}
}

// Store returns the owning store, nil for an unset expression.
func (e Expr) Store() *Store { return e.s }

// ID returns the canonical node id.
func (e Expr) ID() NodeID {
	e.mustValid()
	return e.s.Resolve(e.id)
}

// Node returns the canonical node definition.
func (e Expr) Node() Node {
	e.mustValid()
	return e.s.Node(e.id)
}

func (e Expr) String() string {
	if !e.Valid() {
		return "<unset>"
	}
	return e.s.Repr(e.id)
}

// Equal reports whether both handles resolve to the same node.
func (e Expr) Equal(o Expr) bool {
	if !e.Valid() || !o.Valid() {
		return e.Valid() == o.Valid()
	}
	return e.s == o.s && e.ID() == o.ID()
}

// IsConst reports whether e is the constant v.
func (e Expr) IsConst(v float64) bool {
	e.mustValid()
	return e.s.isConst(e.id, v)
}

func (e Expr) binary(op Op, o Expr) Expr {
	e.same(o)
	return Expr{s: e.s, id: e.s.Binary(op, e.id, o.id)}
}

func (e Expr) Add(o Expr) Expr { return e.binary(OpAdd, o) }
func (e Expr) Sub(o Expr) Expr { return e.binary(OpSub, o) }
func (e Expr) Mul(o Expr) Expr { return e.binary(OpMul, o) }
func (e Expr) Div(o Expr) Expr { return e.binary(OpDiv, o) }

// Scale multiplies e by the constant k.
func (e Expr) Scale(k float64) Expr {
	e.mustValid()
	return e.Mul(e.s.Const(k))
}

func (e Expr) Neg() Expr { return Apply(OpNeg, e) }

// Diff returns de/dv.
func (e Expr) Diff(v Expr) Expr {
	e.same(v)
	return Expr{s: e.s, id: e.s.Diff(e.id, v.id)}
}

// DependsOn reports whether v occurs in e.
func (e Expr) DependsOn(v Expr) bool {
	e.same(v)
	return e.s.DependsOn(e.id, v.id)
}

// Assign sets the value of a variable expression.
func (e Expr) Assign(v float64) {
	e.mustValid()
	e.s.Assign(e.id, v)
}

// Eval computes the numeric value of e.
func (e Expr) Eval() float64 {
	e.mustValid()
	return e.s.Eval(e.id)
}

// Apply builds op(a) for a unary operator.
func Apply(op Op, a Expr) Expr {
	a.mustValid()
	return Expr{s: a.s, id: a.s.Unary(op, a.id)}
}

// Apply2 builds a binary operator node.
func Apply2(op Op, a, b Expr) Expr {
	return a.binary(op, b)
}

func Sin(a Expr) Expr { return Apply(OpSin, a) }
func Cos(a Expr) Expr { return Apply(OpCos, a) }
func Tan(a Expr) Expr { return Apply(OpTan, a) }
func Sqrt(a Expr) Expr { return Apply(OpSqrt, a) }
func Exp(a Expr) Expr { return Apply(OpExp, a) }
func Log(a Expr) Expr { return Apply(OpLog, a) }
func Asin(a Expr) Expr { return Apply(OpAsin, a) }
func Acos(a Expr) Expr { return Apply(OpAcos, a) }
func Atan(a Expr) Expr { return Apply(OpAtan, a) }
func Atan2(a, b Expr) Expr { return Apply2(OpAtan2, a, b) }
