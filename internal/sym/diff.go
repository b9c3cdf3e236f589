package sym

// Diff returns the partial derivative of f with respect to v, simplified.
//
// Any node whose closure does not contain v differentiates to zero without
// recursion, and results are memoised per (f, v), so shared subexpressions
// are differentiated once.
func (s *Store) Diff(f, v NodeID) NodeID {
	f, v = s.Resolve(f), s.Resolve(v)
	if f == v {
		return s.Constant(1)
	}
	if !s.DependsOn(f, v) {
		return s.Constant(0)
	}
	key := diffKey{f: f, v: v}
	if d, ok := s.diffs[key]; ok {
		return s.Resolve(d)
	}
	d := s.differentiate(f, v)
	s.diffs[key] = d
	return d
}

func (s *Store) add(a, b NodeID) NodeID { return s.Binary(OpAdd, a, b) }
func (s *Store) sub(a, b NodeID) NodeID { return s.Binary(OpSub, a, b) }
func (s *Store) mul(a, b NodeID) NodeID { return s.Binary(OpMul, a, b) }
func (s *Store) div(a, b NodeID) NodeID { return s.Binary(OpDiv, a, b) }

func (s *Store) differentiate(f, v NodeID) NodeID {
	n := s.slots[f].node
	switch n.Kind {
	case KindUnary:
		u := s.Resolve(n.Args[0])
		du := s.Diff(u, v)
		switch n.Op {
		case OpNeg:
			return s.Unary(OpNeg, du)
		case OpSin:
			return s.mul(du, s.Unary(OpCos, u))
		case OpCos:
			return s.Unary(OpNeg, s.mul(du, s.Unary(OpSin, u)))
		case OpTan:
			c := s.Unary(OpCos, u)
			return s.div(du, s.mul(c, c))
		case OpSqrt:
			return s.div(du, s.mul(s.Constant(2), f))
		case OpExp:
			return s.mul(du, f)
		case OpLog:
			return s.div(du, u)
		case OpAsin:
			return s.div(du, s.Unary(OpSqrt, s.sub(s.Constant(1), s.mul(u, u))))
		case OpAcos:
			return s.Unary(OpNeg, s.div(du, s.Unary(OpSqrt, s.sub(s.Constant(1), s.mul(u, u)))))
		case OpAtan:
			return s.div(du, s.add(s.Constant(1), s.mul(u, u)))
		}

	case KindBinary:
		a, b := s.Resolve(n.Args[0]), s.Resolve(n.Args[1])
		da, db := s.Diff(a, v), s.Diff(b, v)
		switch n.Op {
		case OpAdd:
			return s.add(da, db)
		case OpSub:
			return s.sub(da, db)
		case OpMul:
			return s.add(s.mul(da, b), s.mul(a, db))
		case OpDiv:
			if s.isConst(db, 0) {
				return s.div(da, b)
			}
			return s.sub(s.div(da, b), s.div(s.mul(a, db), s.mul(b, b)))
		case OpAtan2:
			return s.div(
				s.sub(s.mul(da, b), s.mul(a, db)),
				s.add(s.mul(a, a), s.mul(b, b)),
			)
		}
	}
	// Constants and foreign variables are caught by the closure check.
	return s.Constant(0)
}
