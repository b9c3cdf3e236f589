package sym

// Simplify re-runs the simplification rules on id and returns the resulting
// canonical id. Nodes are already simplified when first interned, so this
// is idempotent on anything the Store built.
func (s *Store) Simplify(id NodeID) NodeID {
	r := s.Resolve(id)
	s.simplify(r)
	return s.Resolve(r)
}

func (s *Store) simplify(id NodeID) {
	n := s.slots[id].node
	target := InvalidID
	switch n.Kind {
	case KindUnary:
		target = s.simplifyUnary(n)
	case KindBinary:
		target = s.simplifyBinary(id, n)
	}
	if target != InvalidID {
		s.SetAlias(id, target)
	}
}

func (s *Store) simplifyUnary(n Node) NodeID {
	a := s.Resolve(n.Args[0])
	an := s.slots[a].node
	if an.Kind == KindConstant {
		if v := applyUnary(n.Op, an.Value); finite(v) {
			return s.Constant(v)
		}
		return InvalidID
	}
	if n.Op == OpNeg && an.is(KindUnary, OpNeg) {
		return s.Resolve(an.Args[0])
	}
	return InvalidID
}

func (s *Store) simplifyBinary(id NodeID, n Node) NodeID {
	a, b := s.Resolve(n.Args[0]), s.Resolve(n.Args[1])
	ca, aConst := s.ConstValue(a)
	cb, bConst := s.ConstValue(b)
	if aConst && bConst {
		// Division by a constant zero and other non-finite results stay symbolic.
		if v := applyBinary(n.Op, ca, cb); finite(v) {
			return s.Constant(v)
		}
	}

	switch n.Op {
	case OpAdd:
		if aConst && ca == 0 {
			return b
		}
		if bConst && cb == 0 {
			return a
		}
		return s.extractAdditive(id)

	case OpSub:
		if bConst && cb == 0 {
			return a
		}
		if aConst && ca == 0 {
			return s.Unary(OpNeg, b)
		}
		return s.extractAdditive(id)

	case OpMul:
		if (aConst && ca == 0) || (bConst && cb == 0) {
			return s.Constant(0)
		}
		if aConst && ca == 1 {
			return b
		}
		if bConst && cb == 1 {
			return a
		}
		if t := s.extractMultiplicative(id); t != InvalidID {
			return t
		}
		// Constant factors lead.
		if bConst && !aConst {
			return s.Binary(OpMul, b, a)
		}
		return InvalidID

	case OpDiv:
		if bConst && cb == 1 {
			return a
		}
		if aConst && ca == 0 && !(bConst && cb == 0) {
			return a
		}
		return s.extractMultiplicative(id)
	}
	return InvalidID
}
