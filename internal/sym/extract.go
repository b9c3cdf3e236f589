package sym

// termMatcher pairs up equal terms across two lists, each term of the second
// list being used at most once.
type termMatcher struct {
	used []bool
}

func newTermMatcher(n int) *termMatcher {
	return &termMatcher{used: make([]bool, n)}
}

// match marks and reports the first unused occurrence of id in list.
func (m *termMatcher) match(list []NodeID, id NodeID) bool {
	for i, t := range list {
		if !m.used[i] && t == id {
			m.used[i] = true
			return true
		}
	}
	return false
}

// additiveExtractor flattens a tree of additions, subtractions and
// negations into signed terms and constants.
type additiveExtractor struct {
	s         *Store
	positives []NodeID
	negatives []NodeID
	constants []float64
	negConsts []float64
}

func (e *additiveExtractor) add(id NodeID) {
	id = e.s.Resolve(id)
	n := e.s.slots[id].node
	switch {
	case n.is(KindBinary, OpAdd):
		e.add(n.Args[0])
		e.add(n.Args[1])
	case n.is(KindBinary, OpSub):
		e.add(n.Args[0])
		e.sub(n.Args[1])
	case n.is(KindUnary, OpNeg):
		e.sub(n.Args[0])
	case n.Kind == KindConstant:
		e.constants = append(e.constants, n.Value)
	default:
		e.positives = append(e.positives, id)
	}
}

func (e *additiveExtractor) sub(id NodeID) {
	id = e.s.Resolve(id)
	n := e.s.slots[id].node
	switch {
	case n.is(KindBinary, OpAdd):
		e.sub(n.Args[0])
		e.sub(n.Args[1])
	case n.is(KindBinary, OpSub):
		e.sub(n.Args[0])
		e.add(n.Args[1])
	case n.is(KindUnary, OpNeg):
		e.add(n.Args[0])
	case n.Kind == KindConstant:
		e.negConsts = append(e.negConsts, n.Value)
	default:
		e.negatives = append(e.negatives, id)
	}
}

func (e *additiveExtractor) simplifiable() bool {
	if len(e.constants)+len(e.negConsts) > 1 {
		return true
	}
	for _, p := range e.positives {
		for _, n := range e.negatives {
			if p == n {
				return true
			}
		}
	}
	return false
}

func (e *additiveExtractor) rebuild() NodeID {
	v := 0.0
	for _, c := range e.constants {
		v += c
	}
	for _, c := range e.negConsts {
		v -= c
	}
	if !finite(v) {
		return InvalidID
	}
	s := e.s
	acc := s.Constant(v)
	m := newTermMatcher(len(e.negatives))
	for _, p := range e.positives {
		if m.match(e.negatives, p) {
			continue
		}
		acc = s.Binary(OpAdd, acc, p)
	}
	for i, n := range e.negatives {
		if !m.used[i] {
			acc = s.Binary(OpSub, acc, n)
		}
	}
	return acc
}

// extractAdditive returns the cancelled and folded rebuild of the additive
// node id, or InvalidID when nothing cancels.
func (s *Store) extractAdditive(id NodeID) NodeID {
	e := &additiveExtractor{s: s}
	e.add(id)
	if !e.simplifiable() {
		return InvalidID
	}
	return e.rebuild()
}

// multiplicativeExtractor flattens products, quotients and negations into
// numerator and denominator factors, a sign and constants.
type multiplicativeExtractor struct {
	s         *Store
	negative  bool
	mulTerms  []NodeID
	divTerms  []NodeID
	constants []float64
	invConsts []float64
}

func (e *multiplicativeExtractor) mul(id NodeID) {
	id = e.s.Resolve(id)
	n := e.s.slots[id].node
	switch {
	case n.is(KindBinary, OpMul):
		e.mul(n.Args[0])
		e.mul(n.Args[1])
	case n.is(KindBinary, OpDiv):
		e.mul(n.Args[0])
		e.div(n.Args[1])
	case n.is(KindUnary, OpNeg):
		e.negative = !e.negative
		e.mul(n.Args[0])
	case n.Kind == KindConstant:
		e.constants = append(e.constants, n.Value)
	default:
		e.mulTerms = append(e.mulTerms, id)
	}
}

func (e *multiplicativeExtractor) div(id NodeID) {
	id = e.s.Resolve(id)
	n := e.s.slots[id].node
	switch {
	case n.is(KindBinary, OpMul):
		e.div(n.Args[0])
		e.div(n.Args[1])
	case n.is(KindBinary, OpDiv):
		e.div(n.Args[0])
		e.mul(n.Args[1])
	case n.is(KindUnary, OpNeg):
		e.negative = !e.negative
		e.div(n.Args[0])
	case n.Kind == KindConstant:
		e.invConsts = append(e.invConsts, n.Value)
	default:
		e.divTerms = append(e.divTerms, id)
	}
}

func (e *multiplicativeExtractor) simplifiable() bool {
	if len(e.constants)+len(e.invConsts) > 1 {
		return true
	}
	for _, p := range e.mulTerms {
		for _, d := range e.divTerms {
			if p == d {
				return true
			}
		}
	}
	return false
}

func (e *multiplicativeExtractor) rebuild() NodeID {
	v := 1.0
	if e.negative {
		v = -1
	}
	for _, c := range e.constants {
		v *= c
	}
	for _, c := range e.invConsts {
		v /= c
	}
	if !finite(v) {
		return InvalidID
	}
	s := e.s
	num := s.Constant(v)
	m := newTermMatcher(len(e.divTerms))
	for _, p := range e.mulTerms {
		if m.match(e.divTerms, p) {
			continue
		}
		num = s.Binary(OpMul, num, p)
	}
	den := InvalidID
	for i, d := range e.divTerms {
		if m.used[i] {
			continue
		}
		if den == InvalidID {
			den = d
		} else {
			den = s.Binary(OpMul, den, d)
		}
	}
	if den == InvalidID {
		return num
	}
	return s.Binary(OpDiv, num, den)
}

// extractMultiplicative returns the cancelled and folded rebuild of the
// multiplicative node id, or InvalidID when nothing cancels.
func (s *Store) extractMultiplicative(id NodeID) NodeID {
	e := &multiplicativeExtractor{s: s}
	e.mul(id)
	if !e.simplifiable() {
		return InvalidID
	}
	return e.rebuild()
}
