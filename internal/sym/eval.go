package sym

import "math"

func applyUnary(op Op, x float64) float64 {
	switch op {
	case OpNeg:
		return -x
	case OpSin:
		return math.Sin(x)
	case OpCos:
		return math.Cos(x)
	case OpTan:
		return math.Tan(x)
	case OpSqrt:
		return math.Sqrt(x)
	case OpExp:
		return math.Exp(x)
	case OpLog:
		return math.Log(x)
	case OpAsin:
		return math.Asin(x)
	case OpAcos:
		return math.Acos(x)
	case OpAtan:
		return math.Atan(x)
	}
	return math.NaN()
}

func applyBinary(op Op, x, y float64) float64 {
	switch op {
	case OpAdd:
		return x + y
	case OpSub:
		return x - y
	case OpMul:
		return x * y
	case OpDiv:
		return x / y
	case OpAtan2:
		return math.Atan2(x, y)
	}
	return math.NaN()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Eval computes the numeric value of id from the variable assignments.
// Shared subexpressions are evaluated once per call.
func (s *Store) Eval(id NodeID) float64 {
	memo := make(map[NodeID]float64)
	return s.eval(s.Resolve(id), memo)
}

func (s *Store) eval(id NodeID, memo map[NodeID]float64) float64 {
	if v, ok := memo[id]; ok {
		return v
	}
	n := s.slots[id].node
	var v float64
	switch n.Kind {
	case KindConstant:
		v = n.Value
	case KindVariable:
		v = s.values[id]
	case KindUnary:
		v = applyUnary(n.Op, s.eval(s.Resolve(n.Args[0]), memo))
	case KindBinary:
		a := s.eval(s.Resolve(n.Args[0]), memo)
		b := s.eval(s.Resolve(n.Args[1]), memo)
		v = applyBinary(n.Op, a, b)
	}
	memo[id] = v
	return v
}
