package sym

import (
	"strconv"
	"strings"
)

// FormatConstant renders a literal the way it appears in reprs and in
// generated code: shortest round-trip digits, always with a decimal point
// or exponent, parenthesised when negative.
func FormatConstant(v float64) string {
	if v == 0 {
		v = 0
	}
	text := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(text, ".e") {
		text += ".0"
	}
	if v < 0 {
		return "(" + text + ")"
	}
	return text
}

func (s *Store) render(n Node, operand func(NodeID) string) string {
	switch n.Kind {
	case KindConstant:
		return FormatConstant(n.Value)
	case KindVariable:
		return n.Name
	case KindUnary:
		a := operand(n.Args[0])
		if n.Op == OpNeg {
			return "(-" + a + ")"
		}
		return n.Op.String() + "(" + a + ")"
	case KindBinary:
		a, b := operand(n.Args[0]), operand(n.Args[1])
		if n.Op == OpAtan2 {
			return "atan2(" + a + ", " + b + ")"
		}
		return "(" + a + n.Op.String() + b + ")"
	}
	return ""
}

// RenderWith renders a single level of id: each operand appears as
// names[operand] when present, otherwise as its repr.
func (s *Store) RenderWith(id NodeID, names map[NodeID]string) string {
	n := s.Node(id)
	return s.render(n, func(op NodeID) string {
		op = s.Resolve(op)
		if name, ok := names[op]; ok {
			return name
		}
		return s.Repr(op)
	})
}
