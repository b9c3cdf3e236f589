package sym

// NodeID identifies an interned node within a Store.
type NodeID int

// InvalidID marks an unset node reference.
const InvalidID NodeID = -1

// Kind tags the variant held by a Node.
type Kind uint8

const (
	KindConstant Kind = iota
	KindVariable
	KindUnary
	KindBinary
)

func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "constant"
	case KindVariable:
		return "variable"
	case KindUnary:
		return "unary"
	case KindBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Op identifies the operator of a unary or binary node.
type Op uint8

const (
	OpNone Op = iota

	// Unary operators.
	OpNeg
	OpSin
	OpCos
	OpTan
	OpSqrt
	OpExp
	OpLog
	OpAsin
	OpAcos
	OpAtan

	// Binary operators.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpAtan2
)

var opNames = [...]string{
	OpNone:  "",
	OpNeg:   "-",
	OpSin:   "sin",
	OpCos:   "cos",
	OpTan:   "tan",
	OpSqrt:  "sqrt",
	OpExp:   "exp",
	OpLog:   "log",
	OpAsin:  "asin",
	OpAcos:  "acos",
	OpAtan:  "atan",
	OpAdd:   "+",
	OpSub:   "-",
	OpMul:   "*",
	OpDiv:   "/",
	OpAtan2: "atan2",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "?"
}

// IsUnary reports whether o takes a single operand.
func (o Op) IsUnary() bool { return o >= OpNeg && o <= OpAtan }

// IsBinary reports whether o takes two operands.
func (o Op) IsBinary() bool { return o >= OpAdd && o <= OpAtan2 }

// LookupFunc maps a call-syntax function name (sin, atan2, ...) to its Op.
// Infix operators are not callable and are not found.
func LookupFunc(name string) (Op, bool) {
	for op := OpSin; op <= OpAtan2; op++ {
		if op.IsUnary() || op == OpAtan2 {
			if opNames[op] == name {
				return op, true
			}
		}
	}
	return OpNone, false
}

// Node is the closed set of expression kinds.
//
// Only the fields relevant to Kind are meaningful: Value for constants,
// Name for variables, Op and Args for operators (Args[1] is unused by unary
// operators). Operand ids are canonical at construction time.
type Node struct {
	Kind  Kind
	Op    Op
	Value float64
	Name  string
	Args  [2]NodeID
}

// Arity returns the number of operands of n.
func (n Node) Arity() int {
	switch n.Kind {
	case KindUnary:
		return 1
	case KindBinary:
		return 2
	default:
		return 0
	}
}

// Operands returns the operand ids of n.
func (n Node) Operands() []NodeID {
	return n.Args[:n.Arity()]
}

func (n Node) is(kind Kind, op Op) bool {
	return n.Kind == kind && n.Op == op
}
