// Package graph turns an expression Store snapshot into ordered assignment
// statements.
//
// A Schedule is built from named inputs (graph leaves) and named outputs
// (graph roots). Every reached node that is neither an input nor a constant
// becomes exactly one statement, so shared subexpressions are computed once.
// Partition splits the work into a one-time static stage and a per-call
// dynamic stage joined by cross-stage temporaries.
package graph

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/symgen/internal/sym"
)

// TempType is the declared type of synthesized temporaries.
const TempType = "IntermediateScalar"

// StatementIndent prefixes every statement line inside a method body.
const StatementIndent = "        "

// ErrUnsetOutput is returned when an output binding holds no node.
var ErrUnsetOutput = errors.New("output not set")

// Source is the read-only Store view the scheduler needs.
// *sym.Store satisfies it.
type Source interface {
	Len() int
	Resolve(id sym.NodeID) sym.NodeID
	Node(id sym.NodeID) sym.Node
	Repr(id sym.NodeID) string
	Deps(id sym.NodeID) []sym.NodeID
	DependsOn(f, v sym.NodeID) bool
	RenderWith(id sym.NodeID, names map[sym.NodeID]string) string
}

// Binding names an output root, e.g. {"y[0]", 12}.
type Binding struct {
	Name  string
	ID    sym.NodeID
	Stage Stage // only consulted by Partition
}

// Statement is one emitted assignment.
type Statement struct {
	Type   string     // TempType for temporaries, empty for output targets
	Target string     // "_t7", "y[0]", "_i[2]"
	Expr   string     // right-hand side with scheduled operands named
	Node   sym.NodeID // canonical node computed
}

func (st Statement) String() string {
	if st.Type == "" {
		return st.Target + " = " + st.Expr + ";"
	}
	return st.Type + " " + st.Target + " = " + st.Expr + ";"
}

// Schedule is an ordered list of statements plus the depth of every reached
// node.
type Schedule struct {
	Statements []Statement
	Depths     map[sym.NodeID]int
}

// WriteBody writes one statement per line, each prefixed with indent.
func (s *Schedule) WriteBody(w io.Writer, indent string) error {
	for _, st := range s.Statements {
		if _, err := io.WriteString(w, indent+st.String()+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// Body renders the statements with StatementIndent.
func (s *Schedule) Body() string {
	var b strings.Builder
	_ = s.WriteBody(&b, StatementIndent)
	return b.String()
}

// Targets returns the assigned names in emission order.
func (s *Schedule) Targets() []string {
	out := make([]string, len(s.Statements))
	for i, st := range s.Statements {
		out[i] = st.Target
	}
	return out
}

// TempName is the synthesized name of the temporary holding id.
func TempName(id sym.NodeID) string {
	return "_t" + strconv.Itoa(int(id))
}

func checkBindings(src Source, outputs []Binding) error {
	for _, b := range outputs {
		if b.ID < 0 || int(b.ID) >= src.Len() {
			return fmt.Errorf("%s: %w", b.Name, ErrUnsetOutput)
		}
	}
	return nil
}

// isLeaf reports constants and variables, which are rendered inline.
func isLeaf(src Source, id sym.NodeID) bool {
	k := src.Node(id).Kind
	return k == sym.KindConstant || k == sym.KindVariable
}

type depthItem struct {
	depth int
	id    sym.NodeID
}

// Build schedules outputs over src, treating the keys of inputs as leaves
// rendered by their mapped names.
//
// The algorithm:
//  1. Seed a worklist with every output root at depth 0.
//  2. Pop (depth, id), record the maximum depth seen for id, and unless id
//     is an input push its dependencies at depth+1 when that strictly
//     increases their recorded depth.
//  3. Sort reached operator nodes that are not inputs by depth descending (ties
//     by id ascending) and emit one statement each. A node bound to an
//     output is assigned straight to the first such output; every other node
//     gets a _t<id> temporary.
//  4. Emit trailing assignments for outputs not covered in step 3: outputs
//     bound to inputs, to leaves (constants and free variables), or to a
//     node already named by an earlier output.
//
// Once a node is emitted its name replaces its subtree in every later
// statement.
func Build(src Source, inputs map[sym.NodeID]string, outputs []Binding) (*Schedule, error) {
	if err := checkBindings(src, outputs); err != nil {
		return nil, err
	}

	names := make(map[sym.NodeID]string, len(inputs))
	for id, name := range inputs {
		names[src.Resolve(id)] = name
	}
	isInput := make(map[sym.NodeID]bool, len(names))
	for id := range names {
		isInput[id] = true
	}

	depths := make(map[sym.NodeID]int)
	stack := make([]depthItem, 0, len(outputs))
	for _, b := range outputs {
		stack = append(stack, depthItem{depth: 0, id: src.Resolve(b.ID)})
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if d, seen := depths[it.id]; seen && d >= it.depth {
			continue
		}
		depths[it.id] = it.depth
		if isInput[it.id] {
			continue
		}
		next := it.depth + 1
		for _, dep := range src.Deps(it.id) {
			if d, seen := depths[dep]; seen && d >= next {
				continue
			}
			stack = append(stack, depthItem{depth: next, id: dep})
		}
	}

	order := make([]sym.NodeID, 0, len(depths))
	for id := range depths {
		if isInput[id] || isLeaf(src, id) {
			continue
		}
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool {
		di, dj := depths[order[i]], depths[order[j]]
		if di != dj {
			return di > dj
		}
		return order[i] < order[j]
	})

	// First output bound to each node claims it.
	claimed := make(map[sym.NodeID]int)
	for i, b := range outputs {
		id := src.Resolve(b.ID)
		if _, ok := claimed[id]; !ok && !isInput[id] && !isLeaf(src, id) {
			claimed[id] = i
		}
	}

	sched := &Schedule{Depths: depths}
	for _, id := range order {
		st := Statement{Expr: src.RenderWith(id, names), Node: id}
		if i, ok := claimed[id]; ok {
			st.Target = outputs[i].Name
		} else {
			st.Type = TempType
			st.Target = TempName(id)
		}
		names[id] = st.Target
		sched.Statements = append(sched.Statements, st)
	}

	for i, b := range outputs {
		id := src.Resolve(b.ID)
		if j, ok := claimed[id]; ok && j == i {
			continue
		}
		expr, ok := names[id]
		if !ok {
			expr = src.Repr(id)
		}
		sched.Statements = append(sched.Statements, Statement{Target: b.Name, Expr: expr, Node: id})
	}
	return sched, nil
}
