package sym

import (
	"log/slog"
	"math"
	"regexp"
	"slices"
)

var variableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\[[0-9]+\])?$`)

type slot struct {
	node    Node
	repr    string
	deps    []NodeID
	closure map[NodeID]struct{}
	operand bool // used as a direct operand by some node
}

type diffKey struct {
	f, v NodeID
}

// Store owns every node, the alias forest and the differentiation memo.
type Store struct {
	index  map[string]NodeID
	slots  []slot
	parent []NodeID
	values map[NodeID]float64
	diffs  map[diffKey]NodeID
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger routes construction and alias tracing to l.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore returns an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		index:  make(map[string]NodeID),
		values: make(map[NodeID]float64),
		diffs:  make(map[diffKey]NodeID),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Len returns the number of interned nodes, aliased ones included.
func (s *Store) Len() int { return len(s.slots) }

func (s *Store) check(id NodeID) {
	if id < 0 || int(id) >= len(s.slots) {
		fail(ErrCodeInvalidID, id, "access to invalid node id")
	}
}

// Resolve follows the alias chain of id to its canonical node.
func (s *Store) Resolve(id NodeID) NodeID {
	s.check(id)
	root := id
	for s.parent[root] != InvalidID {
		root = s.parent[root]
	}
	for id != root {
		next := s.parent[id]
		s.parent[id] = root
		id = next
	}
	return root
}

// IsAliased reports whether id has been redirected to another node.
func (s *Store) IsAliased(id NodeID) bool {
	s.check(id)
	return s.parent[id] != InvalidID
}

// SetAlias redirects id0 to the canonical node of id1. Every id that
// currently resolves to id0 follows. Aliasing a node to itself is a no-op.
func (s *Store) SetAlias(id0, id1 NodeID) {
	r0, r1 := s.Resolve(id0), s.Resolve(id1)
	if r0 == r1 {
		return
	}
	s.parent[r0] = r1
	target := s.slots[r1]
	if s.slots[r0].operand {
		s.extendClosures(r0, target.closure)
	}
	for _, id := range []NodeID{r0, id0} {
		s.slots[id].repr = target.repr
		s.slots[id].deps = target.deps
		s.slots[id].closure = target.closure
	}
	s.logger.Debug("node aliased", "id", id0, "target", r1, "repr", target.repr)
}

// extendClosures adds members to every closure that contains old, so that
// closures stay closed over canonical ids once old is aliased.
func (s *Store) extendClosures(old NodeID, members map[NodeID]struct{}) {
	add := make([]NodeID, 0, len(members))
	for c := range members {
		add = append(add, c)
	}
	for i := range s.slots {
		closure := s.slots[i].closure
		if _, ok := closure[old]; !ok || NodeID(i) == old {
			continue
		}
		for _, c := range add {
			closure[c] = struct{}{}
		}
	}
	s.slots[s.Resolve(old)].operand = true
}

// Node returns the definition of the canonical node behind id.
func (s *Store) Node(id NodeID) Node {
	return s.slots[s.Resolve(id)].node
}

// Repr returns the canonical textual form of id.
func (s *Store) Repr(id NodeID) string {
	return s.slots[s.Resolve(id)].repr
}

// Deps returns the distinct direct operands of id, canonicalised.
func (s *Store) Deps(id NodeID) []NodeID {
	deps := s.slots[s.Resolve(id)].deps
	out := make([]NodeID, 0, len(deps))
	for _, d := range deps {
		r := s.Resolve(d)
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	return out
}

// DependsOn reports whether v occurs in the transitive closure of f.
// A node depends on itself.
func (s *Store) DependsOn(f, v NodeID) bool {
	f, v = s.Resolve(f), s.Resolve(v)
	if f == v {
		return true
	}
	_, ok := s.slots[f].closure[v]
	return ok
}

// Lookup returns the id interned under repr, if any.
func (s *Store) Lookup(repr string) (NodeID, bool) {
	id, ok := s.index[repr]
	if !ok {
		return InvalidID, false
	}
	return s.Resolve(id), true
}

// ConstValue returns the value of id when it is a constant.
func (s *Store) ConstValue(id NodeID) (float64, bool) {
	n := s.Node(id)
	if n.Kind != KindConstant {
		return 0, false
	}
	return n.Value, true
}

func (s *Store) isConst(id NodeID, v float64) bool {
	c, ok := s.ConstValue(id)
	return ok && c == v
}

// Constant interns the literal v. Negative zero is stored as zero.
func (s *Store) Constant(v float64) NodeID {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		fail(ErrCodeNonFinite, InvalidID, "constant %v is not finite", v)
	}
	if v == 0 {
		v = 0
	}
	return s.construct(Node{Kind: KindConstant, Value: v, Args: [2]NodeID{InvalidID, InvalidID}})
}

// Variable interns a named leaf. Names are identifiers with an optional
// [index] suffix.
func (s *Store) Variable(name string) NodeID {
	if !variableName.MatchString(name) {
		fail(ErrCodeInvalidName, InvalidID, "invalid variable name %q", name)
	}
	return s.construct(Node{Kind: KindVariable, Name: name, Args: [2]NodeID{InvalidID, InvalidID}})
}

// Unary interns op(a).
func (s *Store) Unary(op Op, a NodeID) NodeID {
	if !op.IsUnary() {
		fail(ErrCodeInvalidID, a, "operator %q is not unary", op)
	}
	return s.construct(Node{Kind: KindUnary, Op: op, Args: [2]NodeID{a, InvalidID}})
}

// Binary interns a op b.
func (s *Store) Binary(op Op, a, b NodeID) NodeID {
	if !op.IsBinary() {
		fail(ErrCodeInvalidID, a, "operator %q is not binary", op)
	}
	return s.construct(Node{Kind: KindBinary, Op: op, Args: [2]NodeID{a, b}})
}

func (s *Store) construct(n Node) NodeID {
	for i := 0; i < n.Arity(); i++ {
		n.Args[i] = s.Resolve(n.Args[i])
	}
	id, created := s.intern(n)
	if created {
		s.simplify(id)
	}
	return s.Resolve(id)
}

func (s *Store) intern(n Node) (NodeID, bool) {
	repr := s.render(n, s.Repr)
	if id, ok := s.index[repr]; ok {
		return id, false
	}
	id := NodeID(len(s.slots))
	closure := map[NodeID]struct{}{id: {}}
	var deps []NodeID
	for _, a := range n.Operands() {
		if slices.Contains(deps, a) {
			continue
		}
		deps = append(deps, a)
		s.slots[a].operand = true
		for c := range s.slots[a].closure {
			closure[c] = struct{}{}
		}
	}
	s.slots = append(s.slots, slot{node: n, repr: repr, deps: deps, closure: closure})
	s.parent = append(s.parent, InvalidID)
	s.index[repr] = id
	s.logger.Debug("node interned", "id", id, "repr", repr)
	return id, true
}

// Assign sets the numeric value of a variable used by Eval.
func (s *Store) Assign(id NodeID, v float64) {
	r := s.Resolve(id)
	if s.slots[r].node.Kind != KindVariable {
		fail(ErrCodeNotVariable, id, "cannot assign to %s", s.slots[r].repr)
	}
	s.values[r] = v
}

// Value returns the value assigned to a variable, zero if unassigned.
func (s *Store) Value(id NodeID) float64 {
	return s.values[s.Resolve(id)]
}
