// Package sym implements the expression-graph engine for symgen.
//
// All expressions live in a Store. The Store interns every node under its
// canonical textual form (repr), so two structurally identical expressions
// always share one NodeID no matter how or when they were built. This
// hash-consing is the only common-subexpression mechanism in the system.
//
// Construction, simplification and differentiation interleave on the same
// call stack:
//
//	s := sym.NewStore()
//	x := s.Var("x[0]")
//	y := s.Var("x[1]")
//	f := x.Mul(y).Add(sym.Sin(x))
//	df := f.Diff(x) // (x[1]+cos(x[0])), already simplified
//
// Simplification runs once, right after a node is first interned. It never
// mutates operands; it redirects the new node to a simpler one through the
// alias forest (Store.SetAlias). Handles issued before the redirect stay
// valid and resolve to the alias target.
//
// # Failure model
//
// Construction errors (invalid ids, non-finite constants, malformed variable
// names, mixing stores) are fatal: the Store panics with a *Error. Callers
// that need an error value defer Recover at their boundary.
//
// A Store is not safe for concurrent use.
package sym
