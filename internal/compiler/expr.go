package compiler

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/parser"
	"cuelang.org/go/cue/token"

	"github.com/roach88/symgen/internal/engine"
	"github.com/roach88/symgen/internal/sym"
)

// diffFunc differentiates its first argument with respect to an input
// element: diff(y[0], q[1]).
const diffFunc = "diff"

var binaryOps = map[token.Token]sym.Op{
	token.ADD: sym.OpAdd,
	token.SUB: sym.OpSub,
	token.MUL: sym.OpMul,
	token.QUO: sym.OpDiv,
}

// ref is one slot[index] occurrence in an expression.
type ref struct {
	Slot  string
	Index int
	Pos   token.Pos
	Wrt   bool // second argument of diff
}

// ParseExpr parses one element expression with the CUE expression parser.
// name labels positions in errors, typically the element name "y[0]".
func ParseExpr(name, src string) (ast.Expr, error) {
	e, err := parser.ParseExpr(name, src)
	if err != nil {
		var ce *CompileError
		if errors.As(formatCUEError(err), &ce) {
			ce.Field = "expr"
			return nil, ce
		}
		return nil, &CompileError{Field: "expr", Message: err.Error()}
	}
	return e, nil
}

// checkExpr verifies that e stays inside the expression language and
// returns the slot references it makes, in source order.
func checkExpr(field string, e ast.Expr) ([]ref, *ValidationError) {
	fail := func(n ast.Node, code, format string, args ...any) *ValidationError {
		msg := fmt.Sprintf(format, args...)
		if p := n.Pos(); p.IsValid() {
			msg = fmt.Sprintf("col %d: %s", p.Column(), msg)
		}
		return &ValidationError{Field: field, Message: msg, Code: code}
	}

	var refs []ref
	var walk func(e ast.Expr, wrt bool) *ValidationError
	walk = func(e ast.Expr, wrt bool) *ValidationError {
		switch n := e.(type) {
		case *ast.BasicLit:
			if _, err := parseNumber(n); err != nil {
				return fail(n, ErrInvalidExpr, "%v", err)
			}
		case *ast.ParenExpr:
			return walk(n.X, false)
		case *ast.UnaryExpr:
			if n.Op != token.ADD && n.Op != token.SUB {
				return fail(n, ErrInvalidExpr, "unsupported operator %s", n.Op)
			}
			return walk(n.X, false)
		case *ast.BinaryExpr:
			if _, ok := binaryOps[n.Op]; !ok {
				return fail(n, ErrInvalidExpr, "unsupported operator %s", n.Op)
			}
			if err := walk(n.X, false); err != nil {
				return err
			}
			return walk(n.Y, false)
		case *ast.IndexExpr:
			r, err := parseRef(n)
			if err != nil {
				return fail(n, ErrInvalidExpr, "%v", err)
			}
			r.Wrt = wrt
			refs = append(refs, r)
		case *ast.Ident:
			return fail(n, ErrInvalidExpr, "slot %s must be indexed", n.Name)
		case *ast.CallExpr:
			fn, ok := n.Fun.(*ast.Ident)
			if !ok {
				return fail(n, ErrUnknownFunc, "call target must be a function name")
			}
			want := 1
			if fn.Name == diffFunc {
				want = 2
			} else if op, ok := sym.LookupFunc(fn.Name); !ok {
				return fail(n, ErrUnknownFunc, "unknown function %q", fn.Name)
			} else if op.IsBinary() {
				want = 2
			}
			if len(n.Args) != want {
				return fail(n, ErrUnknownFunc, "%s takes %d argument(s), got %d", fn.Name, want, len(n.Args))
			}
			for i, a := range n.Args {
				isWrt := fn.Name == diffFunc && i == 1
				if _, ok := a.(*ast.IndexExpr); isWrt && !ok {
					return fail(a, ErrInvalidExpr, "diff variable must be an input element")
				}
				if err := walk(a, isWrt); err != nil {
					return err
				}
			}
		default:
			return fail(e, ErrInvalidExpr, "unsupported expression %T", e)
		}
		return nil
	}

	if err := walk(e, false); err != nil {
		return nil, err
	}
	return refs, nil
}

func parseRef(n *ast.IndexExpr) (ref, error) {
	id, ok := n.X.(*ast.Ident)
	if !ok {
		return ref{}, fmt.Errorf("indexed value must be a slot name")
	}
	lit, ok := n.Index.(*ast.BasicLit)
	if !ok || lit.Kind != token.INT {
		return ref{}, fmt.Errorf("index of %s must be an integer literal", id.Name)
	}
	i, err := strconv.ParseInt(lit.Value, 0, 32)
	if err != nil {
		return ref{}, fmt.Errorf("invalid index %s", lit.Value)
	}
	return ref{Slot: id.Name, Index: int(i), Pos: n.Pos()}, nil
}

func parseNumber(lit *ast.BasicLit) (float64, error) {
	var v float64
	switch lit.Kind {
	case token.INT:
		i, err := strconv.ParseInt(lit.Value, 0, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %s", lit.Value)
		}
		v = float64(i)
	case token.FLOAT:
		f, err := strconv.ParseFloat(lit.Value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %s", lit.Value)
		}
		v = f
	default:
		return 0, fmt.Errorf("unsupported literal %s", lit.Value)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("number %s is not finite", lit.Value)
	}
	return v, nil
}

// builder turns checked expressions into expressions of a session store.
type builder struct {
	store   *sym.Store
	inputs  map[string]*engine.Input
	outputs map[string]*engine.Output
}

func (b *builder) build(e ast.Expr) (x sym.Expr, err error) {
	defer sym.Recover(&err)
	return b.expr(e), nil
}

func (b *builder) expr(e ast.Expr) sym.Expr {
	switch n := e.(type) {
	case *ast.BasicLit:
		v, _ := parseNumber(n)
		return b.store.Const(v)
	case *ast.ParenExpr:
		return b.expr(n.X)
	case *ast.UnaryExpr:
		x := b.expr(n.X)
		if n.Op == token.SUB {
			return x.Neg()
		}
		return x
	case *ast.BinaryExpr:
		return sym.Apply2(binaryOps[n.Op], b.expr(n.X), b.expr(n.Y))
	case *ast.IndexExpr:
		r, _ := parseRef(n)
		if in, ok := b.inputs[r.Slot]; ok {
			return in.At(r.Index)
		}
		return b.outputs[r.Slot].At(r.Index)
	case *ast.CallExpr:
		name := n.Fun.(*ast.Ident).Name
		if name == diffFunc {
			return b.expr(n.Args[0]).Diff(b.expr(n.Args[1]))
		}
		op, _ := sym.LookupFunc(name)
		if op.IsBinary() {
			return sym.Apply2(op, b.expr(n.Args[0]), b.expr(n.Args[1]))
		}
		return sym.Apply(op, b.expr(n.Args[0]))
	}
	panic(fmt.Sprintf("compiler: unchecked expression %T", e))
}
