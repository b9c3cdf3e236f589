package engine

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"

	"github.com/roach88/symgen/internal/codegen"
	"github.com/roach88/symgen/internal/graph"
	"github.com/roach88/symgen/internal/linalg"
	"github.com/roach88/symgen/internal/sym"
)

var slotName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Session is one generation run: a private Store plus declared slots.
//
// A Session is not safe for concurrent use.
type Session struct {
	store   *sym.Store
	logger  *slog.Logger
	runIDs  RunIDGenerator
	inputs  []*Input
	outputs []*Output
	names   map[string]bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger routes session and store logging to l.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRunIDs sets the generator used to stamp artifacts.
func WithRunIDs(g RunIDGenerator) Option {
	return func(s *Session) {
		if g != nil {
			s.runIDs = g
		}
	}
}

// NewSession creates an empty session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		logger: slog.Default(),
		runIDs: UUIDv7Generator{},
		names:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.store = sym.NewStore(sym.WithLogger(s.logger))
	return s
}

// Store returns the session's expression store.
func (s *Session) Store() *sym.Store { return s.store }

// Const returns a constant expression in the session store.
func (s *Session) Const(v float64) (e sym.Expr, err error) {
	defer recoverConstruction(&err)
	return s.store.Const(v), nil
}

func (s *Session) claim(name string, size int) error {
	if !slotName.MatchString(name) {
		return &GenerationError{
			Code:    ErrCodeConstructionFailed,
			Message: fmt.Sprintf("invalid slot name %q", name),
			Slot:    name,
		}
	}
	if size <= 0 {
		return NewSizeMismatchError(name, 1, size)
	}
	if s.names[name] {
		return &GenerationError{
			Code:    ErrCodeDuplicateSlot,
			Message: "slot already declared",
			Slot:    name,
		}
	}
	s.names[name] = true
	return nil
}

// AddInput declares an input slot of size variables name[0..size).
func (s *Session) AddInput(name string, size int, stage graph.Stage) (in *Input, err error) {
	if err := s.claim(name, size); err != nil {
		return nil, err
	}
	defer recoverConstruction(&err)

	in = &Input{Name: name, Stage: stage, elems: make([]sym.Expr, size)}
	for i := range in.elems {
		in.elems[i] = s.store.Var(elementName(name, i))
	}
	s.inputs = append(s.inputs, in)
	s.logger.Debug("input declared", "slot", name, "size", size, "stage", stage)
	return in, nil
}

// AddOutput declares an output slot with size unset elements.
func (s *Session) AddOutput(name string, size int, stage graph.Stage) (*Output, error) {
	if err := s.claim(name, size); err != nil {
		return nil, err
	}
	out := &Output{Name: name, Stage: stage, elems: make([]sym.Expr, size)}
	s.outputs = append(s.outputs, out)
	s.logger.Debug("output declared", "slot", name, "size", size, "stage", stage)
	return out, nil
}

// Input returns the input slot called name.
func (s *Session) Input(name string) (*Input, bool) {
	for _, in := range s.inputs {
		if in.Name == name {
			return in, true
		}
	}
	return nil, false
}

// Output returns the output slot called name.
func (s *Session) Output(name string) (*Output, bool) {
	for _, o := range s.outputs {
		if o.Name == name {
			return o, true
		}
	}
	return nil, false
}

// Inputs returns the input slots in declaration order.
func (s *Session) Inputs() []*Input { return s.inputs }

// Outputs returns the output slots in declaration order.
func (s *Session) Outputs() []*Output { return s.outputs }

// Diff returns ∂f/∂v.
func (s *Session) Diff(f, v sym.Expr) (d sym.Expr, err error) {
	defer recoverConstruction(&err)
	if f.Store() != s.store || v.Store() != s.store {
		return sym.Expr{}, &GenerationError{
			Code:    ErrCodeConstructionFailed,
			Message: "expression does not belong to this session",
		}
	}
	return f.Diff(v), nil
}

// Jacobian fills dst with ∂f[i]/∂wrt[j], row-major. dst must hold
// f.Len()*wrt.Len() elements.
func (s *Session) Jacobian(dst, f *Output, wrt *Input) (err error) {
	defer recoverConstruction(&err)
	if dst.Len() != f.Len()*wrt.Len() {
		return NewSizeMismatchError(dst.Name, dst.Len(), f.Len()*wrt.Len())
	}
	if unset := f.Unset(); len(unset) > 0 {
		return NewOutputNotSetError(unset)
	}
	m, err := dst.Matrix(f.Len(), wrt.Len())
	if err != nil {
		return err
	}
	if err := linalg.Jacobian(m, f.Vector(), wrt.Vector()); err != nil {
		return &GenerationError{Code: ErrCodeSizeMismatch, Message: err.Error(), Slot: dst.Name, Err: err}
	}
	return nil
}

// Validate reports every unassigned output element, and any element built
// in a different store.
func (s *Session) Validate() error {
	var unset []string
	for _, o := range s.outputs {
		unset = append(unset, o.Unset()...)
	}
	if len(unset) > 0 {
		return NewOutputNotSetError(unset)
	}
	for _, o := range s.outputs {
		for i, e := range o.elems {
			if e.Store() != s.store {
				return &GenerationError{
					Code:    ErrCodeConstructionFailed,
					Message: "expression does not belong to this session",
					Slot:    o.ElementName(i),
				}
			}
		}
	}
	return nil
}

// Evaluate computes an output numerically from the values assigned to the
// inputs.
func (s *Session) Evaluate(o *Output) (vals []float64, err error) {
	if unset := o.Unset(); len(unset) > 0 {
		return nil, NewOutputNotSetError(unset)
	}
	defer recoverConstruction(&err)
	vals = make([]float64, o.Len())
	for i, e := range o.elems {
		vals[i] = e.Eval()
	}
	return vals, nil
}

func (s *Session) inputNames(stage graph.Stage, all bool) map[sym.NodeID]string {
	names := make(map[sym.NodeID]string)
	for _, in := range s.inputs {
		if !all && in.Stage != stage {
			continue
		}
		for i, e := range in.elems {
			names[e.ID()] = in.ElementName(i)
		}
	}
	return names
}

func (s *Session) bindings() []graph.Binding {
	var out []graph.Binding
	for _, o := range s.outputs {
		for i, e := range o.elems {
			out = append(out, graph.Binding{Name: o.ElementName(i), ID: e.ID(), Stage: o.Stage})
		}
	}
	return out
}

// Plan validates the session and partitions it into static and dynamic
// schedules.
func (s *Session) Plan() (plan *graph.Plan, err error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	defer recoverConstruction(&err)
	plan, err = graph.Partition(s.store,
		s.inputNames(graph.StageStatic, false),
		s.inputNames(graph.StageDynamic, false),
		s.bindings())
	if err != nil {
		return nil, &GenerationError{Code: ErrCodeConstructionFailed, Message: err.Error(), Err: err}
	}
	return plan, nil
}

// ExportGraph writes the full node listing of the session store.
func (s *Session) ExportGraph(w io.Writer) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return graph.Export(w, s.store)
}

// WriteDOT writes the session store as a Graphviz digraph.
func (s *Session) WriteDOT(w io.Writer) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return graph.WriteDOT(w, s.store, s.inputNames(graph.StageStatic, true))
}

// Default names used when CodeOptions leaves them empty.
const (
	DefaultNamespace = "generated"
	DefaultClassName = "Kernel"
)

// CodeOptions names the generated class.
type CodeOptions struct {
	Namespace string
	ClassName string
}

func (o CodeOptions) withDefaults() CodeOptions {
	if o.Namespace == "" {
		o.Namespace = DefaultNamespace
	}
	if o.ClassName == "" {
		o.ClassName = DefaultClassName
	}
	return o
}

// Artifact is the result of a generation run.
type Artifact struct {
	RunID             string
	Namespace         string
	ClassName         string
	Code              string
	StaticStatements  int
	DynamicStatements int
	NumTemps          int
	Nodes             []graph.NodeInfo
}

// Statements returns the total number of emitted statements.
func (a *Artifact) Statements() int { return a.StaticStatements + a.DynamicStatements }

// Class returns the code printer description for the session under opts.
func (s *Session) Class(plan *graph.Plan, opts CodeOptions) codegen.Class {
	c := codegen.Class{
		Namespace:   opts.Namespace,
		Name:        opts.ClassName,
		NumTemps:    plan.NumTemps(),
		StaticBody:  plan.Static.Body(),
		DynamicBody: plan.Dynamic.Body(),
	}
	for _, in := range s.inputs {
		if in.Stage == graph.StageStatic {
			c.StaticParams = append(c.StaticParams, in.Name)
		} else {
			c.DynamicParams = append(c.DynamicParams, in.Name)
		}
	}
	for _, o := range s.outputs {
		if o.Stage == graph.StageStatic {
			c.StaticParams = append(c.StaticParams, o.Name)
		} else {
			c.DynamicParams = append(c.DynamicParams, o.Name)
		}
	}
	return c
}

// Generate validates the session, schedules both stages and renders the
// class.
func (s *Session) Generate(opts CodeOptions) (*Artifact, error) {
	opts = opts.withDefaults()
	plan, err := s.Plan()
	if err != nil {
		return nil, err
	}
	code, err := codegen.Cxx(s.Class(plan, opts))
	if err != nil {
		return nil, &GenerationError{Code: ErrCodeConstructionFailed, Message: err.Error(), Err: err}
	}

	art := &Artifact{
		RunID:             s.runIDs.Generate(),
		Namespace:         opts.Namespace,
		ClassName:         opts.ClassName,
		Code:              code,
		StaticStatements:  len(plan.Static.Statements),
		DynamicStatements: len(plan.Dynamic.Statements),
		NumTemps:          plan.NumTemps(),
		Nodes:             graph.Snapshot(s.store),
	}
	s.logger.Info("kernel generated",
		"run_id", art.RunID,
		"class", opts.Namespace+"::"+opts.ClassName,
		"nodes", len(art.Nodes),
		"static_statements", art.StaticStatements,
		"dynamic_statements", art.DynamicStatements,
		"temps", art.NumTemps)
	return art, nil
}
