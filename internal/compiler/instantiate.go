package compiler

import (
	"fmt"

	"github.com/roach88/symgen/internal/engine"
	"github.com/roach88/symgen/internal/graph"
	"github.com/roach88/symgen/internal/ir"
)

// Instantiate declares the kernel's slots in a new session and builds every
// output element. Slots are declared in kernel order, so generated parameter
// lists follow the definition; outputs are built in dependency order.
//
// An invalid kernel returns its first ValidationError; call Validate to see
// all of them.
func Instantiate(k ir.Kernel, opts ...engine.Option) (*engine.Session, error) {
	a := analyze(k)
	if len(a.errs) > 0 {
		return nil, fmt.Errorf("kernel %s: %w", k.Name, a.errs[0])
	}

	s := engine.NewSession(opts...)
	b := &builder{
		store:   s.Store(),
		inputs:  make(map[string]*engine.Input, len(k.Inputs)),
		outputs: make(map[string]*engine.Output, len(k.Outputs)),
	}
	for _, slot := range k.Inputs {
		stage, _ := graph.ParseStage(slot.Stage)
		in, err := s.AddInput(slot.Name, slot.Size, stage)
		if err != nil {
			return nil, fmt.Errorf("kernel %s: %w", k.Name, err)
		}
		b.inputs[slot.Name] = in
	}
	for _, slot := range k.Outputs {
		stage, _ := graph.ParseStage(slot.Stage)
		out, err := s.AddOutput(slot.Name, slot.Size, stage)
		if err != nil {
			return nil, fmt.Errorf("kernel %s: %w", k.Name, err)
		}
		b.outputs[slot.Name] = out
	}

	for _, name := range a.order {
		decl, _ := k.Output(name)
		out := b.outputs[name]
		if decl.Jacobian != nil {
			err := s.Jacobian(out, b.outputs[decl.Jacobian.Of], b.inputs[decl.Jacobian.Wrt])
			if err != nil {
				return nil, fmt.Errorf("kernel %s: %w", k.Name, err)
			}
			continue
		}
		for i, e := range a.exprs[name] {
			x, err := b.build(e)
			if err != nil {
				return nil, fmt.Errorf("kernel %s: %s: %w", k.Name, out.ElementName(i), err)
			}
			out.Set(i, x)
		}
	}
	return s, nil
}
