package compiler

import (
	"cuelang.org/go/cue"

	"github.com/roach88/symgen/internal/engine"
	"github.com/roach88/symgen/internal/ir"
)

// CompileKernel parses a CUE value into a Kernel.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the kernel struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`kernel: sq: { ... }`)
//	k, err := CompileKernel(v.LookupPath(cue.ParsePath("kernel.sq")))
//
// namespace defaults to engine.DefaultNamespace and class to the kernel
// label. An output's size may be omitted: it defaults to the number of
// exprs, or for a jacobian to len(of)·len(wrt).
func CompileKernel(v cue.Value) (*ir.Kernel, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	k := &ir.Kernel{Namespace: engine.DefaultNamespace}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		k.Name = labels[len(labels)-1].String()
	}
	k.Class = k.Name

	var err error
	if k.Namespace, err = optionalString(v, "namespace", k.Namespace); err != nil {
		return nil, err
	}
	if k.Class, err = optionalString(v, "class", k.Class); err != nil {
		return nil, err
	}

	if k.Inputs, err = parseInputs(v); err != nil {
		return nil, err
	}
	if k.Outputs, err = parseOutputs(v); err != nil {
		return nil, err
	}
	if len(k.Outputs) == 0 {
		return nil, &CompileError{
			Field:   "outputs",
			Message: "at least one output is required",
			Pos:     v.Pos(),
		}
	}

	for i := range k.Outputs {
		out := &k.Outputs[i]
		if out.Size != sizeUnset {
			continue
		}
		out.Size = 0
		if out.Jacobian == nil {
			continue
		}
		rows, okOf := k.SlotSize(out.Jacobian.Of)
		cols, okWrt := k.SlotSize(out.Jacobian.Wrt)
		if okOf && okWrt && rows > 0 && cols > 0 {
			out.Size = rows * cols
		}
	}

	return k, nil
}

// sizeUnset marks an output whose size is inferred.
const sizeUnset = -1

func optionalString(v cue.Value, field, def string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return def, nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalInt(v cue.Value, field string, def int) (int, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return def, nil
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return int(n), nil
}

func parseInputs(v cue.Value) ([]ir.Slot, error) {
	listVal := v.LookupPath(cue.ParsePath("inputs"))
	if !listVal.Exists() {
		return nil, nil
	}
	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var slots []ir.Slot
	for iter.Next() {
		sv := iter.Value()
		var s ir.Slot
		if s.Name, err = requiredString(sv, "name"); err != nil {
			return nil, err
		}
		if s.Size, err = optionalInt(sv, "size", 1); err != nil {
			return nil, err
		}
		if s.Stage, err = optionalString(sv, "stage", ir.StageDynamic); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, nil
}

func parseOutputs(v cue.Value) ([]ir.OutputSlot, error) {
	listVal := v.LookupPath(cue.ParsePath("outputs"))
	if !listVal.Exists() {
		return nil, nil
	}
	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var slots []ir.OutputSlot
	for iter.Next() {
		sv := iter.Value()
		var s ir.OutputSlot
		if s.Name, err = requiredString(sv, "name"); err != nil {
			return nil, err
		}
		if s.Size, err = optionalInt(sv, "size", sizeUnset); err != nil {
			return nil, err
		}
		if s.Stage, err = optionalString(sv, "stage", ir.StageDynamic); err != nil {
			return nil, err
		}

		exprsVal := sv.LookupPath(cue.ParsePath("exprs"))
		jacVal := sv.LookupPath(cue.ParsePath("jacobian"))
		if !exprsVal.Exists() && !jacVal.Exists() {
			return nil, &CompileError{
				Field:   "outputs",
				Message: "output " + s.Name + " needs exprs or jacobian",
				Pos:     sv.Pos(),
			}
		}
		if exprsVal.Exists() {
			exprIter, err := exprsVal.List()
			if err != nil {
				return nil, formatCUEError(err)
			}
			s.Exprs = []string{}
			for exprIter.Next() {
				src, err := exprIter.Value().String()
				if err != nil {
					return nil, &CompileError{
						Field:   "exprs",
						Message: "expression must be a string",
						Pos:     exprIter.Value().Pos(),
					}
				}
				s.Exprs = append(s.Exprs, src)
			}
			if s.Size == sizeUnset {
				s.Size = len(s.Exprs)
			}
		}
		if jacVal.Exists() {
			var jac ir.JacobianSpec
			if jac.Of, err = requiredString(jacVal, "of"); err != nil {
				return nil, err
			}
			if jac.Wrt, err = requiredString(jacVal, "wrt"); err != nil {
				return nil, err
			}
			s.Jacobian = &jac
		}
		slots = append(slots, s)
	}
	return slots, nil
}
