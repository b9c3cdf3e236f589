package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/symgen/internal/ir"
)

func pendulumKernel() ir.Kernel {
	return ir.Kernel{
		Name:      "pendulum",
		Namespace: "dyn",
		Class:     "Pendulum",
		Inputs: []ir.Slot{
			{Name: "p", Size: 2, Stage: ir.StageStatic},
			{Name: "q", Size: 2, Stage: ir.StageDynamic},
		},
		Outputs: []ir.OutputSlot{
			{Name: "y", Size: 2, Stage: ir.StageDynamic, Exprs: []string{"p[0]*sin(q[0])", "p[1]*cos(q[1])"}},
			{Name: "J", Size: 4, Stage: ir.StageDynamic, Jacobian: &ir.JacobianSpec{Of: "y", Wrt: "q"}},
		},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValidKernel(t *testing.T) {
	assert.Empty(t, Validate(pendulumKernel()))
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(k *ir.Kernel)
		code   string
		field  string
	}{
		{"kernel name", func(k *ir.Kernel) { k.Name = "1pendulum" }, ErrKernelName, "name"},
		{"no outputs", func(k *ir.Kernel) { k.Outputs = nil }, ErrKernelNoOutput, "outputs"},
		{"slot name", func(k *ir.Kernel) { k.Inputs[0].Name = "p-1" }, ErrInvalidSlot, "inputs[0].name"},
		{"duplicate slot", func(k *ir.Kernel) { k.Outputs[1].Name = "q" }, ErrDuplicateSlot, "outputs[1].name"},
		{"size", func(k *ir.Kernel) { k.Inputs[1].Size = 0 }, ErrInvalidSize, "inputs[1].size"},
		{"stage", func(k *ir.Kernel) { k.Outputs[0].Stage = "sometimes" }, ErrInvalidStage, "outputs[0].stage"},
		{"expr count", func(k *ir.Kernel) { k.Outputs[0].Exprs = k.Outputs[0].Exprs[:1] }, ErrExprCount, "outputs[0].exprs"},
		{"syntax", func(k *ir.Kernel) { k.Outputs[0].Exprs[1] = "q[0] +" }, ErrInvalidExpr, "y[1]"},
		{"unknown slot", func(k *ir.Kernel) { k.Outputs[0].Exprs[0] = "w[0]" }, ErrUnknownSlot, "y[0]"},
		{"index range", func(k *ir.Kernel) { k.Outputs[0].Exprs[0] = "q[2]" }, ErrIndexRange, "y[0]"},
		{"forward ref", func(k *ir.Kernel) { k.Outputs[0].Exprs[0] = "y[1]" }, ErrForwardRef, "y[0]"},
		{"self ref", func(k *ir.Kernel) { k.Outputs[0].Exprs[1] = "y[1]*2" }, ErrForwardRef, "y[1]"},
		{"unknown func", func(k *ir.Kernel) { k.Outputs[0].Exprs[0] = "foo(q[0])" }, ErrUnknownFunc, "y[0]"},
		{"diff wrt output", func(k *ir.Kernel) { k.Outputs[0].Exprs[1] = "diff(q[0], y[0])" }, ErrInvalidExpr, "y[1]"},
		{"jacobian wrt output", func(k *ir.Kernel) { k.Outputs[1].Jacobian.Wrt = "y" }, ErrInvalidJacobian, "outputs[1].jacobian.wrt"},
		{"jacobian of input", func(k *ir.Kernel) { k.Outputs[1].Jacobian.Of = "p" }, ErrInvalidJacobian, "outputs[1].jacobian.of"},
		{"jacobian of itself", func(k *ir.Kernel) { k.Outputs[1].Jacobian.Of = "J" }, ErrInvalidJacobian, "outputs[1].jacobian.of"},
		{"jacobian size", func(k *ir.Kernel) { k.Outputs[1].Size = 3 }, ErrInvalidJacobian, "outputs[1].jacobian"},
		{"exprs and jacobian", func(k *ir.Kernel) { k.Outputs[1].Exprs = []string{"1", "2", "3", "4"} }, ErrInvalidJacobian, "outputs[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := pendulumKernel()
			tt.mutate(&k)

			errs := Validate(k)
			assert.Contains(t, codes(errs), tt.code)

			var fields []string
			for _, e := range errs {
				if e.Code == tt.code {
					fields = append(fields, e.Field)
				}
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	k := pendulumKernel()
	k.Name = ""
	k.Inputs[0].Stage = "never"
	k.Outputs[0].Exprs[0] = "w[0]"

	assert.Equal(t, []string{ErrKernelName, ErrInvalidStage, ErrUnknownSlot}, codes(Validate(k)))
}

func TestValidateSlotCycle(t *testing.T) {
	k := ir.Kernel{
		Name:   "loop",
		Inputs: []ir.Slot{{Name: "x", Size: 1, Stage: ir.StageDynamic}},
		Outputs: []ir.OutputSlot{
			{Name: "a", Size: 1, Stage: ir.StageDynamic, Exprs: []string{"b[0] + x[0]"}},
			{Name: "b", Size: 1, Stage: ir.StageDynamic, Exprs: []string{"a[0] * 2"}},
		},
	}

	errs := Validate(k)
	if assert.Len(t, errs, 1) {
		assert.Equal(t, ErrSlotCycle, errs[0].Code)
		assert.Equal(t, "outputs.a", errs[0].Field)
		assert.Contains(t, errs[0].Message, "a → b → a")
	}
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "y[0]", Message: `col 1: unknown slot "w"`, Code: ErrUnknownSlot}
	assert.Equal(t, `[E109] y[0]: col 1: unknown slot "w"`, err.Error())
}
