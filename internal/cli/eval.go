package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/symgen/internal/compiler"
	"github.com/roach88/symgen/internal/engine"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Kernel  string
	Set     []string // slot=v0,v1,...
	Outputs []string // output slots to print (default all)
}

// SlotValues holds the values of one slot.
type SlotValues struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// EvalResult holds the evaluated outputs of a kernel.
type EvalResult struct {
	Kernel  string       `json:"kernel"`
	Inputs  []SlotValues `json:"inputs"`
	Outputs []SlotValues `json:"outputs"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <kernels-dir>",
		Short: "Evaluate a kernel numerically",
		Long: `Evaluate a kernel's outputs numerically without generating code.

Every input slot must be assigned with --set. Values are evaluated from the
simplified expression graph, so they match what the generated class computes.

Examples:
  symgen eval ./kernels --kernel pendulum --set p=2,3 --set q=0.5,0.25
  symgen eval ./kernels --kernel pendulum --set p=2,3 --set q=0.5,0.25 --output J`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kernel, "kernel", "", "kernel to evaluate (optional when only one is defined)")
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "assign an input slot: name=v0,v1,...")
	cmd.Flags().StringSliceVar(&opts.Outputs, "output", nil, "output slots to print (default all)")

	return cmd
}

func runEval(opts *EvalOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	assignments, err := parseAssignments(opts.Set)
	if err != nil {
		_ = formatter.Error(compiler.ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid --set", err)
	}

	k, err := loadKernel(formatter, dir, opts.Kernel)
	if err != nil {
		return err
	}
	s, err := instantiate(formatter, k)
	if err != nil {
		return err
	}

	result := EvalResult{Kernel: k.Name}
	if err := assignInputs(s, assignments, &result); err != nil {
		_ = formatter.Error(compiler.ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid inputs", err)
	}

	for _, out := range s.Outputs() {
		if len(opts.Outputs) > 0 && !slices.Contains(opts.Outputs, out.Name) {
			continue
		}
		vals, err := s.Evaluate(out)
		if err != nil {
			return formatter.Fail(ExitCommandError, err)
		}
		result.Outputs = append(result.Outputs, SlotValues{Name: out.Name, Values: vals})
	}
	for _, name := range opts.Outputs {
		if _, ok := s.Output(name); !ok {
			msg := fmt.Sprintf("unknown output slot %q", name)
			_ = formatter.Error(compiler.ErrCodeGeneric, msg, nil)
			return NewExitError(ExitCommandError, msg)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	for _, sv := range result.Outputs {
		fmt.Fprintf(formatter.Writer, "%s = %s\n", sv.Name, formatValues(sv.Values))
	}
	return nil
}

// parseAssignments parses name=v0,v1 flags. A slot may be set only once.
func parseAssignments(sets []string) (map[string][]float64, error) {
	out := make(map[string][]float64, len(sets))
	for _, set := range sets {
		name, list, ok := strings.Cut(set, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" || strings.TrimSpace(list) == "" {
			return nil, fmt.Errorf("invalid --set %q (want name=v0,v1,...)", set)
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("input %s set twice", name)
		}
		var vals []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("input %s: invalid value %q", name, field)
			}
			vals = append(vals, v)
		}
		out[name] = vals
	}
	return out, nil
}

// assignInputs assigns every input slot in declaration order.
func assignInputs(s *engine.Session, assignments map[string][]float64, result *EvalResult) error {
	for name := range assignments {
		if _, ok := s.Input(name); !ok {
			return fmt.Errorf("unknown input slot %q", name)
		}
	}
	for _, in := range s.Inputs() {
		vals, ok := assignments[in.Name]
		if !ok {
			return fmt.Errorf("input %s not assigned (use --set %s=...)", in.Name, in.Name)
		}
		if err := in.Assign(vals...); err != nil {
			return err
		}
		result.Inputs = append(result.Inputs, SlotValues{Name: in.Name, Values: vals})
	}
	return nil
}

func formatValues(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
