package harness

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/roach88/symgen/internal/compiler"
	"github.com/roach88/symgen/internal/engine"
	"github.com/roach88/symgen/internal/ir"
	"github.com/roach88/symgen/internal/store"
	"github.com/roach88/symgen/internal/testutil"
)

// Harness is the scenario execution engine. It runs every scenario with a
// fixed run id in a fresh in-memory store.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load and validate the kernel from the scenario's kernels directory
//  2. Instantiate it in a session with a fixed run id
//  3. Assign inputs and compare evaluated outputs with the expectations
//  4. Generate code and persist the run into a fresh in-memory store
//  5. Evaluate assertions against the stored run
//
// Kernel and infrastructure failures are returned as errors; value and
// assertion mismatches are reported through the Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with an explicit context for the store operations.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	k, err := compiler.LoadKernel(scenario.Kernels, scenario.Kernel)
	if err != nil {
		return nil, fmt.Errorf("loading kernel: %w", err)
	}

	logger := testutil.DiscardLogger()
	st, err := store.Open(":memory:", store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{store: st, logger: logger}
	return h.run(ctx, scenario, k)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario, k ir.Kernel) (*Result, error) {
	sess, err := compiler.Instantiate(k,
		engine.WithLogger(h.logger),
		engine.WithRunIDs(testutil.NewFixedRunID(scenario.runID())))
	if err != nil {
		return nil, err
	}

	result := NewResult()
	h.assignInputs(sess, scenario, result)
	if !result.Pass {
		return result, nil
	}
	if err := h.checkExpect(sess, scenario, result); err != nil {
		return nil, err
	}

	art, err := sess.Generate(engine.CodeOptions{Namespace: k.Namespace, ClassName: k.Class})
	if err != nil {
		return nil, fmt.Errorf("generating kernel %s: %w", k.Name, err)
	}
	hash, err := ir.KernelHash(k)
	if err != nil {
		return nil, fmt.Errorf("hashing kernel %s: %w", k.Name, err)
	}

	run, nodes := art.Record(k.Name, hash)
	stored, err := h.store.WriteRun(ctx, run, nodes)
	if err != nil {
		return nil, fmt.Errorf("writing run: %w", err)
	}
	persisted, err := h.store.ReadGraph(ctx, stored.ID)
	if err != nil {
		return nil, fmt.Errorf("reading graph: %w", err)
	}
	if len(persisted) != stored.NodeCount {
		result.AddErrorf("stored graph has %d node(s), run records %d", len(persisted), stored.NodeCount)
	}

	result.RunID = stored.ID
	result.Seq = stored.Seq
	result.KernelHash = stored.KernelHash
	result.Code = stored.Code
	result.Stats = Stats{
		Nodes:             len(persisted),
		StaticStatements:  art.StaticStatements,
		DynamicStatements: art.DynamicStatements,
		Temps:             art.NumTemps,
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario executed",
		"scenario", scenario.Name,
		"kernel", k.Name,
		"pass", result.Pass,
		"errors", len(result.Errors))
	return result, nil
}

// assignInputs requires every input slot to be assigned exactly once and
// rejects values for undeclared slots.
func (h *Harness) assignInputs(sess *engine.Session, scenario *Scenario, result *Result) {
	for _, name := range sortedKeys(scenario.Inputs) {
		in, ok := sess.Input(name)
		if !ok {
			result.AddErrorf("inputs: unknown input slot %q", name)
			continue
		}
		if err := in.Assign(scenario.Inputs[name]...); err != nil {
			result.AddErrorf("inputs.%s: %v", name, err)
		}
	}
	for _, in := range sess.Inputs() {
		if _, ok := scenario.Inputs[in.Name]; !ok {
			result.AddErrorf("inputs: slot %q not assigned", in.Name)
		}
	}
}

func (h *Harness) checkExpect(sess *engine.Session, scenario *Scenario, result *Result) error {
	tol := scenario.tolerance()
	for _, name := range sortedKeys(scenario.Expect) {
		out, ok := sess.Output(name)
		if !ok {
			result.AddErrorf("expect: unknown output slot %q", name)
			continue
		}
		got, err := sess.Evaluate(out)
		if err != nil {
			return fmt.Errorf("evaluating %s: %w", name, err)
		}
		result.Values[name] = got

		want := scenario.Expect[name]
		if len(want) != len(got) {
			result.AddErrorf("expect.%s: slot holds %d element(s), expected %d", name, len(got), len(want))
			continue
		}
		for i := range want {
			if !withinTolerance(got[i], want[i], tol) {
				result.AddErrorf("%s: got %v, want %v (tolerance %g)", out.ElementName(i), got[i], want[i], tol)
			}
		}
	}
	return nil
}

func withinTolerance(got, want, tol float64) bool {
	if got == want {
		return true
	}
	return math.Abs(got-want) <= tol
}
