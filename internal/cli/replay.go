package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/symgen/internal/compiler"
	"github.com/roach88/symgen/internal/engine"
	"github.com/roach88/symgen/internal/ir"
	"github.com/roach88/symgen/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single stored run.
type ReplayRunResult struct {
	RunID         string `json:"run_id"`
	Kernel        string `json:"kernel"`
	Namespace     string `json:"namespace"`
	ClassName     string `json:"class_name"`
	StoredHash    string `json:"stored_code_hash"`
	ReplayedHash  string `json:"replayed_code_hash,omitempty"`
	KernelChanged bool   `json:"kernel_changed"`
	Deterministic bool   `json:"deterministic"`
	Error         string `json:"error,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <kernels-dir>",
		Short: "Regenerate stored runs and verify determinism",
		Long: `Regenerate every stored run from the current kernel definitions and
verify that the generated code is byte-identical to what was recorded.

Each run is regenerated with its stored namespace and class name. A run whose
kernel no longer exists, or whose kernel hash differs from the stored one,
is reported as changed and counts as a failure.

Exit codes:
  0 - All runs regenerate identically
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, etc.)

Examples:
  symgen replay ./kernels --db ./symgen.db
  symgen replay ./kernels --db ./symgen.db --run 0192f0c4-...
  symgen replay ./kernels --db ./symgen.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay a specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	loadResult, loadErrors := compiler.LoadKernels(dir, compiler.LoadModeCollectAll)
	if len(loadErrors) > 0 {
		return reportLoadErrors(formatter, "loading kernels failed", loadErrors)
	}

	st, err := openStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := selectRuns(ctx, st, opts.RunID)
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error(compiler.ErrCodeNotFound, fmt.Sprintf("run %s not found", opts.RunID), nil)
		return WrapExitError(ExitCommandError, "run not found", err)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(runs)),
		TotalRuns:        len(runs),
		AllDeterministic: true,
	}
	for _, run := range runs {
		rr := replayRun(formatter, loadResult, run)
		formatter.VerboseLog("Replayed run %s: deterministic=%v", run.ID, rr.Deterministic)
		result.Runs = append(result.Runs, rr)
		if !rr.Deterministic {
			result.AllDeterministic = false
		}
	}

	if formatter.Format == "json" {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

func selectRuns(ctx context.Context, st *store.Store, runID string) ([]ir.Run, error) {
	if runID == "" {
		return st.ListRuns(ctx, "")
	}
	run, err := st.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	return []ir.Run{run}, nil
}

// replayRun regenerates one stored run and compares code hashes.
func replayRun(f *OutputFormatter, loaded *compiler.LoadResult, run ir.Run) ReplayRunResult {
	rr := ReplayRunResult{
		RunID:      run.ID,
		Kernel:     run.Kernel,
		Namespace:  run.Namespace,
		ClassName:  run.ClassName,
		StoredHash: run.CodeHash,
	}

	k, ok := loaded.Kernel(run.Kernel)
	if !ok {
		rr.KernelChanged = true
		rr.Error = fmt.Sprintf("kernel %s no longer defined", run.Kernel)
		return rr
	}
	hash, err := ir.KernelHash(k)
	if err != nil {
		rr.Error = fmt.Sprintf("hashing kernel: %v", err)
		return rr
	}
	if hash != run.KernelHash {
		rr.KernelChanged = true
		rr.Error = "kernel definition changed since the run was recorded"
		return rr
	}

	s, err := compiler.Instantiate(k,
		engine.WithLogger(f.Logger()),
		engine.WithRunIDs(engine.NewFixedGenerator(run.ID)))
	if err != nil {
		rr.Error = err.Error()
		return rr
	}
	art, err := s.Generate(engine.CodeOptions{Namespace: run.Namespace, ClassName: run.ClassName})
	if err != nil {
		rr.Error = err.Error()
		return rr
	}

	rr.ReplayedHash = ir.CodeHash(art.Code)
	rr.Deterministic = rr.ReplayedHash == run.CodeHash
	return rr
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(f *OutputFormatter, result ReplayResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}
	if err := f.encode(response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(f *OutputFormatter, result ReplayResult) error {
	w := f.Writer

	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n\n", result.TotalRuns)
	for _, rr := range result.Runs {
		status := "✓"
		if !rr.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Run: %s (%s -> %s::%s)\n", status, rr.RunID, rr.Kernel, rr.Namespace, rr.ClassName)
		if f.Verbose {
			fmt.Fprintf(w, "  Stored:   %s\n", rr.StoredHash)
			fmt.Fprintf(w, "  Replayed: %s\n", rr.ReplayedHash)
		}
		switch {
		case rr.Error != "":
			fmt.Fprintf(w, "  Error: %s\n", rr.Error)
		case !rr.Deterministic:
			fmt.Fprintln(w, "  Warning: regenerated code differs from the stored code!")
		}
	}
	fmt.Fprintln(w)

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
